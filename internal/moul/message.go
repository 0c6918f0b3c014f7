package moul

import (
	"fmt"

	"github.com/udisondev/moulgo/internal/wire"
)

// Message broadcast flags.
const (
	BCastByType            = 1 << 0
	BCastPropagateToChildren = 1 << 2
	BCastByExactType       = 1 << 3
	BCastPropagateToModifiers = 1 << 4
	BCastClearAfterBcast   = 1 << 5
	BCastNetPropagate      = 1 << 6
	BCastNetSent           = 1 << 7
	BCastNetUseRelevanceRegions = 1 << 8
	BCastNetForce          = 1 << 9
	BCastNetNonLocal       = 1 << 10
	BCastLocalPropagate    = 1 << 11
	BCastMsgWatch          = 1 << 12
	BCastNetStartCascade   = 1 << 13
	BCastNetAllowInterAge  = 1 << 14
	BCastNetSendUnreliable = 1 << 15
	BCastCCRSendToAllPlayers = 1 << 16
	BCastNetCreatedRemotely  = 1 << 17
)

// Message is the base of the game message tree: sender, receivers, timestamp
// and broadcast flags. Embedding types call readBase/writeBase first.
type Message struct {
	Sender     Key
	Receivers  []Key
	Timestamp  float64
	BcastFlags uint32
}

func (m *Message) isMessage() {}

func (m *Message) readBase(s *wire.BufferStream) error {
	if err := m.Sender.Read(s); err != nil {
		return fmt.Errorf("read message: %w", err)
	}
	count, err := s.ReadU32()
	if err != nil {
		return fmt.Errorf("read message: %w", err)
	}
	m.Receivers = make([]Key, count)
	for i := range m.Receivers {
		if err := m.Receivers[i].Read(s); err != nil {
			return fmt.Errorf("read message receiver: %w", err)
		}
	}
	if m.Timestamp, err = s.ReadF64(); err != nil {
		return fmt.Errorf("read message: %w", err)
	}
	if m.BcastFlags, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read message: %w", err)
	}
	return nil
}

func (m *Message) writeBase(s *wire.BufferStream) {
	m.Sender.Write(s)
	s.WriteU32(uint32(len(m.Receivers)))
	for i := range m.Receivers {
		m.Receivers[i].Write(s)
	}
	s.WriteF64(m.Timestamp)
	s.WriteU32(m.BcastFlags)
}

// MakeSafeForNet defaults to forwardable; privileged types override.
func (m *Message) MakeSafeForNet() bool { return true }

// ServerReplyMsg reply codes.
const (
	ServerReplyInvalid int32 = -1
	ServerReplyDeny    int32 = 0
	ServerReplyAffirm  int32 = 1
)

// ServerReplyMsg answers a shared-state lock request.
type ServerReplyMsg struct {
	Message
	Reply int32
}

func (m *ServerReplyMsg) Type() uint16 { return IDServerReplyMsg }

func (m *ServerReplyMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	var err error
	if m.Reply, err = s.ReadI32(); err != nil {
		return fmt.Errorf("read server reply: %w", err)
	}
	return nil
}

func (m *ServerReplyMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteI32(m.Reply)
}

// EnableMsg toggles object features by command bits.
type EnableMsg struct {
	Message
	Cmd   wire.BitVector
	Types wire.BitVector
}

func (m *EnableMsg) Type() uint16 { return IDEnableMsg }

func (m *EnableMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	if err := m.Cmd.Read(s); err != nil {
		return fmt.Errorf("read enable msg: %w", err)
	}
	if err := m.Types.Read(s); err != nil {
		return fmt.Errorf("read enable msg: %w", err)
	}
	return nil
}

func (m *EnableMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	m.Cmd.Write(s)
	m.Types.Write(s)
}

// WarpMsg teleports an object. Never forwardable from clients.
type WarpMsg struct {
	Message
	Transform wire.Matrix44
	WarpFlags uint32
}

func (m *WarpMsg) Type() uint16 { return IDWarpMsg }

func (m *WarpMsg) MakeSafeForNet() bool { return false }

func (m *WarpMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	if err := m.Transform.Read(s); err != nil {
		return fmt.Errorf("read warp msg: %w", err)
	}
	var err error
	if m.WarpFlags, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read warp msg: %w", err)
	}
	return nil
}

func (m *WarpMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	m.Transform.Write(s)
	s.WriteU32(m.WarpFlags)
}

// BackdoorMsg is a console command carrier. Never forwardable from clients.
type BackdoorMsg struct {
	Message
	Target string
	String string
}

func (m *BackdoorMsg) Type() uint16 { return IDBackdoorMsg }

func (m *BackdoorMsg) MakeSafeForNet() bool { return false }

func (m *BackdoorMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	var err error
	if m.Target, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read backdoor msg: %w", err)
	}
	if m.String, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read backdoor msg: %w", err)
	}
	return nil
}

func (m *BackdoorMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteSafeString(m.Target)
	s.WriteSafeString(m.String)
}

// BulletMsg commands.
const (
	BulletStop uint8 = iota
	BulletShot
	BulletSpray
)

// BulletMsg carries projectile effects.
type BulletMsg struct {
	Message
	Cmd       uint8
	From      wire.Vector3
	Direction wire.Vector3
	Range     float32
	Radius    float32
	PartyTime float32
}

func (m *BulletMsg) Type() uint16 { return IDBulletMsg }

func (m *BulletMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	var err error
	if m.Cmd, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read bullet msg: %w", err)
	}
	if err = m.From.Read(s); err != nil {
		return fmt.Errorf("read bullet msg: %w", err)
	}
	if err = m.Direction.Read(s); err != nil {
		return fmt.Errorf("read bullet msg: %w", err)
	}
	if m.Range, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read bullet msg: %w", err)
	}
	if m.Radius, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read bullet msg: %w", err)
	}
	if m.PartyTime, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read bullet msg: %w", err)
	}
	return nil
}

func (m *BulletMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteU8(m.Cmd)
	m.From.Write(s)
	m.Direction.Write(s)
	s.WriteF32(m.Range)
	s.WriteF32(m.Radius)
	s.WriteF32(m.PartyTime)
}

// ClimbMsg drives climbing state transitions.
type ClimbMsg struct {
	Message
	Cmd       uint32
	Direction uint32
	Status    bool
	Target    Key
}

func (m *ClimbMsg) Type() uint16 { return IDClimbMsg }

func (m *ClimbMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	var err error
	if m.Cmd, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read climb msg: %w", err)
	}
	if m.Direction, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read climb msg: %w", err)
	}
	if m.Status, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read climb msg: %w", err)
	}
	if err = m.Target.Read(s); err != nil {
		return fmt.Errorf("read climb msg: %w", err)
	}
	return nil
}

func (m *ClimbMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteU32(m.Cmd)
	s.WriteU32(m.Direction)
	s.WriteBool(m.Status)
	m.Target.Write(s)
}

// ClothingMsg tints and swaps avatar clothing.
type ClothingMsg struct {
	Message
	Commands uint32
	Item     Key
	Color    wire.ColorRgba
	Layer    uint8
	Delta    uint8
	Weight   float32
}

func (m *ClothingMsg) Type() uint16 { return IDClothingMsg }

func (m *ClothingMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	var err error
	if m.Commands, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read clothing msg: %w", err)
	}
	hasItem, err := s.ReadBool()
	if err != nil {
		return fmt.Errorf("read clothing msg: %w", err)
	}
	if hasItem {
		if err = m.Item.Read(s); err != nil {
			return fmt.Errorf("read clothing msg: %w", err)
		}
	}
	if err = m.Color.ReadRgba(s); err != nil {
		return fmt.Errorf("read clothing msg: %w", err)
	}
	if m.Layer, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read clothing msg: %w", err)
	}
	if m.Delta, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read clothing msg: %w", err)
	}
	if m.Weight, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read clothing msg: %w", err)
	}
	return nil
}

func (m *ClothingMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteU32(m.Commands)
	s.WriteBool(!m.Item.IsNull())
	if !m.Item.IsNull() {
		m.Item.Write(s)
	}
	m.Color.WriteRgba(s)
	s.WriteU8(m.Layer)
	s.WriteU8(m.Delta)
	s.WriteF32(m.Weight)
}

// MultistageModMsg drives multistage behavior stages.
type MultistageModMsg struct {
	Message
	Cmds     wire.BitVector
	Stage    uint8
	NumLoops uint8
}

func (m *MultistageModMsg) Type() uint16 { return IDMultistageModMsg }

func (m *MultistageModMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	if err := m.Cmds.Read(s); err != nil {
		return fmt.Errorf("read multistage msg: %w", err)
	}
	var err error
	if m.Stage, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read multistage msg: %w", err)
	}
	if m.NumLoops, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read multistage msg: %w", err)
	}
	return nil
}

func (m *MultistageModMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	m.Cmds.Write(s)
	s.WriteU8(m.Stage)
	s.WriteU8(m.NumLoops)
}

// ParticleKillMsg culls particles from a system.
type ParticleKillMsg struct {
	Message
	Flags     uint8
	NumToKill float32
	TimeLeft  float32
}

func (m *ParticleKillMsg) Type() uint16 { return IDParticleKillMsg }

func (m *ParticleKillMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	var err error
	if m.NumToKill, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read particle kill msg: %w", err)
	}
	if m.TimeLeft, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read particle kill msg: %w", err)
	}
	if m.Flags, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read particle kill msg: %w", err)
	}
	return nil
}

func (m *ParticleKillMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteF32(m.NumToKill)
	s.WriteF32(m.TimeLeft)
	s.WriteU8(m.Flags)
}

// ParticleTransferMsg moves particles between systems.
type ParticleTransferMsg struct {
	Message
	SysKey        Key
	TransferCount uint16
}

func (m *ParticleTransferMsg) Type() uint16 { return IDParticleTransferMsg }

func (m *ParticleTransferMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	if err := m.SysKey.Read(s); err != nil {
		return fmt.Errorf("read particle transfer msg: %w", err)
	}
	var err error
	if m.TransferCount, err = s.ReadU16(); err != nil {
		return fmt.Errorf("read particle transfer msg: %w", err)
	}
	return nil
}

func (m *ParticleTransferMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	m.SysKey.Write(s)
	s.WriteU16(m.TransferCount)
}

// SetNetGroupIdMsg assigns an object's synchronization group.
type SetNetGroupIdMsg struct {
	Message
	Group NetGroupId
}

func (m *SetNetGroupIdMsg) Type() uint16 { return IDSetNetGroupIdMsg }

func (m *SetNetGroupIdMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	return m.Group.Read(s)
}

func (m *SetNetGroupIdMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	m.Group.Write(s)
}

// PseudoLinkEffectMsg plays a fake link effect on an avatar.
type PseudoLinkEffectMsg struct {
	Message
	LinkObj Key
	Avatar  Key
}

func (m *PseudoLinkEffectMsg) Type() uint16 { return IDPseudoLinkEffectMsg }

func (m *PseudoLinkEffectMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	if err := m.LinkObj.Read(s); err != nil {
		return fmt.Errorf("read pseudo link msg: %w", err)
	}
	if err := m.Avatar.Read(s); err != nil {
		return fmt.Errorf("read pseudo link msg: %w", err)
	}
	return nil
}

func (m *PseudoLinkEffectMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	m.LinkObj.Write(s)
	m.Avatar.Write(s)
}

// LinkEffectsTriggerMsg starts or stops the avatar link-out effects.
type LinkEffectsTriggerMsg struct {
	Message
	InvisLevel uint32
	Effects    uint32
	Leaving    bool
	LinkKey    Key
	AnimKey    Key
}

func (m *LinkEffectsTriggerMsg) Type() uint16 { return IDLinkEffectsTriggerMsg }

func (m *LinkEffectsTriggerMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	var err error
	if m.InvisLevel, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read link effects msg: %w", err)
	}
	if m.Leaving, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read link effects msg: %w", err)
	}
	if err = m.LinkKey.Read(s); err != nil {
		return fmt.Errorf("read link effects msg: %w", err)
	}
	if m.Effects, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read link effects msg: %w", err)
	}
	if err = m.AnimKey.Read(s); err != nil {
		return fmt.Errorf("read link effects msg: %w", err)
	}
	return nil
}

func (m *LinkEffectsTriggerMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteU32(m.InvisLevel)
	s.WriteBool(m.Leaving)
	m.LinkKey.Write(s)
	s.WriteU32(m.Effects)
	m.AnimKey.Write(s)
}

// InputIfaceMgrMsg switches input interface state (books, offers).
type InputIfaceMgrMsg struct {
	Message
	Command     uint8
	PageID      uint32
	AgeName     string
	AgeFilename string
	SpawnPoint  string
	Avatar      Key
}

func (m *InputIfaceMgrMsg) Type() uint16 { return IDInputIfaceMgrMsg }

func (m *InputIfaceMgrMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	var err error
	if m.Command, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read input iface msg: %w", err)
	}
	if m.PageID, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read input iface msg: %w", err)
	}
	if m.AgeName, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read input iface msg: %w", err)
	}
	if m.AgeFilename, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read input iface msg: %w", err)
	}
	if m.SpawnPoint, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read input iface msg: %w", err)
	}
	if err = m.Avatar.Read(s); err != nil {
		return fmt.Errorf("read input iface msg: %w", err)
	}
	return nil
}

func (m *InputIfaceMgrMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteU8(m.Command)
	s.WriteU32(m.PageID)
	s.WriteSafeString(m.AgeName)
	s.WriteSafeString(m.AgeFilename)
	s.WriteSafeString(m.SpawnPoint)
	m.Avatar.Write(s)
}

// AvatarInputStateMsg mirrors the avatar's input state bits.
type AvatarInputStateMsg struct {
	Message
	State uint16
}

func (m *AvatarInputStateMsg) Type() uint16 { return IDAvatarInputStateMsg }

func (m *AvatarInputStateMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	var err error
	if m.State, err = s.ReadU16(); err != nil {
		return fmt.Errorf("read avatar input state msg: %w", err)
	}
	return nil
}

func (m *AvatarInputStateMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteU16(m.State)
}

// SubWorldMsg moves an avatar between physics subworlds.
type SubWorldMsg struct {
	Message
	World Key
}

func (m *SubWorldMsg) Type() uint16 { return IDSubWorldMsg }

func (m *SubWorldMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	return m.World.Read(s)
}

func (m *SubWorldMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	m.World.Write(s)
}

// InputEventMsg is raw client input. Never forwardable from clients.
type InputEventMsg struct {
	Message
	Event int32
}

func (m *InputEventMsg) Type() uint16 { return IDInputEventMsg }

func (m *InputEventMsg) MakeSafeForNet() bool { return false }

func (m *InputEventMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	var err error
	if m.Event, err = s.ReadI32(); err != nil {
		return fmt.Errorf("read input event msg: %w", err)
	}
	return nil
}

func (m *InputEventMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteI32(m.Event)
}

// ControlEventMsg is a mapped control input. Inherits the input-event ban.
type ControlEventMsg struct {
	InputEventMsg
	ControlCode    int32
	Activated      bool
	ControlPercent float32
	TurnToPoint    wire.Vector3
	Cmd            string
}

func (m *ControlEventMsg) Type() uint16 { return IDControlEventMsg }

func (m *ControlEventMsg) Read(s *wire.BufferStream) error {
	if err := m.InputEventMsg.Read(s); err != nil {
		return err
	}
	var err error
	if m.ControlCode, err = s.ReadI32(); err != nil {
		return fmt.Errorf("read control event msg: %w", err)
	}
	activated, err := s.ReadU32()
	if err != nil {
		return fmt.Errorf("read control event msg: %w", err)
	}
	m.Activated = activated != 0
	if m.ControlPercent, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read control event msg: %w", err)
	}
	if err = m.TurnToPoint.Read(s); err != nil {
		return fmt.Errorf("read control event msg: %w", err)
	}
	if m.Cmd, err = s.ReadPString16(); err != nil {
		return fmt.Errorf("read control event msg: %w", err)
	}
	return nil
}

func (m *ControlEventMsg) Write(s *wire.BufferStream) {
	m.InputEventMsg.Write(s)
	s.WriteI32(m.ControlCode)
	if m.Activated {
		s.WriteU32(1)
	} else {
		s.WriteU32(0)
	}
	s.WriteF32(m.ControlPercent)
	m.TurnToPoint.Write(s)
	s.WritePString16(m.Cmd)
}

// KIMessage commands (partial; only ChatMessage is ever forwarded).
const (
	KIChatMessage uint8 = 0
)

// KIMessage flags.
const (
	KIPrivateMsg  uint32 = 1 << 0
	KIAdminMsg    uint32 = 1 << 1
	KIDead        uint32 = 1 << 2
	KIStatusMsg   uint32 = 1 << 4
	KINeighborMsg uint32 = 1 << 5
	KIChannelMask uint32 = 0xFF00
)

// KIMessage is the in-game chat and KI command carrier.
type KIMessage struct {
	Message
	Command  uint8
	User     string
	PlayerID uint32
	String   string
	Flags    uint32
	Delay    float32
	Value    int32
}

func (m *KIMessage) Type() uint16 { return IDKIMessage }

// MakeSafeForNet forwards chat only, and strips the admin flag the client
// must not be able to set.
func (m *KIMessage) MakeSafeForNet() bool {
	if m.Command != KIChatMessage {
		// Client is being naughty
		return false
	}
	m.Flags &^= KIAdminMsg
	return true
}

func (m *KIMessage) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	var err error
	if m.Command, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read ki message: %w", err)
	}
	if m.User, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read ki message: %w", err)
	}
	if m.PlayerID, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read ki message: %w", err)
	}
	if m.String, err = s.ReadSafeStringUTF16(); err != nil {
		return fmt.Errorf("read ki message: %w", err)
	}
	if m.Flags, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read ki message: %w", err)
	}
	if m.Delay, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read ki message: %w", err)
	}
	if m.Value, err = s.ReadI32(); err != nil {
		return fmt.Errorf("read ki message: %w", err)
	}
	return nil
}

func (m *KIMessage) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteU8(m.Command)
	s.WriteSafeString(m.User)
	s.WriteU32(m.PlayerID)
	s.WriteSafeStringUTF16(m.String)
	s.WriteU32(m.Flags)
	s.WriteF32(m.Delay)
	s.WriteI32(m.Value)
}
