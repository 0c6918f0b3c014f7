package moul

import (
	"fmt"

	"github.com/udisondev/moulgo/internal/wire"
)

// avTask marks members of the avatar task tree.
type avTask interface {
	Creatable
	isAvTask()
}

// armatureBrain marks members of the brain tree.
type armatureBrain interface {
	Creatable
	isArmatureBrain()
}

// readAvTask reads a creatable and requires it to be an avatar task.
func readAvTask(s *wire.BufferStream) (avTask, error) {
	obj, err := ReadCreatable(s)
	if err != nil || obj == nil {
		return nil, err
	}
	task, ok := obj.(avTask)
	if !ok {
		return nil, fmt.Errorf("creatable 0x%04X is not an avatar task", obj.Type())
	}
	return task, nil
}

// readArmatureBrain reads a creatable and requires it to be a brain.
func readArmatureBrain(s *wire.BufferStream) (armatureBrain, error) {
	obj, err := ReadCreatable(s)
	if err != nil || obj == nil {
		return nil, err
	}
	brain, ok := obj.(armatureBrain)
	if !ok {
		return nil, fmt.Errorf("creatable 0x%04X is not an armature brain", obj.Type())
	}
	return brain, nil
}

// AnimStage is one stage of a generic brain's animation script. The main
// body and the aux block are serialized separately.
type AnimStage struct {
	AnimName    string
	Notify      uint8
	ForwardType uint32
	BackType    uint32
	AdvanceType uint32
	RegressType uint32
	Loops       uint32
	DoAdvance   bool
	AdvanceTo   uint32
	DoRegress   bool
	RegressTo   uint32

	// Aux block
	LocalTime float32
	Length    float32
	CurLoop   int32
	Attached  bool
}

func (a *AnimStage) Type() uint16 { return IDAnimStage }

func (a *AnimStage) MakeSafeForNet() bool { return true }

func (a *AnimStage) Read(s *wire.BufferStream) error {
	var err error
	if a.AnimName, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read anim stage: %w", err)
	}
	if a.Notify, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read anim stage: %w", err)
	}
	if a.ForwardType, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read anim stage: %w", err)
	}
	if a.BackType, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read anim stage: %w", err)
	}
	if a.AdvanceType, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read anim stage: %w", err)
	}
	if a.RegressType, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read anim stage: %w", err)
	}
	if a.Loops, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read anim stage: %w", err)
	}
	if a.DoAdvance, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read anim stage: %w", err)
	}
	if a.AdvanceTo, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read anim stage: %w", err)
	}
	if a.DoRegress, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read anim stage: %w", err)
	}
	if a.RegressTo, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read anim stage: %w", err)
	}
	return nil
}

func (a *AnimStage) Write(s *wire.BufferStream) {
	s.WriteSafeString(a.AnimName)
	s.WriteU8(a.Notify)
	s.WriteU32(a.ForwardType)
	s.WriteU32(a.BackType)
	s.WriteU32(a.AdvanceType)
	s.WriteU32(a.RegressType)
	s.WriteU32(a.Loops)
	s.WriteBool(a.DoAdvance)
	s.WriteU32(a.AdvanceTo)
	s.WriteBool(a.DoRegress)
	s.WriteU32(a.RegressTo)
}

// ReadAux reads the runtime position block that follows each stage.
func (a *AnimStage) ReadAux(s *wire.BufferStream) error {
	var err error
	if a.LocalTime, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read anim stage aux: %w", err)
	}
	if a.Length, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read anim stage aux: %w", err)
	}
	if a.CurLoop, err = s.ReadI32(); err != nil {
		return fmt.Errorf("read anim stage aux: %w", err)
	}
	if a.Attached, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read anim stage aux: %w", err)
	}
	return nil
}

// WriteAux writes the runtime position block.
func (a *AnimStage) WriteAux(s *wire.BufferStream) {
	s.WriteF32(a.LocalTime)
	s.WriteF32(a.Length)
	s.WriteI32(a.CurLoop)
	s.WriteBool(a.Attached)
}

// brainBase carries the legacy ArmatureBrain filler block. readBase reads
// and discards its fields; writeBase always emits a zeroed block with no key,
// so values read from the wire are not preserved.
type brainBase struct{}

func (brainBase) isArmatureBrain() {}

func (brainBase) MakeSafeForNet() bool { return true }

func (brainBase) readBase(s *wire.BufferStream) error {
	if _, err := s.ReadU32(); err != nil {
		return fmt.Errorf("read armature brain: %w", err)
	}
	present, err := s.ReadBool()
	if err != nil {
		return fmt.Errorf("read armature brain: %w", err)
	}
	if present {
		var ignored Key
		if err := ignored.Read(s); err != nil {
			return fmt.Errorf("read armature brain: %w", err)
		}
	}
	if _, err := s.ReadU32(); err != nil {
		return fmt.Errorf("read armature brain: %w", err)
	}
	if _, err := s.ReadF32(); err != nil {
		return fmt.Errorf("read armature brain: %w", err)
	}
	if _, err := s.ReadF64(); err != nil {
		return fmt.Errorf("read armature brain: %w", err)
	}
	return nil
}

func (brainBase) writeBase(s *wire.BufferStream) {
	s.WriteU32(0)
	s.WriteBool(false)
	s.WriteU32(0)
	s.WriteF32(0)
	s.WriteF64(0)
}

// AvBrainHuman is the standard walking brain.
type AvBrainHuman struct {
	brainBase
	IsCustomAvatar bool
}

func (b *AvBrainHuman) Type() uint16 { return IDAvBrainHuman }

func (b *AvBrainHuman) Read(s *wire.BufferStream) error {
	if err := b.readBase(s); err != nil {
		return err
	}
	var err error
	if b.IsCustomAvatar, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read human brain: %w", err)
	}
	return nil
}

func (b *AvBrainHuman) Write(s *wire.BufferStream) {
	b.writeBase(s)
	s.WriteBool(b.IsCustomAvatar)
}

// AvBrainClimb, AvBrainCritter, AvBrainDrive, AvBrainSwim and
// AvBrainRideAnimatedPhysical carry no fields beyond the base block.
type AvBrainClimb struct{ brainBase }

func (b *AvBrainClimb) Type() uint16                  { return IDAvBrainClimb }
func (b *AvBrainClimb) Read(s *wire.BufferStream) error { return b.readBase(s) }
func (b *AvBrainClimb) Write(s *wire.BufferStream)      { b.writeBase(s) }

type AvBrainCritter struct{ brainBase }

func (b *AvBrainCritter) Type() uint16                  { return IDAvBrainCritter }
func (b *AvBrainCritter) Read(s *wire.BufferStream) error { return b.readBase(s) }
func (b *AvBrainCritter) Write(s *wire.BufferStream)      { b.writeBase(s) }

type AvBrainDrive struct{ brainBase }

func (b *AvBrainDrive) Type() uint16                  { return IDAvBrainDrive }
func (b *AvBrainDrive) Read(s *wire.BufferStream) error { return b.readBase(s) }
func (b *AvBrainDrive) Write(s *wire.BufferStream)      { b.writeBase(s) }

type AvBrainSwim struct{ brainBase }

func (b *AvBrainSwim) Type() uint16                  { return IDAvBrainSwim }
func (b *AvBrainSwim) Read(s *wire.BufferStream) error { return b.readBase(s) }
func (b *AvBrainSwim) Write(s *wire.BufferStream)      { b.writeBase(s) }

type AvBrainRideAnimatedPhysical struct{ brainBase }

func (b *AvBrainRideAnimatedPhysical) Type() uint16 { return IDAvBrainRideAnimatedPhysical }
func (b *AvBrainRideAnimatedPhysical) Read(s *wire.BufferStream) error { return b.readBase(s) }
func (b *AvBrainRideAnimatedPhysical) Write(s *wire.BufferStream)      { b.writeBase(s) }

// AvBrainGeneric runs a staged animation script. Its start and end messages
// can carry arbitrary nested messages, so the brain is unsafe whenever
// either is present — the client never uses them over the network.
type AvBrainGeneric struct {
	brainBase
	Stages       []*AnimStage
	CurStage     int32
	BrainType    uint32
	ExitFlags    uint32
	Mode         uint8
	Forward      bool
	StartMessage Creatable
	EndMessage   Creatable
	FadeIn       float32
	FadeOut      float32
	MoveMode     uint8
	BodyUsage    uint8
	Recipient    Key
}

func (b *AvBrainGeneric) Type() uint16 { return IDAvBrainGeneric }

func (b *AvBrainGeneric) MakeSafeForNet() bool {
	return b.StartMessage == nil && b.EndMessage == nil
}

func (b *AvBrainGeneric) Read(s *wire.BufferStream) error {
	if err := b.readBase(s); err != nil {
		return err
	}
	count, err := s.ReadU32()
	if err != nil {
		return fmt.Errorf("read generic brain: %w", err)
	}
	b.Stages = make([]*AnimStage, count)
	for i := range b.Stages {
		obj, err := ReadCreatable(s)
		if err != nil {
			return fmt.Errorf("read generic brain stage: %w", err)
		}
		stage, ok := obj.(*AnimStage)
		if !ok {
			return fmt.Errorf("read generic brain: stage %d is not an anim stage", i)
		}
		if err := stage.ReadAux(s); err != nil {
			return err
		}
		b.Stages[i] = stage
	}
	if b.CurStage, err = s.ReadI32(); err != nil {
		return fmt.Errorf("read generic brain: %w", err)
	}
	if b.BrainType, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read generic brain: %w", err)
	}
	if b.ExitFlags, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read generic brain: %w", err)
	}
	if b.Mode, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read generic brain: %w", err)
	}
	if b.Forward, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read generic brain: %w", err)
	}
	hasStart, err := s.ReadBool()
	if err != nil {
		return fmt.Errorf("read generic brain: %w", err)
	}
	if hasStart {
		if b.StartMessage, err = ReadMessage(s); err != nil {
			return fmt.Errorf("read generic brain start message: %w", err)
		}
	} else {
		b.StartMessage = nil
	}
	hasEnd, err := s.ReadBool()
	if err != nil {
		return fmt.Errorf("read generic brain: %w", err)
	}
	if hasEnd {
		if b.EndMessage, err = ReadMessage(s); err != nil {
			return fmt.Errorf("read generic brain end message: %w", err)
		}
	} else {
		b.EndMessage = nil
	}
	if b.FadeIn, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read generic brain: %w", err)
	}
	if b.FadeOut, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read generic brain: %w", err)
	}
	if b.MoveMode, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read generic brain: %w", err)
	}
	if b.BodyUsage, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read generic brain: %w", err)
	}
	if err = b.Recipient.Read(s); err != nil {
		return fmt.Errorf("read generic brain: %w", err)
	}
	return nil
}

func (b *AvBrainGeneric) Write(s *wire.BufferStream) {
	b.writeBase(s)
	s.WriteU32(uint32(len(b.Stages)))
	for _, stage := range b.Stages {
		WriteCreatable(s, stage)
		stage.WriteAux(s)
	}
	s.WriteI32(b.CurStage)
	s.WriteU32(b.BrainType)
	s.WriteU32(b.ExitFlags)
	s.WriteU8(b.Mode)
	s.WriteBool(b.Forward)
	s.WriteBool(b.StartMessage != nil)
	if b.StartMessage != nil {
		WriteCreatable(s, b.StartMessage)
	}
	s.WriteBool(b.EndMessage != nil)
	if b.EndMessage != nil {
		WriteCreatable(s, b.EndMessage)
	}
	s.WriteF32(b.FadeIn)
	s.WriteF32(b.FadeOut)
	s.WriteU8(b.MoveMode)
	s.WriteU8(b.BodyUsage)
	b.Recipient.Write(s)
}

// AvBrainCoop coordinates a two-avatar interaction.
type AvBrainCoop struct {
	AvBrainGeneric
	InitiatorID     uint32
	InitiatorSerial uint16
	Host            Key
	Guest           Key
	WaitingForClick bool
	Recipients      []Key
}

func (b *AvBrainCoop) Type() uint16 { return IDAvBrainCoop }

func (b *AvBrainCoop) Read(s *wire.BufferStream) error {
	if err := b.AvBrainGeneric.Read(s); err != nil {
		return err
	}
	var err error
	if b.InitiatorID, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read coop brain: %w", err)
	}
	if b.InitiatorSerial, err = s.ReadU16(); err != nil {
		return fmt.Errorf("read coop brain: %w", err)
	}
	hasHost, err := s.ReadBool()
	if err != nil {
		return fmt.Errorf("read coop brain: %w", err)
	}
	if hasHost {
		if err = b.Host.Read(s); err != nil {
			return fmt.Errorf("read coop brain: %w", err)
		}
	}
	hasGuest, err := s.ReadBool()
	if err != nil {
		return fmt.Errorf("read coop brain: %w", err)
	}
	if hasGuest {
		if err = b.Guest.Read(s); err != nil {
			return fmt.Errorf("read coop brain: %w", err)
		}
	}
	if b.WaitingForClick, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read coop brain: %w", err)
	}
	count, err := s.ReadU16()
	if err != nil {
		return fmt.Errorf("read coop brain: %w", err)
	}
	b.Recipients = make([]Key, count)
	for i := range b.Recipients {
		if err = b.Recipients[i].Read(s); err != nil {
			return fmt.Errorf("read coop brain recipient: %w", err)
		}
	}
	return nil
}

func (b *AvBrainCoop) Write(s *wire.BufferStream) {
	b.AvBrainGeneric.Write(s)
	s.WriteU32(b.InitiatorID)
	s.WriteU16(b.InitiatorSerial)
	s.WriteBool(!b.Host.IsNull())
	if !b.Host.IsNull() {
		b.Host.Write(s)
	}
	s.WriteBool(!b.Guest.IsNull())
	if !b.Guest.IsNull() {
		b.Guest.Write(s)
	}
	s.WriteBool(b.WaitingForClick)
	s.WriteU16(uint16(len(b.Recipients)))
	for i := range b.Recipients {
		b.Recipients[i].Write(s)
	}
}

// CoopCoordinator pairs a host and guest brain around an accept message.
type CoopCoordinator struct {
	HostKey         Key
	GuestKey        Key
	HostBrain       *AvBrainCoop
	GuestBrain      *AvBrainCoop
	HostOfferStage  uint8
	GuestAcceptStage bool
	AcceptMsg       Creatable
	SynchBone       string
	AutoStartGuest  bool
}

func (c *CoopCoordinator) Type() uint16 { return IDCoopCoordinator }

func (c *CoopCoordinator) MakeSafeForNet() bool {
	if c.AcceptMsg != nil {
		return c.AcceptMsg.MakeSafeForNet()
	}
	return true
}

func (c *CoopCoordinator) Read(s *wire.BufferStream) error {
	if err := c.HostKey.Read(s); err != nil {
		return fmt.Errorf("read coop coordinator: %w", err)
	}
	if err := c.GuestKey.Read(s); err != nil {
		return fmt.Errorf("read coop coordinator: %w", err)
	}
	readBrain := func() (*AvBrainCoop, error) {
		obj, err := ReadCreatable(s)
		if err != nil {
			return nil, err
		}
		if obj == nil {
			return nil, nil
		}
		brain, ok := obj.(*AvBrainCoop)
		if !ok {
			return nil, fmt.Errorf("creatable 0x%04X is not a coop brain", obj.Type())
		}
		return brain, nil
	}
	var err error
	if c.HostBrain, err = readBrain(); err != nil {
		return fmt.Errorf("read coop coordinator: %w", err)
	}
	if c.GuestBrain, err = readBrain(); err != nil {
		return fmt.Errorf("read coop coordinator: %w", err)
	}
	if c.HostOfferStage, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read coop coordinator: %w", err)
	}
	if c.GuestAcceptStage, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read coop coordinator: %w", err)
	}
	hasAccept, err := s.ReadBool()
	if err != nil {
		return fmt.Errorf("read coop coordinator: %w", err)
	}
	if hasAccept {
		if c.AcceptMsg, err = ReadMessage(s); err != nil {
			return fmt.Errorf("read coop coordinator accept message: %w", err)
		}
	} else {
		c.AcceptMsg = nil
	}
	if c.SynchBone, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read coop coordinator: %w", err)
	}
	if c.AutoStartGuest, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read coop coordinator: %w", err)
	}
	return nil
}

func (c *CoopCoordinator) Write(s *wire.BufferStream) {
	c.HostKey.Write(s)
	c.GuestKey.Write(s)
	if c.HostBrain != nil {
		WriteCreatable(s, c.HostBrain)
	} else {
		WriteCreatable(s, nil)
	}
	if c.GuestBrain != nil {
		WriteCreatable(s, c.GuestBrain)
	} else {
		WriteCreatable(s, nil)
	}
	s.WriteU8(c.HostOfferStage)
	s.WriteBool(c.GuestAcceptStage)
	s.WriteBool(c.AcceptMsg != nil)
	if c.AcceptMsg != nil {
		WriteCreatable(s, c.AcceptMsg)
	}
	s.WriteSafeString(c.SynchBone)
	s.WriteBool(c.AutoStartGuest)
}

// AvAnimTask blends an animation on or off.
type AvAnimTask struct {
	AnimName     string
	InitialBlend float32
	TargetBlend  float32
	FadeSpeed    float32
	SetTime      float32
	Start        bool
	Loop         bool
	Attach       bool
}

func (t *AvAnimTask) isAvTask()            {}
func (t *AvAnimTask) Type() uint16         { return IDAvAnimTask }
func (t *AvAnimTask) MakeSafeForNet() bool { return true }

func (t *AvAnimTask) Read(s *wire.BufferStream) error {
	var err error
	if t.AnimName, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read anim task: %w", err)
	}
	if t.InitialBlend, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read anim task: %w", err)
	}
	if t.TargetBlend, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read anim task: %w", err)
	}
	if t.FadeSpeed, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read anim task: %w", err)
	}
	if t.SetTime, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read anim task: %w", err)
	}
	if t.Start, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read anim task: %w", err)
	}
	if t.Loop, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read anim task: %w", err)
	}
	if t.Attach, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read anim task: %w", err)
	}
	return nil
}

func (t *AvAnimTask) Write(s *wire.BufferStream) {
	s.WriteSafeString(t.AnimName)
	s.WriteF32(t.InitialBlend)
	s.WriteF32(t.TargetBlend)
	s.WriteF32(t.FadeSpeed)
	s.WriteF32(t.SetTime)
	s.WriteBool(t.Start)
	s.WriteBool(t.Loop)
	s.WriteBool(t.Attach)
}

// AvOneShotTask has no serialized body.
type AvOneShotTask struct{}

func (t *AvOneShotTask) isAvTask()                       {}
func (t *AvOneShotTask) Type() uint16                    { return IDAvOneShotTask }
func (t *AvOneShotTask) MakeSafeForNet() bool            { return true }
func (t *AvOneShotTask) Read(*wire.BufferStream) error   { return nil }
func (t *AvOneShotTask) Write(*wire.BufferStream)        {}

// AvOneShotLinkTask plays a one-shot while linking.
type AvOneShotLinkTask struct {
	AnimName   string
	MarkerName string
}

func (t *AvOneShotLinkTask) isAvTask()            {}
func (t *AvOneShotLinkTask) Type() uint16         { return IDAvOneShotLinkTask }
func (t *AvOneShotLinkTask) MakeSafeForNet() bool { return true }

func (t *AvOneShotLinkTask) Read(s *wire.BufferStream) error {
	var err error
	if t.AnimName, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read one shot link task: %w", err)
	}
	if t.MarkerName, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read one shot link task: %w", err)
	}
	return nil
}

func (t *AvOneShotLinkTask) Write(s *wire.BufferStream) {
	s.WriteSafeString(t.AnimName)
	s.WriteSafeString(t.MarkerName)
}

// AvSeekTask and AvTaskSeek have no serialized body.
type AvSeekTask struct{}

func (t *AvSeekTask) isAvTask()                     {}
func (t *AvSeekTask) Type() uint16                  { return IDAvSeekTask }
func (t *AvSeekTask) MakeSafeForNet() bool          { return true }
func (t *AvSeekTask) Read(*wire.BufferStream) error { return nil }
func (t *AvSeekTask) Write(*wire.BufferStream)      {}

type AvTaskSeek struct{}

func (t *AvTaskSeek) isAvTask()                     {}
func (t *AvTaskSeek) Type() uint16                  { return IDAvTaskSeek }
func (t *AvTaskSeek) MakeSafeForNet() bool          { return true }
func (t *AvTaskSeek) Read(*wire.BufferStream) error { return nil }
func (t *AvTaskSeek) Write(*wire.BufferStream)      {}

// AvTaskBrain pushes a brain via the task queue. The client never sends one
// over the wire, so the body is rejected on read.
type AvTaskBrain struct {
	Brain armatureBrain
}

func (t *AvTaskBrain) isAvTask()            {}
func (t *AvTaskBrain) Type() uint16         { return IDAvTaskBrain }
func (t *AvTaskBrain) MakeSafeForNet() bool { return false }

func (t *AvTaskBrain) Read(*wire.BufferStream) error {
	return fmt.Errorf("av task brain: not readable from the net")
}

func (t *AvTaskBrain) Write(s *wire.BufferStream) {
	WriteCreatable(s, t.Brain)
}
