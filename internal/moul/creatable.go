// Package moul implements the closed registry of polymorphic wire objects
// shared with the legacy client, including the game message tree, the net
// message tree and the safety filter applied before propagating client
// content to other clients.
package moul

import (
	"errors"
	"fmt"

	"github.com/udisondev/moulgo/internal/wire"
)

// NullType is the reserved wire sentinel for a null creatable.
const NullType uint16 = 0x8000

// ErrUnknownType reports a type id missing from the registry.
var ErrUnknownType = errors.New("unknown creatable type")

// Creatable is any polymorphic serializable object. Ownership follows the
// channel discipline: whoever last took a message off a channel owns it, and
// nested creatables are owned by their parent.
type Creatable interface {
	Type() uint16
	Read(s *wire.BufferStream) error
	Write(s *wire.BufferStream)

	// MakeSafeForNet reports whether the object may be forwarded to other
	// clients, scrubbing privileged content where possible. Composite
	// objects recurse and AND the results.
	MakeSafeForNet() bool
}

// Creatable type ids, following the legacy client's class-index table.
const (
	// Game messages
	IDAnimCmdMsg            uint16 = 0x0206
	IDInputEventMsg         uint16 = 0x0207
	IDControlEventMsg       uint16 = 0x0208
	IDWarpMsg               uint16 = 0x0209
	IDLoadCloneMsg          uint16 = 0x0253
	IDEnableMsg             uint16 = 0x0255
	IDServerReplyMsg        uint16 = 0x026F
	IDAvTaskMsg             uint16 = 0x0298
	IDAvSeekMsg             uint16 = 0x0297
	IDAvOneShotMsg          uint16 = 0x0299
	IDAvPushBrainMsg        uint16 = 0x029A
	IDAvPopBrainMsg         uint16 = 0x029B
	IDClimbMsg              uint16 = 0x02F2
	IDClothingMsg           uint16 = 0x02E3
	IDLinkToAgeMsg          uint16 = 0x02E6
	IDNotifyMsg             uint16 = 0x02ED
	IDLinkEffectsTriggerMsg uint16 = 0x0300
	IDAvCoopMsg             uint16 = 0x0302
	IDMultistageModMsg      uint16 = 0x0305
	IDParticleTransferMsg   uint16 = 0x0332
	IDParticleKillMsg       uint16 = 0x0333
	IDAvatarInputStateMsg   uint16 = 0x0347
	IDInputIfaceMgrMsg      uint16 = 0x0349
	IDBackdoorMsg           uint16 = 0x035C
	IDAvTaskSeekDoneMsg     uint16 = 0x0363
	IDKIMessage             uint16 = 0x0364
	IDBulletMsg             uint16 = 0x0366
	IDAvBrainGenericMsg     uint16 = 0x038F
	IDPseudoLinkEffectMsg   uint16 = 0x03A0
	IDLinkingMgrMsg         uint16 = 0x03B0
	IDLoadAvatarMsg         uint16 = 0x03B1
	IDSetNetGroupIdMsg      uint16 = 0x02B2
	IDSubWorldMsg           uint16 = 0x03BF

	// Avatar support objects
	IDAnimStage      uint16 = 0x00F9
	IDAvBrainHuman   uint16 = 0x00F7
	IDAvBrainClimb   uint16 = 0x00FA
	IDAvBrainCritter uint16 = 0x00FB
	IDAvBrainDrive   uint16 = 0x00FC
	IDAvBrainSwim    uint16 = 0x00FD
	IDAvBrainRideAnimatedPhysical uint16 = 0x049E
	IDAvBrainGeneric uint16 = 0x0360
	IDAvBrainCoop    uint16 = 0x0301
	IDCoopCoordinator uint16 = 0x0303
	IDAvAnimTask      uint16 = 0x01F0
	IDAvOneShotTask   uint16 = 0x01F1
	IDAvOneShotLinkTask uint16 = 0x0488
	IDAvSeekTask      uint16 = 0x01F3
	IDAvTaskBrain     uint16 = 0x01F5
	IDAvTaskSeek      uint16 = 0x0390

	// Link structures
	IDAgeInfoStruct uint16 = 0x02E7
	IDAgeLinkStruct uint16 = 0x02E8

	// Net messages
	IDNetMsgPagingRoom          uint16 = 0x0218
	IDNetMsgGroupOwner          uint16 = 0x0264
	IDNetMsgGameStateRequest    uint16 = 0x0265
	IDNetMsgGameMessage         uint16 = 0x026B
	IDNetMsgVoice               uint16 = 0x0279
	IDNetMsgTestAndSet          uint16 = 0x027D
	IDNetMsgMembersListReq      uint16 = 0x02AD
	IDNetMsgMembersList         uint16 = 0x02AE
	IDNetMsgMemberUpdate        uint16 = 0x02B1
	IDNetMsgInitialAgeStateSent uint16 = 0x02B8
	IDNetMsgSDLState            uint16 = 0x02C8
	IDNetMsgSDLStateBCast       uint16 = 0x0329
	IDNetMsgGameMessageDirected uint16 = 0x032E
	IDNetMsgRelevanceRegions    uint16 = 0x03AC
	IDNetMsgLoadClone           uint16 = 0x03B3
	IDNetMsgPlayerPage          uint16 = 0x03B4
)

// Create instantiates a creatable by type id. NullType yields nil, nil.
func Create(typeID uint16) (Creatable, error) {
	if typeID == NullType {
		return nil, nil
	}
	switch typeID {
	case IDAnimCmdMsg:
		return &AnimCmdMsg{}, nil
	case IDInputEventMsg:
		return &InputEventMsg{}, nil
	case IDControlEventMsg:
		return &ControlEventMsg{}, nil
	case IDWarpMsg:
		return &WarpMsg{}, nil
	case IDLoadCloneMsg:
		return &LoadCloneMsg{}, nil
	case IDEnableMsg:
		return &EnableMsg{}, nil
	case IDServerReplyMsg:
		return &ServerReplyMsg{}, nil
	case IDAvTaskMsg:
		return &AvTaskMsg{}, nil
	case IDAvSeekMsg:
		return &AvSeekMsg{}, nil
	case IDAvOneShotMsg:
		return &AvOneShotMsg{}, nil
	case IDAvPushBrainMsg:
		return &AvPushBrainMsg{}, nil
	case IDAvPopBrainMsg:
		return &AvPopBrainMsg{}, nil
	case IDClimbMsg:
		return &ClimbMsg{}, nil
	case IDClothingMsg:
		return &ClothingMsg{}, nil
	case IDLinkToAgeMsg:
		return &LinkToAgeMsg{}, nil
	case IDNotifyMsg:
		return &NotifyMsg{}, nil
	case IDLinkEffectsTriggerMsg:
		return &LinkEffectsTriggerMsg{}, nil
	case IDAvCoopMsg:
		return &AvCoopMsg{}, nil
	case IDMultistageModMsg:
		return &MultistageModMsg{}, nil
	case IDParticleTransferMsg:
		return &ParticleTransferMsg{}, nil
	case IDParticleKillMsg:
		return &ParticleKillMsg{}, nil
	case IDAvatarInputStateMsg:
		return &AvatarInputStateMsg{}, nil
	case IDInputIfaceMgrMsg:
		return &InputIfaceMgrMsg{}, nil
	case IDBackdoorMsg:
		return &BackdoorMsg{}, nil
	case IDAvTaskSeekDoneMsg:
		return &AvTaskSeekDoneMsg{}, nil
	case IDKIMessage:
		return &KIMessage{}, nil
	case IDBulletMsg:
		return &BulletMsg{}, nil
	case IDAvBrainGenericMsg:
		return &AvBrainGenericMsg{}, nil
	case IDPseudoLinkEffectMsg:
		return &PseudoLinkEffectMsg{}, nil
	case IDLinkingMgrMsg:
		return &LinkingMgrMsg{}, nil
	case IDLoadAvatarMsg:
		return &LoadAvatarMsg{}, nil
	case IDSetNetGroupIdMsg:
		return &SetNetGroupIdMsg{}, nil
	case IDSubWorldMsg:
		return &SubWorldMsg{}, nil

	case IDAnimStage:
		return &AnimStage{}, nil
	case IDAvBrainHuman:
		return &AvBrainHuman{}, nil
	case IDAvBrainClimb:
		return &AvBrainClimb{}, nil
	case IDAvBrainCritter:
		return &AvBrainCritter{}, nil
	case IDAvBrainDrive:
		return &AvBrainDrive{}, nil
	case IDAvBrainSwim:
		return &AvBrainSwim{}, nil
	case IDAvBrainRideAnimatedPhysical:
		return &AvBrainRideAnimatedPhysical{}, nil
	case IDAvBrainGeneric:
		return &AvBrainGeneric{}, nil
	case IDAvBrainCoop:
		return &AvBrainCoop{}, nil
	case IDCoopCoordinator:
		return &CoopCoordinator{}, nil
	case IDAvAnimTask:
		return &AvAnimTask{}, nil
	case IDAvOneShotTask:
		return &AvOneShotTask{}, nil
	case IDAvOneShotLinkTask:
		return &AvOneShotLinkTask{}, nil
	case IDAvSeekTask:
		return &AvSeekTask{}, nil
	case IDAvTaskBrain:
		return &AvTaskBrain{}, nil
	case IDAvTaskSeek:
		return &AvTaskSeek{}, nil

	case IDAgeInfoStruct:
		return &AgeInfoStruct{}, nil
	case IDAgeLinkStruct:
		return &AgeLinkStruct{}, nil

	case IDNetMsgPagingRoom:
		return &NetMsgPagingRoom{}, nil
	case IDNetMsgGroupOwner:
		return &NetMsgGroupOwner{}, nil
	case IDNetMsgGameStateRequest:
		return &NetMsgGameStateRequest{}, nil
	case IDNetMsgGameMessage:
		return &NetMsgGameMessage{}, nil
	case IDNetMsgVoice:
		return &NetMsgVoice{}, nil
	case IDNetMsgTestAndSet:
		return &NetMsgTestAndSet{}, nil
	case IDNetMsgMembersListReq:
		return &NetMsgMembersListReq{}, nil
	case IDNetMsgMembersList:
		return &NetMsgMembersList{}, nil
	case IDNetMsgMemberUpdate:
		return &NetMsgMemberUpdate{}, nil
	case IDNetMsgInitialAgeStateSent:
		return &NetMsgInitialAgeStateSent{}, nil
	case IDNetMsgSDLState:
		return &NetMsgSDLState{}, nil
	case IDNetMsgSDLStateBCast:
		return &NetMsgSDLStateBCast{}, nil
	case IDNetMsgGameMessageDirected:
		return &NetMsgGameMessageDirected{}, nil
	case IDNetMsgRelevanceRegions:
		return &NetMsgRelevanceRegions{}, nil
	case IDNetMsgLoadClone:
		return &NetMsgLoadClone{}, nil
	case IDNetMsgPlayerPage:
		return &NetMsgPlayerPage{}, nil

	default:
		return nil, fmt.Errorf("%w: 0x%04X", ErrUnknownType, typeID)
	}
}

// ReadCreatable reads a u16 type id and the object body. A NullType id
// yields nil, nil.
func ReadCreatable(s *wire.BufferStream) (Creatable, error) {
	typeID, err := s.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("read creatable type: %w", err)
	}
	obj, err := Create(typeID)
	if err != nil || obj == nil {
		return nil, err
	}
	if err := obj.Read(s); err != nil {
		return nil, fmt.Errorf("read creatable 0x%04X: %w", typeID, err)
	}
	return obj, nil
}

// WriteCreatable writes the type id and body, or the null sentinel.
func WriteCreatable(s *wire.BufferStream, obj Creatable) {
	if obj == nil {
		s.WriteU16(NullType)
		return
	}
	s.WriteU16(obj.Type())
	obj.Write(s)
}

// ReadMessage reads a creatable and requires it to be part of the game
// message tree (or null).
func ReadMessage(s *wire.BufferStream) (Creatable, error) {
	obj, err := ReadCreatable(s)
	if err != nil || obj == nil {
		return obj, err
	}
	if _, ok := obj.(messageCreatable); !ok {
		return nil, fmt.Errorf("creatable 0x%04X is not a message", obj.Type())
	}
	return obj, nil
}

// messageCreatable marks members of the game message tree.
type messageCreatable interface {
	Creatable
	isMessage()
}
