package moul

import (
	"fmt"

	"github.com/udisondev/moulgo/internal/wire"
)

// Event types carried by NotifyMsg.
const (
	EvtInvalid int32 = iota
	EvtCollision
	EvtPicked
	EvtControlKey
	EvtVariable
	EvtFacing
	EvtContained
	EvtActivate
	EvtCallback
	EvtResponderState
	EvtMultiStage
	EvtSpawned
	EvtClickDrag
	EvtCoop
	EvtOfferLinkBook
	EvtBook
	EvtClimbingBlockerHit
	EvtNone
)

// Variable event payload types.
const (
	EvtDataNumber int32 = iota
	EvtDataKey
	EvtDataNone
)

// EventData is one notification record. The wire form is a u32 event type
// followed by the per-type body.
type EventData struct {
	EventType int32

	// Collision / Contained
	Enter bool
	First Key
	Second Key

	// Picked
	Enabled  bool
	HitPoint wire.Vector3

	// ControlKey / Callback / ResponderState
	IntValue int32
	Down     bool

	// Variable
	Name     string
	DataType int32
	Number   float32
	VarKey   Key

	// Facing
	Dot float32

	// MultiStage
	Stage, StageEvent int32
	Avatar            Key

	// Activate
	Active, Activate bool
}

// ReadEventData reads one tagged event record.
func ReadEventData(s *wire.BufferStream) (*EventData, error) {
	evtType, err := s.ReadI32()
	if err != nil {
		return nil, fmt.Errorf("read event data: %w", err)
	}
	ev := &EventData{EventType: evtType}
	switch evtType {
	case EvtCollision:
		if ev.Enter, err = s.ReadBool(); err != nil {
			return nil, fmt.Errorf("read collision event: %w", err)
		}
		if err = ev.First.Read(s); err != nil {
			return nil, fmt.Errorf("read collision event: %w", err)
		}
		if err = ev.Second.Read(s); err != nil {
			return nil, fmt.Errorf("read collision event: %w", err)
		}
	case EvtPicked:
		if err = ev.First.Read(s); err != nil {
			return nil, fmt.Errorf("read picked event: %w", err)
		}
		if err = ev.Second.Read(s); err != nil {
			return nil, fmt.Errorf("read picked event: %w", err)
		}
		if ev.Enabled, err = s.ReadBool(); err != nil {
			return nil, fmt.Errorf("read picked event: %w", err)
		}
		if err = ev.HitPoint.Read(s); err != nil {
			return nil, fmt.Errorf("read picked event: %w", err)
		}
	case EvtControlKey:
		if ev.IntValue, err = s.ReadI32(); err != nil {
			return nil, fmt.Errorf("read control key event: %w", err)
		}
		if ev.Down, err = s.ReadBool(); err != nil {
			return nil, fmt.Errorf("read control key event: %w", err)
		}
	case EvtVariable:
		if ev.Name, err = s.ReadSafeString(); err != nil {
			return nil, fmt.Errorf("read variable event: %w", err)
		}
		if ev.DataType, err = s.ReadI32(); err != nil {
			return nil, fmt.Errorf("read variable event: %w", err)
		}
		if ev.Number, err = s.ReadF32(); err != nil {
			return nil, fmt.Errorf("read variable event: %w", err)
		}
		if err = ev.VarKey.Read(s); err != nil {
			return nil, fmt.Errorf("read variable event: %w", err)
		}
	case EvtFacing:
		if err = ev.First.Read(s); err != nil {
			return nil, fmt.Errorf("read facing event: %w", err)
		}
		if err = ev.Second.Read(s); err != nil {
			return nil, fmt.Errorf("read facing event: %w", err)
		}
		if ev.Dot, err = s.ReadF32(); err != nil {
			return nil, fmt.Errorf("read facing event: %w", err)
		}
		if ev.Enabled, err = s.ReadBool(); err != nil {
			return nil, fmt.Errorf("read facing event: %w", err)
		}
	case EvtContained:
		if err = ev.First.Read(s); err != nil {
			return nil, fmt.Errorf("read contained event: %w", err)
		}
		if err = ev.Second.Read(s); err != nil {
			return nil, fmt.Errorf("read contained event: %w", err)
		}
		if ev.Enter, err = s.ReadBool(); err != nil {
			return nil, fmt.Errorf("read contained event: %w", err)
		}
	case EvtActivate:
		if ev.Active, err = s.ReadBool(); err != nil {
			return nil, fmt.Errorf("read activate event: %w", err)
		}
		if ev.Activate, err = s.ReadBool(); err != nil {
			return nil, fmt.Errorf("read activate event: %w", err)
		}
	case EvtCallback:
		if ev.IntValue, err = s.ReadI32(); err != nil {
			return nil, fmt.Errorf("read callback event: %w", err)
		}
	case EvtResponderState:
		if ev.IntValue, err = s.ReadI32(); err != nil {
			return nil, fmt.Errorf("read responder state event: %w", err)
		}
	case EvtMultiStage:
		if ev.Stage, err = s.ReadI32(); err != nil {
			return nil, fmt.Errorf("read multistage event: %w", err)
		}
		if ev.StageEvent, err = s.ReadI32(); err != nil {
			return nil, fmt.Errorf("read multistage event: %w", err)
		}
		if err = ev.Avatar.Read(s); err != nil {
			return nil, fmt.Errorf("read multistage event: %w", err)
		}
	case EvtSpawned:
		if err = ev.First.Read(s); err != nil {
			return nil, fmt.Errorf("read spawned event: %w", err)
		}
		if err = ev.Second.Read(s); err != nil {
			return nil, fmt.Errorf("read spawned event: %w", err)
		}
	case EvtClickDrag, EvtCoop, EvtOfferLinkBook, EvtBook, EvtClimbingBlockerHit:
		// These variants are not decoded; a record of any of them fails
		// the read.
		return nil, fmt.Errorf("read event data: unsupported event type %d", evtType)
	default:
		return nil, fmt.Errorf("read event data: unknown event type %d", evtType)
	}
	return ev, nil
}

// Write writes the tagged record back out.
func (ev *EventData) Write(s *wire.BufferStream) {
	s.WriteI32(ev.EventType)
	switch ev.EventType {
	case EvtCollision:
		s.WriteBool(ev.Enter)
		ev.First.Write(s)
		ev.Second.Write(s)
	case EvtPicked:
		ev.First.Write(s)
		ev.Second.Write(s)
		s.WriteBool(ev.Enabled)
		ev.HitPoint.Write(s)
	case EvtControlKey:
		s.WriteI32(ev.IntValue)
		s.WriteBool(ev.Down)
	case EvtVariable:
		s.WriteSafeString(ev.Name)
		s.WriteI32(ev.DataType)
		s.WriteF32(ev.Number)
		ev.VarKey.Write(s)
	case EvtFacing:
		ev.First.Write(s)
		ev.Second.Write(s)
		s.WriteF32(ev.Dot)
		s.WriteBool(ev.Enabled)
	case EvtContained:
		ev.First.Write(s)
		ev.Second.Write(s)
		s.WriteBool(ev.Enter)
	case EvtActivate:
		s.WriteBool(ev.Active)
		s.WriteBool(ev.Activate)
	case EvtCallback, EvtResponderState:
		s.WriteI32(ev.IntValue)
	case EvtMultiStage:
		s.WriteI32(ev.Stage)
		s.WriteI32(ev.StageEvent)
		ev.Avatar.Write(s)
	case EvtSpawned:
		ev.First.Write(s)
		ev.Second.Write(s)
	}
}

// NotifyMsg delivers activator and responder notifications.
type NotifyMsg struct {
	Message
	NotifyType int32
	ID         int32
	State      float32
	Events     []*EventData
}

func (m *NotifyMsg) Type() uint16 { return IDNotifyMsg }

func (m *NotifyMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	var err error
	if m.NotifyType, err = s.ReadI32(); err != nil {
		return fmt.Errorf("read notify msg: %w", err)
	}
	if m.State, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read notify msg: %w", err)
	}
	if m.ID, err = s.ReadI32(); err != nil {
		return fmt.Errorf("read notify msg: %w", err)
	}
	count, err := s.ReadU32()
	if err != nil {
		return fmt.Errorf("read notify msg: %w", err)
	}
	m.Events = make([]*EventData, count)
	for i := range m.Events {
		if m.Events[i], err = ReadEventData(s); err != nil {
			return fmt.Errorf("read notify msg: %w", err)
		}
	}
	return nil
}

func (m *NotifyMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteI32(m.NotifyType)
	s.WriteF32(m.State)
	s.WriteI32(m.ID)
	s.WriteU32(uint32(len(m.Events)))
	for _, ev := range m.Events {
		ev.Write(s)
	}
}
