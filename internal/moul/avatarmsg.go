package moul

import (
	"fmt"

	"github.com/udisondev/moulgo/internal/wire"
)

// AvTaskMsg queues an avatar task. Tasks from clients are never forwarded.
type AvTaskMsg struct {
	Message
	Task avTask
}

func (m *AvTaskMsg) Type() uint16 { return IDAvTaskMsg }

func (m *AvTaskMsg) MakeSafeForNet() bool { return false }

func (m *AvTaskMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	hasTask, err := s.ReadBool()
	if err != nil {
		return fmt.Errorf("read av task msg: %w", err)
	}
	if hasTask {
		if m.Task, err = readAvTask(s); err != nil {
			return fmt.Errorf("read av task msg: %w", err)
		}
	} else {
		m.Task = nil
	}
	return nil
}

func (m *AvTaskMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteBool(m.Task != nil)
	if m.Task != nil {
		WriteCreatable(s, m.Task)
	}
}

// AvPushBrainMsg pushes a brain onto the avatar stack. Never forwardable.
type AvPushBrainMsg struct {
	AvTaskMsg
	Brain armatureBrain
}

func (m *AvPushBrainMsg) Type() uint16 { return IDAvPushBrainMsg }

func (m *AvPushBrainMsg) MakeSafeForNet() bool { return false }

func (m *AvPushBrainMsg) Read(s *wire.BufferStream) error {
	if err := m.AvTaskMsg.Read(s); err != nil {
		return err
	}
	var err error
	if m.Brain, err = readArmatureBrain(s); err != nil {
		return fmt.Errorf("read av push brain msg: %w", err)
	}
	return nil
}

func (m *AvPushBrainMsg) Write(s *wire.BufferStream) {
	m.AvTaskMsg.Write(s)
	WriteCreatable(s, m.Brain)
}

// AvPopBrainMsg pops the top brain. Inherits the task-message ban.
type AvPopBrainMsg struct {
	AvTaskMsg
}

func (m *AvPopBrainMsg) Type() uint16 { return IDAvPopBrainMsg }

// AvSeekMsg steers an avatar to a point.
type AvSeekMsg struct {
	AvTaskMsg
	SeekPoint  Key
	TargetPos  wire.Vector3
	TargetLook wire.Vector3
	Duration   float32
	SmartSeek  bool
	AnimName   string
	AlignType  uint16
	NoSeek     bool
	Flags      uint8
	FinishKey  Key
}

func (m *AvSeekMsg) Type() uint16 { return IDAvSeekMsg }

func (m *AvSeekMsg) Read(s *wire.BufferStream) error {
	if err := m.AvTaskMsg.Read(s); err != nil {
		return err
	}
	var err error
	if err = m.SeekPoint.Read(s); err != nil {
		return fmt.Errorf("read av seek msg: %w", err)
	}
	if !m.SeekPoint.IsNull() {
		if err = m.TargetPos.Read(s); err != nil {
			return fmt.Errorf("read av seek msg: %w", err)
		}
		if err = m.TargetLook.Read(s); err != nil {
			return fmt.Errorf("read av seek msg: %w", err)
		}
	}
	if m.Duration, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read av seek msg: %w", err)
	}
	if m.SmartSeek, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read av seek msg: %w", err)
	}
	if m.AnimName, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read av seek msg: %w", err)
	}
	if m.AlignType, err = s.ReadU16(); err != nil {
		return fmt.Errorf("read av seek msg: %w", err)
	}
	if m.NoSeek, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read av seek msg: %w", err)
	}
	if m.Flags, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read av seek msg: %w", err)
	}
	if err = m.FinishKey.Read(s); err != nil {
		return fmt.Errorf("read av seek msg: %w", err)
	}
	return nil
}

func (m *AvSeekMsg) Write(s *wire.BufferStream) {
	m.AvTaskMsg.Write(s)
	m.SeekPoint.Write(s)
	if !m.SeekPoint.IsNull() {
		m.TargetPos.Write(s)
		m.TargetLook.Write(s)
	}
	s.WriteF32(m.Duration)
	s.WriteBool(m.SmartSeek)
	s.WriteSafeString(m.AnimName)
	s.WriteU16(m.AlignType)
	s.WriteBool(m.NoSeek)
	s.WriteU8(m.Flags)
	m.FinishKey.Write(s)
}

// AvOneShotMsg plays a one-shot animation after a seek.
type AvOneShotMsg struct {
	AvSeekMsg
	OneShotAnimName string
	Drivable        bool
	Reversible      bool
}

func (m *AvOneShotMsg) Type() uint16 { return IDAvOneShotMsg }

func (m *AvOneShotMsg) Read(s *wire.BufferStream) error {
	if err := m.AvSeekMsg.Read(s); err != nil {
		return err
	}
	var err error
	if m.OneShotAnimName, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read av one shot msg: %w", err)
	}
	if m.Drivable, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read av one shot msg: %w", err)
	}
	if m.Reversible, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read av one shot msg: %w", err)
	}
	return nil
}

func (m *AvOneShotMsg) Write(s *wire.BufferStream) {
	m.AvSeekMsg.Write(s)
	s.WriteSafeString(m.OneShotAnimName)
	s.WriteBool(m.Drivable)
	s.WriteBool(m.Reversible)
}

// AvBrainGenericMsg drives a generic brain's stage machine.
type AvBrainGenericMsg struct {
	Message
	GenType        uint32
	Stage          int32
	SetTime        bool
	NewTime        float32
	SetDirection   bool
	NewDirection   bool
	TransitionTime float32
}

func (m *AvBrainGenericMsg) Type() uint16 { return IDAvBrainGenericMsg }

func (m *AvBrainGenericMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	var err error
	if m.GenType, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read brain generic msg: %w", err)
	}
	if m.Stage, err = s.ReadI32(); err != nil {
		return fmt.Errorf("read brain generic msg: %w", err)
	}
	if m.SetTime, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read brain generic msg: %w", err)
	}
	if m.NewTime, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read brain generic msg: %w", err)
	}
	if m.SetDirection, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read brain generic msg: %w", err)
	}
	if m.NewDirection, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read brain generic msg: %w", err)
	}
	if m.TransitionTime, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read brain generic msg: %w", err)
	}
	return nil
}

func (m *AvBrainGenericMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteU32(m.GenType)
	s.WriteI32(m.Stage)
	s.WriteBool(m.SetTime)
	s.WriteF32(m.NewTime)
	s.WriteBool(m.SetDirection)
	s.WriteBool(m.NewDirection)
	s.WriteF32(m.TransitionTime)
}

// AvCoopMsg starts a coop interaction. Safety defers to the coordinator's
// accept message.
type AvCoopMsg struct {
	Message
	Coordinator     *CoopCoordinator
	InitiatorID     uint32
	InitiatorSerial uint16
	Command         uint16
}

func (m *AvCoopMsg) Type() uint16 { return IDAvCoopMsg }

func (m *AvCoopMsg) MakeSafeForNet() bool {
	if m.Coordinator != nil && m.Coordinator.AcceptMsg != nil {
		return m.Coordinator.AcceptMsg.MakeSafeForNet()
	}
	return true
}

func (m *AvCoopMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	hasCoord, err := s.ReadBool()
	if err != nil {
		return fmt.Errorf("read av coop msg: %w", err)
	}
	if hasCoord {
		obj, err := ReadCreatable(s)
		if err != nil {
			return fmt.Errorf("read av coop msg coordinator: %w", err)
		}
		coord, ok := obj.(*CoopCoordinator)
		if !ok {
			return fmt.Errorf("read av coop msg: creatable is not a coordinator")
		}
		m.Coordinator = coord
	} else {
		m.Coordinator = nil
	}
	if m.InitiatorID, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read av coop msg: %w", err)
	}
	if m.InitiatorSerial, err = s.ReadU16(); err != nil {
		return fmt.Errorf("read av coop msg: %w", err)
	}
	if m.Command, err = s.ReadU16(); err != nil {
		return fmt.Errorf("read av coop msg: %w", err)
	}
	return nil
}

func (m *AvCoopMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteBool(m.Coordinator != nil)
	if m.Coordinator != nil {
		WriteCreatable(s, m.Coordinator)
	}
	s.WriteU32(m.InitiatorID)
	s.WriteU16(m.InitiatorSerial)
	s.WriteU16(m.Command)
}

// AvTaskSeekDoneMsg signals seek completion.
type AvTaskSeekDoneMsg struct {
	Message
	Aborted bool
}

func (m *AvTaskSeekDoneMsg) Type() uint16 { return IDAvTaskSeekDoneMsg }

func (m *AvTaskSeekDoneMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	var err error
	if m.Aborted, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read seek done msg: %w", err)
	}
	return nil
}

func (m *AvTaskSeekDoneMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteBool(m.Aborted)
}

// LoadCloneMsg loads or unloads an object clone.
type LoadCloneMsg struct {
	Message
	CloneKey       Key
	RequestorKey   Key
	OriginPlayerID uint32
	UserData       uint32
	ValidMsg       bool
	IsLoading      bool
	TriggerMsg     Creatable
}

func (m *LoadCloneMsg) Type() uint16 { return IDLoadCloneMsg }

func (m *LoadCloneMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	var err error
	if err = m.CloneKey.Read(s); err != nil {
		return fmt.Errorf("read load clone msg: %w", err)
	}
	if err = m.RequestorKey.Read(s); err != nil {
		return fmt.Errorf("read load clone msg: %w", err)
	}
	if m.OriginPlayerID, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read load clone msg: %w", err)
	}
	if m.UserData, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read load clone msg: %w", err)
	}
	if m.ValidMsg, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read load clone msg: %w", err)
	}
	if m.IsLoading, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read load clone msg: %w", err)
	}
	if m.TriggerMsg, err = ReadMessage(s); err != nil {
		return fmt.Errorf("read load clone msg trigger: %w", err)
	}
	return nil
}

func (m *LoadCloneMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	m.CloneKey.Write(s)
	m.RequestorKey.Write(s)
	s.WriteU32(m.OriginPlayerID)
	s.WriteU32(m.UserData)
	s.WriteBool(m.ValidMsg)
	s.WriteBool(m.IsLoading)
	WriteCreatable(s, m.TriggerMsg)
}

// LoadAvatarMsg loads an avatar clone with an optional initial task.
type LoadAvatarMsg struct {
	LoadCloneMsg
	IsPlayer   bool
	SpawnPoint Key
	InitTask   avTask
	UserString string
}

func (m *LoadAvatarMsg) Type() uint16 { return IDLoadAvatarMsg }

func (m *LoadAvatarMsg) Read(s *wire.BufferStream) error {
	if err := m.LoadCloneMsg.Read(s); err != nil {
		return err
	}
	var err error
	if m.IsPlayer, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read load avatar msg: %w", err)
	}
	if err = m.SpawnPoint.Read(s); err != nil {
		return fmt.Errorf("read load avatar msg: %w", err)
	}
	hasTask, err := s.ReadBool()
	if err != nil {
		return fmt.Errorf("read load avatar msg: %w", err)
	}
	if hasTask {
		if m.InitTask, err = readAvTask(s); err != nil {
			return fmt.Errorf("read load avatar msg: %w", err)
		}
	} else {
		m.InitTask = nil
	}
	if m.UserString, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read load avatar msg: %w", err)
	}
	return nil
}

func (m *LoadAvatarMsg) Write(s *wire.BufferStream) {
	m.LoadCloneMsg.Write(s)
	s.WriteBool(m.IsPlayer)
	m.SpawnPoint.Write(s)
	s.WriteBool(m.InitTask != nil)
	if m.InitTask != nil {
		WriteCreatable(s, m.InitTask)
	}
	s.WriteSafeString(m.UserString)
}
