package moul

import (
	"fmt"

	"github.com/udisondev/moulgo/internal/wire"
)

// MessageWithCallbacks carries nested callback messages; safety recurses
// into every callback. It is the base of AnimCmdMsg.
type MessageWithCallbacks struct {
	Message
	Callbacks []Creatable
}

func (m *MessageWithCallbacks) MakeSafeForNet() bool {
	for _, cb := range m.Callbacks {
		if cb != nil && !cb.MakeSafeForNet() {
			return false
		}
	}
	return true
}

func (m *MessageWithCallbacks) readCallbacks(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	count, err := s.ReadU32()
	if err != nil {
		return fmt.Errorf("read callbacks: %w", err)
	}
	m.Callbacks = make([]Creatable, count)
	for i := range m.Callbacks {
		if m.Callbacks[i], err = ReadMessage(s); err != nil {
			return fmt.Errorf("read callback %d: %w", i, err)
		}
	}
	return nil
}

func (m *MessageWithCallbacks) writeCallbacks(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteU32(uint32(len(m.Callbacks)))
	for _, cb := range m.Callbacks {
		WriteCreatable(s, cb)
	}
}

// AnimCmdMsg drives an animation time-convert with callbacks.
type AnimCmdMsg struct {
	MessageWithCallbacks
	Cmd             wire.BitVector
	Begin, End      float32
	LoopEnd         float32
	LoopBegin       float32
	Speed           float32
	SpeedChangeRate float32
	Time            float32
	AnimName        string
	LoopName        string
}

func (m *AnimCmdMsg) Type() uint16 { return IDAnimCmdMsg }

func (m *AnimCmdMsg) Read(s *wire.BufferStream) error {
	if err := m.readCallbacks(s); err != nil {
		return err
	}
	if err := m.Cmd.Read(s); err != nil {
		return fmt.Errorf("read anim cmd msg: %w", err)
	}
	var err error
	if m.Begin, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read anim cmd msg: %w", err)
	}
	if m.End, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read anim cmd msg: %w", err)
	}
	if m.LoopEnd, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read anim cmd msg: %w", err)
	}
	if m.LoopBegin, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read anim cmd msg: %w", err)
	}
	if m.Speed, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read anim cmd msg: %w", err)
	}
	if m.SpeedChangeRate, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read anim cmd msg: %w", err)
	}
	if m.Time, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read anim cmd msg: %w", err)
	}
	if m.AnimName, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read anim cmd msg: %w", err)
	}
	if m.LoopName, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read anim cmd msg: %w", err)
	}
	return nil
}

func (m *AnimCmdMsg) Write(s *wire.BufferStream) {
	m.writeCallbacks(s)
	m.Cmd.Write(s)
	s.WriteF32(m.Begin)
	s.WriteF32(m.End)
	s.WriteF32(m.LoopEnd)
	s.WriteF32(m.LoopBegin)
	s.WriteF32(m.Speed)
	s.WriteF32(m.SpeedChangeRate)
	s.WriteF32(m.Time)
	s.WriteSafeString(m.AnimName)
	s.WriteSafeString(m.LoopName)
}
