package moul

import (
	"fmt"

	"github.com/udisondev/moulgo/internal/wire"
)

// NetMsgGameMessage wraps a game message in a compressible stream body.
type NetMsgGameMessage struct {
	NetMessage
	Compression  uint8
	Msg          Creatable
	DeliveryTime wire.UnifiedTime
}

func (m *NetMsgGameMessage) Type() uint16 { return IDNetMsgGameMessage }

func (m *NetMsgGameMessage) readGameMessage(s *wire.BufferStream) error {
	if err := m.readNetBase(s); err != nil {
		return err
	}
	var stream NetMsgStream
	if err := stream.Read(s); err != nil {
		return fmt.Errorf("read game message: %w", err)
	}
	m.Compression = stream.Compression

	body := wire.FromBytes(stream.Data)
	var err error
	if m.Msg, err = ReadMessage(body); err != nil {
		return fmt.Errorf("read game message body: %w", err)
	}

	hasDelivery, err := s.ReadBool()
	if err != nil {
		return fmt.Errorf("read game message: %w", err)
	}
	if hasDelivery {
		if err := m.DeliveryTime.Read(s); err != nil {
			return fmt.Errorf("read game message: %w", err)
		}
	} else {
		m.DeliveryTime = wire.UnifiedTime{}
	}
	return nil
}

func (m *NetMsgGameMessage) writeGameMessage(s *wire.BufferStream) {
	m.writeNetBase(s)

	body := wire.NewBufferStream(256)
	WriteCreatable(body, m.Msg)
	stream := NetMsgStream{Compression: m.Compression, Data: body.Bytes()}
	stream.Write(s)

	if !m.DeliveryTime.IsNull() {
		s.WriteBool(true)
		m.DeliveryTime.Write(s)
	} else {
		s.WriteBool(false)
	}
}

func (m *NetMsgGameMessage) Read(s *wire.BufferStream) error { return m.readGameMessage(s) }

func (m *NetMsgGameMessage) Write(s *wire.BufferStream) { m.writeGameMessage(s) }

// NetMsgGameMessageDirected targets a game message at specific players.
type NetMsgGameMessageDirected struct {
	NetMsgGameMessage
	Receivers []uint32
}

func (m *NetMsgGameMessageDirected) Type() uint16 { return IDNetMsgGameMessageDirected }

func (m *NetMsgGameMessageDirected) Read(s *wire.BufferStream) error {
	if err := m.readGameMessage(s); err != nil {
		return err
	}
	count, err := s.ReadU8()
	if err != nil {
		return fmt.Errorf("read directed game message: %w", err)
	}
	m.Receivers = make([]uint32, count)
	for i := range m.Receivers {
		if m.Receivers[i], err = s.ReadU32(); err != nil {
			return fmt.Errorf("read directed game message: %w", err)
		}
	}
	return nil
}

func (m *NetMsgGameMessageDirected) Write(s *wire.BufferStream) {
	m.writeGameMessage(s)
	s.WriteU8(uint8(len(m.Receivers)))
	for _, r := range m.Receivers {
		s.WriteU32(r)
	}
}

// NetMsgLoadClone carries a clone load alongside the embedded game message.
type NetMsgLoadClone struct {
	NetMsgGameMessage
	Object         Uoid
	IsPlayer       bool
	IsLoading      bool
	IsInitialState bool
}

func (m *NetMsgLoadClone) Type() uint16 { return IDNetMsgLoadClone }

func (m *NetMsgLoadClone) Read(s *wire.BufferStream) error {
	if err := m.readGameMessage(s); err != nil {
		return err
	}
	if err := m.Object.Read(s); err != nil {
		return fmt.Errorf("read load clone: %w", err)
	}
	var err error
	if m.IsPlayer, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read load clone: %w", err)
	}
	if m.IsLoading, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read load clone: %w", err)
	}
	if m.IsInitialState, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read load clone: %w", err)
	}
	return nil
}

func (m *NetMsgLoadClone) Write(s *wire.BufferStream) {
	m.writeGameMessage(s)
	m.Object.Write(s)
	s.WriteBool(m.IsPlayer)
	s.WriteBool(m.IsLoading)
	s.WriteBool(m.IsInitialState)
}

// NetMsgPlayerPage announces an avatar paging in or out.
type NetMsgPlayerPage struct {
	NetMessage
	Unload uint8
	Uoid   Uoid
}

func (m *NetMsgPlayerPage) Type() uint16 { return IDNetMsgPlayerPage }

func (m *NetMsgPlayerPage) Read(s *wire.BufferStream) error {
	if err := m.readNetBase(s); err != nil {
		return err
	}
	var err error
	if m.Unload, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read player page: %w", err)
	}
	return m.Uoid.Read(s)
}

func (m *NetMsgPlayerPage) Write(s *wire.BufferStream) {
	m.writeNetBase(s)
	s.WriteU8(m.Unload)
	m.Uoid.Write(s)
}

// NetMsgVoice is compressed voice data for a set of receivers.
type NetMsgVoice struct {
	NetMessage
	Flags     uint8
	Frames    uint8
	Data      []byte
	Receivers []uint32
}

func (m *NetMsgVoice) Type() uint16 { return IDNetMsgVoice }

func (m *NetMsgVoice) Read(s *wire.BufferStream) error {
	if err := m.readNetBase(s); err != nil {
		return err
	}
	var err error
	if m.Flags, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read voice: %w", err)
	}
	if m.Frames, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read voice: %w", err)
	}
	length, err := s.ReadU16()
	if err != nil {
		return fmt.Errorf("read voice: %w", err)
	}
	if m.Data, err = s.ReadBytes(int(length)); err != nil {
		return fmt.Errorf("read voice: %w", err)
	}
	count, err := s.ReadU8()
	if err != nil {
		return fmt.Errorf("read voice: %w", err)
	}
	m.Receivers = make([]uint32, count)
	for i := range m.Receivers {
		if m.Receivers[i], err = s.ReadU32(); err != nil {
			return fmt.Errorf("read voice: %w", err)
		}
	}
	return nil
}

func (m *NetMsgVoice) Write(s *wire.BufferStream) {
	m.writeNetBase(s)
	s.WriteU8(m.Flags)
	s.WriteU8(m.Frames)
	s.WriteU16(uint16(len(m.Data)))
	s.WriteBytes(m.Data)
	s.WriteU8(uint8(len(m.Receivers)))
	for _, r := range m.Receivers {
		s.WriteU32(r)
	}
}

// NetMsgTestAndSet requests a shared-state lock. The state body is opaque to
// the server; it is preserved for the round trip.
type NetMsgTestAndSet struct {
	NetMsgObject
	State       NetMsgStream
	LockRequest uint8
}

func (m *NetMsgTestAndSet) Type() uint16 { return IDNetMsgTestAndSet }

func (m *NetMsgTestAndSet) Read(s *wire.BufferStream) error {
	if err := m.readObject(s); err != nil {
		return err
	}
	if err := m.State.Read(s); err != nil {
		return fmt.Errorf("read test and set: %w", err)
	}
	var err error
	if m.LockRequest, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read test and set: %w", err)
	}
	return nil
}

func (m *NetMsgTestAndSet) Write(s *wire.BufferStream) {
	m.writeObject(s)
	m.State.Write(s)
	s.WriteU8(m.LockRequest)
}

// NetMsgRelevanceRegions updates the client's relevance region sets.
type NetMsgRelevanceRegions struct {
	NetMessage
	RegionsICareAbout wire.BitVector
	RegionsIAmIn      wire.BitVector
}

func (m *NetMsgRelevanceRegions) Type() uint16 { return IDNetMsgRelevanceRegions }

func (m *NetMsgRelevanceRegions) Read(s *wire.BufferStream) error {
	if err := m.readNetBase(s); err != nil {
		return err
	}
	if err := m.RegionsICareAbout.Read(s); err != nil {
		return fmt.Errorf("read relevance regions: %w", err)
	}
	if err := m.RegionsIAmIn.Read(s); err != nil {
		return fmt.Errorf("read relevance regions: %w", err)
	}
	return nil
}

func (m *NetMsgRelevanceRegions) Write(s *wire.BufferStream) {
	m.writeNetBase(s)
	m.RegionsICareAbout.Write(s)
	m.RegionsIAmIn.Write(s)
}
