package moul

import (
	"fmt"

	"github.com/udisondev/moulgo/internal/wire"
)

// NetMsgSDLState carries an SDL blob for one object. The blob travels in a
// compressible stream body.
type NetMsgSDLState struct {
	NetMsgObject
	Compression     uint8
	SDLBlob         []byte
	IsInitial       bool
	PersistOnServer bool
	IsAvatar        bool
}

func (m *NetMsgSDLState) Type() uint16 { return IDNetMsgSDLState }

func (m *NetMsgSDLState) readSDL(s *wire.BufferStream) error {
	if err := m.readObject(s); err != nil {
		return err
	}
	var stream NetMsgStream
	if err := stream.Read(s); err != nil {
		return fmt.Errorf("read sdl state: %w", err)
	}
	m.Compression = stream.Compression
	m.SDLBlob = stream.Data

	var err error
	if m.IsInitial, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read sdl state: %w", err)
	}
	if m.PersistOnServer, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read sdl state: %w", err)
	}
	if m.IsAvatar, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read sdl state: %w", err)
	}
	return nil
}

func (m *NetMsgSDLState) writeSDL(s *wire.BufferStream) {
	m.writeObject(s)
	stream := NetMsgStream{Compression: m.Compression, Data: m.SDLBlob}
	stream.Write(s)
	s.WriteBool(m.IsInitial)
	s.WriteBool(m.PersistOnServer)
	s.WriteBool(m.IsAvatar)
}

func (m *NetMsgSDLState) Read(s *wire.BufferStream) error { return m.readSDL(s) }

func (m *NetMsgSDLState) Write(s *wire.BufferStream) { m.writeSDL(s) }

// NetMsgSDLStateBCast is an SDL state the sender wants rebroadcast.
type NetMsgSDLStateBCast struct {
	NetMsgSDLState
}

func (m *NetMsgSDLStateBCast) Type() uint16 { return IDNetMsgSDLStateBCast }
