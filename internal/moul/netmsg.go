package moul

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/udisondev/moulgo/internal/wire"
)

// Net message protocol version.
const (
	netProtocolMajor = 12
	netProtocolMinor = 6
)

// NetMessage content flags.
const (
	NetHasTimeSent            uint32 = 1 << 0
	NetHasGameMsgReceivers    uint32 = 1 << 1
	NetEchoBackToSender       uint32 = 1 << 2
	NetRequestP2P             uint32 = 1 << 3
	NetAllowTimeOut           uint32 = 1 << 4
	NetIndirectMember         uint32 = 1 << 5
	NetPublicIPClient         uint32 = 1 << 6
	NetHasContext             uint32 = 1 << 7
	NetAskVaultForGameState   uint32 = 1 << 8
	NetHasTransactionID       uint32 = 1 << 9
	NetNewSDLState            uint32 = 1 << 10
	NetInitialAgeStateRequest uint32 = 1 << 11
	NetHasPlayerID            uint32 = 1 << 12
	NetUseRelevanceRegions    uint32 = 1 << 13
	NetHasAcctUuid            uint32 = 1 << 14
	NetInterAgeRouting        uint32 = 1 << 15
	NetHasVersion             uint32 = 1 << 16
	NetIsSystemMessage        uint32 = 1 << 17
	NetNeedsReliableSend      uint32 = 1 << 18
	NetRouteToAllPlayers      uint32 = 1 << 19
)

// NetMessage is the base of the client/server game traffic tree.
type NetMessage struct {
	ContentFlags uint32
	ProtocolMaj  uint8
	ProtocolMin  uint8
	Timestamp    wire.UnifiedTime
	Context      uint32
	TransID      uint32
	PlayerID     uint32
	AcctID       wire.Uuid
}

// MakeSafeForNet defaults to forwardable for net messages; the host decides
// per message id what to do with them.
func (m *NetMessage) MakeSafeForNet() bool { return true }

func (m *NetMessage) readNetBase(s *wire.BufferStream) error {
	var err error
	if m.ContentFlags, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read net message: %w", err)
	}
	if m.ContentFlags&NetHasVersion != 0 {
		if m.ProtocolMaj, err = s.ReadU8(); err != nil {
			return fmt.Errorf("read net message: %w", err)
		}
		if m.ProtocolMin, err = s.ReadU8(); err != nil {
			return fmt.Errorf("read net message: %w", err)
		}
		if m.ProtocolMaj != netProtocolMajor || m.ProtocolMin != netProtocolMinor {
			return fmt.Errorf("read net message: unsupported protocol %d.%d", m.ProtocolMaj, m.ProtocolMin)
		}
	} else {
		m.ProtocolMaj = netProtocolMajor
		m.ProtocolMin = netProtocolMinor
	}
	if m.ContentFlags&NetHasTimeSent != 0 {
		if err = m.Timestamp.Read(s); err != nil {
			return fmt.Errorf("read net message: %w", err)
		}
	}
	if m.ContentFlags&NetHasContext != 0 {
		if m.Context, err = s.ReadU32(); err != nil {
			return fmt.Errorf("read net message: %w", err)
		}
	}
	if m.ContentFlags&NetHasTransactionID != 0 {
		if m.TransID, err = s.ReadU32(); err != nil {
			return fmt.Errorf("read net message: %w", err)
		}
	}
	if m.ContentFlags&NetHasPlayerID != 0 {
		if m.PlayerID, err = s.ReadU32(); err != nil {
			return fmt.Errorf("read net message: %w", err)
		}
	}
	if m.ContentFlags&NetHasAcctUuid != 0 {
		if err = m.AcctID.Read(s); err != nil {
			return fmt.Errorf("read net message: %w", err)
		}
	}
	return nil
}

func (m *NetMessage) writeNetBase(s *wire.BufferStream) {
	s.WriteU32(m.ContentFlags)
	if m.ContentFlags&NetHasVersion != 0 {
		s.WriteU8(netProtocolMajor)
		s.WriteU8(netProtocolMinor)
	}
	if m.ContentFlags&NetHasTimeSent != 0 {
		m.Timestamp.Write(s)
	}
	if m.ContentFlags&NetHasContext != 0 {
		s.WriteU32(m.Context)
	}
	if m.ContentFlags&NetHasTransactionID != 0 {
		s.WriteU32(m.TransID)
	}
	if m.ContentFlags&NetHasPlayerID != 0 {
		s.WriteU32(m.PlayerID)
	}
	if m.ContentFlags&NetHasAcctUuid != 0 {
		m.AcctID.Write(s)
	}
}

// NetMsgStream compression modes.
const (
	CompressNone  uint8 = 0
	CompressFail  uint8 = 1
	CompressZlib  uint8 = 2
	CompressNever uint8 = 3
)

// NetMsgStream is the length-prefixed, optionally zlib-compressed body used
// by game messages and SDL states. The first two body bytes are stored
// uncompressed even in zlib mode.
type NetMsgStream struct {
	Compression uint8
	Data        []byte
}

func (n *NetMsgStream) Read(s *wire.BufferStream) error {
	uncompressedSize, err := s.ReadU32()
	if err != nil {
		return fmt.Errorf("read msg stream: %w", err)
	}
	if n.Compression, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read msg stream: %w", err)
	}
	size, err := s.ReadU32()
	if err != nil {
		return fmt.Errorf("read msg stream: %w", err)
	}
	raw, err := s.ReadBytes(int(size))
	if err != nil {
		return fmt.Errorf("read msg stream: %w", err)
	}

	if n.Compression == CompressZlib {
		if size < 2 || uncompressedSize < 2 {
			return fmt.Errorf("read msg stream: malformed compressed body")
		}
		out := make([]byte, uncompressedSize)
		copy(out, raw[:2])
		zr, err := zlib.NewReader(bytes.NewReader(raw[2:]))
		if err != nil {
			return fmt.Errorf("inflate msg stream: %w", err)
		}
		if _, err := io.ReadFull(zr, out[2:]); err != nil {
			return fmt.Errorf("inflate msg stream: %w", err)
		}
		zr.Close()
		n.Data = out
	} else {
		n.Data = raw
	}
	return nil
}

func (n *NetMsgStream) Write(s *wire.BufferStream) {
	var zBody []byte
	if n.Compression == CompressZlib {
		if len(n.Data) >= 2 {
			var zbuf bytes.Buffer
			zw := zlib.NewWriter(&zbuf)
			_, werr := zw.Write(n.Data[2:])
			if cerr := zw.Close(); werr == nil && cerr == nil {
				zBody = append(n.Data[:2:2], zbuf.Bytes()...)
			}
		}
		if zBody == nil {
			// Deflate unavailable for this body; send it plain.
			n.Compression = CompressFail
		}
	}

	s.WriteU32(uint32(len(n.Data)))
	s.WriteU8(n.Compression)
	if zBody != nil {
		s.WriteU32(uint32(len(zBody)))
		s.WriteBytes(zBody)
	} else {
		s.WriteU32(uint32(len(n.Data)))
		s.WriteBytes(n.Data)
	}
}

// NetMsgObject attaches an object identity to a net message.
type NetMsgObject struct {
	NetMessage
	Object Uoid
}

func (m *NetMsgObject) readObject(s *wire.BufferStream) error {
	if err := m.readNetBase(s); err != nil {
		return err
	}
	return m.Object.Read(s)
}

func (m *NetMsgObject) writeObject(s *wire.BufferStream) {
	m.writeNetBase(s)
	m.Object.Write(s)
}

// Room identifies a registry room by location and name.
type Room struct {
	Location Location
	Name     string
}

// NetMsgRoomsList is the shared room-list base.
type NetMsgRoomsList struct {
	NetMessage
	Rooms []Room
}

func (m *NetMsgRoomsList) readRooms(s *wire.BufferStream) error {
	if err := m.readNetBase(s); err != nil {
		return err
	}
	count, err := s.ReadU32()
	if err != nil {
		return fmt.Errorf("read rooms list: %w", err)
	}
	m.Rooms = make([]Room, count)
	for i := range m.Rooms {
		if err := m.Rooms[i].Location.Read(s); err != nil {
			return fmt.Errorf("read rooms list: %w", err)
		}
		if m.Rooms[i].Name, err = s.ReadPString16(); err != nil {
			return fmt.Errorf("read rooms list: %w", err)
		}
	}
	return nil
}

func (m *NetMsgRoomsList) writeRooms(s *wire.BufferStream) {
	m.writeNetBase(s)
	s.WriteU32(uint32(len(m.Rooms)))
	for i := range m.Rooms {
		m.Rooms[i].Location.Write(s)
		s.WritePString16(m.Rooms[i].Name)
	}
}

// NetMsgPagingRoom announces a room page-in/page-out.
type NetMsgPagingRoom struct {
	NetMsgRoomsList
	PagingFlags uint8
}

func (m *NetMsgPagingRoom) Type() uint16 { return IDNetMsgPagingRoom }

func (m *NetMsgPagingRoom) Read(s *wire.BufferStream) error {
	if err := m.readRooms(s); err != nil {
		return err
	}
	var err error
	if m.PagingFlags, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read paging room: %w", err)
	}
	return nil
}

func (m *NetMsgPagingRoom) Write(s *wire.BufferStream) {
	m.writeRooms(s)
	s.WriteU8(m.PagingFlags)
}

// NetMsgGameStateRequest asks the server for the initial age state.
type NetMsgGameStateRequest struct {
	NetMsgRoomsList
}

func (m *NetMsgGameStateRequest) Type() uint16 { return IDNetMsgGameStateRequest }

func (m *NetMsgGameStateRequest) Read(s *wire.BufferStream) error { return m.readRooms(s) }

func (m *NetMsgGameStateRequest) Write(s *wire.BufferStream) { m.writeRooms(s) }

// NetMsgInitialAgeStateSent closes the initial state batch.
type NetMsgInitialAgeStateSent struct {
	NetMessage
	NumStates uint32
}

func (m *NetMsgInitialAgeStateSent) Type() uint16 { return IDNetMsgInitialAgeStateSent }

func (m *NetMsgInitialAgeStateSent) Read(s *wire.BufferStream) error {
	if err := m.readNetBase(s); err != nil {
		return err
	}
	var err error
	if m.NumStates, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read initial age state sent: %w", err)
	}
	return nil
}

func (m *NetMsgInitialAgeStateSent) Write(s *wire.BufferStream) {
	m.writeNetBase(s)
	s.WriteU32(m.NumStates)
}

// GroupInfo is one synchronization group ownership entry.
type GroupInfo struct {
	Group NetGroupId
	Own   bool
}

// NetMsgGroupOwner tells the client which groups it owns.
type NetMsgGroupOwner struct {
	NetMessage
	Groups []GroupInfo
}

func (m *NetMsgGroupOwner) Type() uint16 { return IDNetMsgGroupOwner }

func (m *NetMsgGroupOwner) Read(s *wire.BufferStream) error {
	if err := m.readNetBase(s); err != nil {
		return err
	}
	count, err := s.ReadU32()
	if err != nil {
		return fmt.Errorf("read group owner: %w", err)
	}
	m.Groups = make([]GroupInfo, count)
	for i := range m.Groups {
		if err := m.Groups[i].Group.Read(s); err != nil {
			return fmt.Errorf("read group owner: %w", err)
		}
		if m.Groups[i].Own, err = s.ReadBool(); err != nil {
			return fmt.Errorf("read group owner: %w", err)
		}
	}
	return nil
}

func (m *NetMsgGroupOwner) Write(s *wire.BufferStream) {
	m.writeNetBase(s)
	s.WriteU32(uint32(len(m.Groups)))
	for i := range m.Groups {
		m.Groups[i].Group.Write(s)
		s.WriteBool(m.Groups[i].Own)
	}
}
