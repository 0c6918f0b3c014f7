package moul

import (
	"fmt"

	"github.com/udisondev/moulgo/internal/wire"
)

// ClientGuid field flags.
const (
	guidHasAcctUuid       uint16 = 1 << 0
	guidHasPlayerID       uint16 = 1 << 1
	guidHasTempPlayerID   uint16 = 1 << 2
	guidHasCCRLevel       uint16 = 1 << 3
	guidHasProtectedLogin uint16 = 1 << 4
	guidHasBuildType      uint16 = 1 << 5
	guidHasPlayerName     uint16 = 1 << 6
	guidHasSrcAddr        uint16 = 1 << 7
	guidHasSrcPort        uint16 = 1 << 8
	guidHasReserved       uint16 = 1 << 9
	guidHasClientKey      uint16 = 1 << 10
)

// ClientGuid is the sparse client identity block used in member lists.
type ClientGuid struct {
	Flags          uint16
	AcctUuid       wire.Uuid
	PlayerID       uint32
	PlayerName     string
	CCRLevel       uint8
	ProtectedLogin bool
	BuildType      uint8
	SrcAddr        uint32
	SrcPort        uint16
	Reserved       uint16
	ClientKey      string
}

// SetPlayerID sets the player id and its presence bit.
func (g *ClientGuid) SetPlayerID(id uint32) {
	g.PlayerID = id
	g.Flags |= guidHasPlayerID
}

// SetPlayerName sets the player name and its presence bit.
func (g *ClientGuid) SetPlayerName(name string) {
	g.PlayerName = name
	g.Flags |= guidHasPlayerName
}

// SetCCRLevel sets the CCR level and its presence bit.
func (g *ClientGuid) SetCCRLevel(level uint8) {
	g.CCRLevel = level
	g.Flags |= guidHasCCRLevel
}

func (g *ClientGuid) Read(s *wire.BufferStream) error {
	var err error
	if g.Flags, err = s.ReadU16(); err != nil {
		return fmt.Errorf("read client guid: %w", err)
	}
	if g.Flags&guidHasAcctUuid != 0 {
		if err = g.AcctUuid.Read(s); err != nil {
			return fmt.Errorf("read client guid: %w", err)
		}
	}
	if g.Flags&(guidHasPlayerID|guidHasTempPlayerID) != 0 {
		if g.PlayerID, err = s.ReadU32(); err != nil {
			return fmt.Errorf("read client guid: %w", err)
		}
	}
	if g.Flags&guidHasPlayerName != 0 {
		if g.PlayerName, err = s.ReadPString16(); err != nil {
			return fmt.Errorf("read client guid: %w", err)
		}
	}
	if g.Flags&guidHasCCRLevel != 0 {
		if g.CCRLevel, err = s.ReadU8(); err != nil {
			return fmt.Errorf("read client guid: %w", err)
		}
	}
	if g.Flags&guidHasProtectedLogin != 0 {
		if g.ProtectedLogin, err = s.ReadBool(); err != nil {
			return fmt.Errorf("read client guid: %w", err)
		}
	}
	if g.Flags&guidHasBuildType != 0 {
		if g.BuildType, err = s.ReadU8(); err != nil {
			return fmt.Errorf("read client guid: %w", err)
		}
	}
	if g.Flags&guidHasSrcAddr != 0 {
		if g.SrcAddr, err = s.ReadU32(); err != nil {
			return fmt.Errorf("read client guid: %w", err)
		}
	}
	if g.Flags&guidHasSrcPort != 0 {
		if g.SrcPort, err = s.ReadU16(); err != nil {
			return fmt.Errorf("read client guid: %w", err)
		}
	}
	if g.Flags&guidHasReserved != 0 {
		if g.Reserved, err = s.ReadU16(); err != nil {
			return fmt.Errorf("read client guid: %w", err)
		}
	}
	if g.Flags&guidHasClientKey != 0 {
		if g.ClientKey, err = s.ReadPString16(); err != nil {
			return fmt.Errorf("read client guid: %w", err)
		}
	}
	return nil
}

func (g *ClientGuid) Write(s *wire.BufferStream) {
	s.WriteU16(g.Flags)
	if g.Flags&guidHasAcctUuid != 0 {
		g.AcctUuid.Write(s)
	}
	if g.Flags&(guidHasPlayerID|guidHasTempPlayerID) != 0 {
		s.WriteU32(g.PlayerID)
	}
	if g.Flags&guidHasPlayerName != 0 {
		s.WritePString16(g.PlayerName)
	}
	if g.Flags&guidHasCCRLevel != 0 {
		s.WriteU8(g.CCRLevel)
	}
	if g.Flags&guidHasProtectedLogin != 0 {
		s.WriteBool(g.ProtectedLogin)
	}
	if g.Flags&guidHasBuildType != 0 {
		s.WriteU8(g.BuildType)
	}
	if g.Flags&guidHasSrcAddr != 0 {
		s.WriteU32(g.SrcAddr)
	}
	if g.Flags&guidHasSrcPort != 0 {
		s.WriteU16(g.SrcPort)
	}
	if g.Flags&guidHasReserved != 0 {
		s.WriteU16(g.Reserved)
	}
	if g.Flags&guidHasClientKey != 0 {
		s.WritePString16(g.ClientKey)
	}
}

// MemberInfo pairs a client identity with its avatar key.
type MemberInfo struct {
	Flags     uint32
	Client    ClientGuid
	AvatarKey Uoid
}

func (m *MemberInfo) Read(s *wire.BufferStream) error {
	var err error
	if m.Flags, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read member info: %w", err)
	}
	if err = m.Client.Read(s); err != nil {
		return fmt.Errorf("read member info: %w", err)
	}
	if err = m.AvatarKey.Read(s); err != nil {
		return fmt.Errorf("read member info: %w", err)
	}
	return nil
}

func (m *MemberInfo) Write(s *wire.BufferStream) {
	s.WriteU32(m.Flags)
	m.Client.Write(s)
	m.AvatarKey.Write(s)
}

// NetMsgMembersListReq asks for the age member list.
type NetMsgMembersListReq struct {
	NetMessage
}

func (m *NetMsgMembersListReq) Type() uint16 { return IDNetMsgMembersListReq }

func (m *NetMsgMembersListReq) Read(s *wire.BufferStream) error { return m.readNetBase(s) }

func (m *NetMsgMembersListReq) Write(s *wire.BufferStream) { m.writeNetBase(s) }

// NetMsgMembersList is the age member roster.
type NetMsgMembersList struct {
	NetMessage
	Members []MemberInfo
}

func (m *NetMsgMembersList) Type() uint16 { return IDNetMsgMembersList }

func (m *NetMsgMembersList) Read(s *wire.BufferStream) error {
	if err := m.readNetBase(s); err != nil {
		return err
	}
	count, err := s.ReadU16()
	if err != nil {
		return fmt.Errorf("read members list: %w", err)
	}
	m.Members = make([]MemberInfo, count)
	for i := range m.Members {
		if err := m.Members[i].Read(s); err != nil {
			return fmt.Errorf("read members list: %w", err)
		}
	}
	return nil
}

func (m *NetMsgMembersList) Write(s *wire.BufferStream) {
	m.writeNetBase(s)
	s.WriteU16(uint16(len(m.Members)))
	for i := range m.Members {
		m.Members[i].Write(s)
	}
}

// NetMsgMemberUpdate announces one member joining or leaving.
type NetMsgMemberUpdate struct {
	NetMessage
	Member    MemberInfo
	AddMember bool
}

func (m *NetMsgMemberUpdate) Type() uint16 { return IDNetMsgMemberUpdate }

func (m *NetMsgMemberUpdate) Read(s *wire.BufferStream) error {
	if err := m.readNetBase(s); err != nil {
		return err
	}
	if err := m.Member.Read(s); err != nil {
		return fmt.Errorf("read member update: %w", err)
	}
	var err error
	if m.AddMember, err = s.ReadBool(); err != nil {
		return fmt.Errorf("read member update: %w", err)
	}
	return nil
}

func (m *NetMsgMemberUpdate) Write(s *wire.BufferStream) {
	m.writeNetBase(s)
	m.Member.Write(s)
	s.WriteBool(m.AddMember)
}
