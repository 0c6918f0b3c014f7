package moul

import (
	"fmt"

	"github.com/udisondev/moulgo/internal/wire"
)

// SpawnPointInfo flags (bit indexes into the flag vector).
const (
	spawnHasTitle = iota
	spawnHasName
	spawnHasCameraStack
)

// SpawnPointInfo names a link-in point.
type SpawnPointInfo struct {
	Flags       wire.BitVector
	Title       string
	Name        string
	CameraStack string
}

func (p *SpawnPointInfo) Read(s *wire.BufferStream) error {
	if err := p.Flags.Read(s); err != nil {
		return fmt.Errorf("read spawn point: %w", err)
	}
	var err error
	if p.Flags.Get(spawnHasTitle) {
		if p.Title, err = s.ReadPString16(); err != nil {
			return fmt.Errorf("read spawn point: %w", err)
		}
	}
	if p.Flags.Get(spawnHasName) {
		if p.Name, err = s.ReadPString16(); err != nil {
			return fmt.Errorf("read spawn point: %w", err)
		}
	}
	if p.Flags.Get(spawnHasCameraStack) {
		if p.CameraStack, err = s.ReadPString16(); err != nil {
			return fmt.Errorf("read spawn point: %w", err)
		}
	}
	return nil
}

func (p *SpawnPointInfo) Write(s *wire.BufferStream) {
	p.Flags.Write(s)
	if p.Flags.Get(spawnHasTitle) {
		s.WritePString16(p.Title)
	}
	if p.Flags.Get(spawnHasName) {
		s.WritePString16(p.Name)
	}
	if p.Flags.Get(spawnHasCameraStack) {
		s.WritePString16(p.CameraStack)
	}
}

// AgeInfoStruct field flags.
const (
	ageHasFilename       = 1 << 0
	ageHasInstanceName   = 1 << 1
	ageHasInstanceUuid   = 1 << 2
	ageHasUserDefinedName = 1 << 3
	ageHasSequenceNumber = 1 << 4
	ageHasDescription    = 1 << 5
	ageHasLanguage       = 1 << 6
)

// AgeInfoStruct describes an age instance in link messages.
type AgeInfoStruct struct {
	Flags           uint8
	Filename        string
	InstanceName    string
	InstanceUuid    wire.Uuid
	UserDefinedName string
	SequenceNumber  int32
	Description     string
	Language        int32
}

func (a *AgeInfoStruct) Type() uint16 { return IDAgeInfoStruct }

func (a *AgeInfoStruct) MakeSafeForNet() bool { return true }

func (a *AgeInfoStruct) Read(s *wire.BufferStream) error {
	var err error
	if a.Flags, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read age info: %w", err)
	}
	if a.Flags&ageHasFilename != 0 {
		if a.Filename, err = s.ReadPString16(); err != nil {
			return fmt.Errorf("read age info: %w", err)
		}
	}
	if a.Flags&ageHasInstanceName != 0 {
		if a.InstanceName, err = s.ReadPString16(); err != nil {
			return fmt.Errorf("read age info: %w", err)
		}
	}
	if a.Flags&ageHasInstanceUuid != 0 {
		if err = a.InstanceUuid.Read(s); err != nil {
			return fmt.Errorf("read age info: %w", err)
		}
	}
	if a.Flags&ageHasUserDefinedName != 0 {
		if a.UserDefinedName, err = s.ReadPString16(); err != nil {
			return fmt.Errorf("read age info: %w", err)
		}
	}
	if a.Flags&ageHasSequenceNumber != 0 {
		if a.SequenceNumber, err = s.ReadI32(); err != nil {
			return fmt.Errorf("read age info: %w", err)
		}
	}
	if a.Flags&ageHasDescription != 0 {
		if a.Description, err = s.ReadPString16(); err != nil {
			return fmt.Errorf("read age info: %w", err)
		}
	}
	if a.Flags&ageHasLanguage != 0 {
		if a.Language, err = s.ReadI32(); err != nil {
			return fmt.Errorf("read age info: %w", err)
		}
	}
	return nil
}

func (a *AgeInfoStruct) Write(s *wire.BufferStream) {
	s.WriteU8(a.Flags)
	if a.Flags&ageHasFilename != 0 {
		s.WritePString16(a.Filename)
	}
	if a.Flags&ageHasInstanceName != 0 {
		s.WritePString16(a.InstanceName)
	}
	if a.Flags&ageHasInstanceUuid != 0 {
		a.InstanceUuid.Write(s)
	}
	if a.Flags&ageHasUserDefinedName != 0 {
		s.WritePString16(a.UserDefinedName)
	}
	if a.Flags&ageHasSequenceNumber != 0 {
		s.WriteI32(a.SequenceNumber)
	}
	if a.Flags&ageHasDescription != 0 {
		s.WritePString16(a.Description)
	}
	if a.Flags&ageHasLanguage != 0 {
		s.WriteI32(a.Language)
	}
}

// AgeLinkStruct field flags.
const (
	linkHasAgeInfo           = 1 << 0
	linkHasLinkingRules      = 1 << 1
	linkHasSpawnPtInline     = 1 << 2
	linkHasSpawnPtLegacy     = 1 << 3
	linkHasSpawnPt           = 1 << 4
	linkHasAmCCR             = 1 << 5
	linkHasParentAgeFilename = 1 << 6
)

// AgeLinkStruct is the full link target description. The two legacy inline
// spawn-point encodings are rejected on read.
type AgeLinkStruct struct {
	Flags             uint16
	AgeInfo           AgeInfoStruct
	LinkingRules      uint8
	SpawnPt           SpawnPointInfo
	AmCCR             bool
	ParentAgeFilename string
}

func (a *AgeLinkStruct) Type() uint16 { return IDAgeLinkStruct }

func (a *AgeLinkStruct) MakeSafeForNet() bool { return true }

func (a *AgeLinkStruct) Read(s *wire.BufferStream) error {
	var err error
	if a.Flags, err = s.ReadU16(); err != nil {
		return fmt.Errorf("read age link: %w", err)
	}
	if a.Flags&(linkHasSpawnPtInline|linkHasSpawnPtLegacy) != 0 {
		return fmt.Errorf("read age link: legacy spawn point encoding not supported")
	}
	if a.Flags&linkHasAgeInfo != 0 {
		if err = a.AgeInfo.Read(s); err != nil {
			return fmt.Errorf("read age link: %w", err)
		}
	}
	if a.Flags&linkHasLinkingRules != 0 {
		if a.LinkingRules, err = s.ReadU8(); err != nil {
			return fmt.Errorf("read age link: %w", err)
		}
	}
	if a.Flags&linkHasSpawnPt != 0 {
		if err = a.SpawnPt.Read(s); err != nil {
			return fmt.Errorf("read age link: %w", err)
		}
	}
	if a.Flags&linkHasAmCCR != 0 {
		if a.AmCCR, err = s.ReadBool(); err != nil {
			return fmt.Errorf("read age link: %w", err)
		}
	}
	if a.Flags&linkHasParentAgeFilename != 0 {
		if a.ParentAgeFilename, err = s.ReadPString16(); err != nil {
			return fmt.Errorf("read age link: %w", err)
		}
	}
	return nil
}

func (a *AgeLinkStruct) Write(s *wire.BufferStream) {
	s.WriteU16(a.Flags &^ (linkHasSpawnPtInline | linkHasSpawnPtLegacy))
	if a.Flags&linkHasAgeInfo != 0 {
		a.AgeInfo.Write(s)
	}
	if a.Flags&linkHasLinkingRules != 0 {
		s.WriteU8(a.LinkingRules)
	}
	if a.Flags&linkHasSpawnPt != 0 {
		a.SpawnPt.Write(s)
	}
	if a.Flags&linkHasAmCCR != 0 {
		s.WriteBool(a.AmCCR)
	}
	if a.Flags&linkHasParentAgeFilename != 0 {
		s.WritePString16(a.ParentAgeFilename)
	}
}

// linkToAgeVersion is the only wire version the client speaks.
const linkToAgeVersion = 0

// LinkToAgeMsg requests an age link. Never forwardable from clients.
type LinkToAgeMsg struct {
	Message
	AgeLink    AgeLinkStruct
	LinkInAnim string
}

func (m *LinkToAgeMsg) Type() uint16 { return IDLinkToAgeMsg }

func (m *LinkToAgeMsg) MakeSafeForNet() bool { return false }

func (m *LinkToAgeMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	version, err := s.ReadU8()
	if err != nil {
		return fmt.Errorf("read link to age msg: %w", err)
	}
	if version != linkToAgeVersion {
		return fmt.Errorf("read link to age msg: unsupported version %d", version)
	}
	if err = m.AgeLink.Read(s); err != nil {
		return fmt.Errorf("read link to age msg: %w", err)
	}
	if m.LinkInAnim, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read link to age msg: %w", err)
	}
	return nil
}

func (m *LinkToAgeMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	s.WriteU8(linkToAgeVersion)
	m.AgeLink.Write(s)
	s.WriteSafeString(m.LinkInAnim)
}

// LinkingMgrMsg content flags (bit indexes).
const (
	linkingMgrHasCommand = iota
	linkingMgrHasArgs
)

// LinkingMgrMsg is a linking-manager command. Never forwardable from
// clients.
type LinkingMgrMsg struct {
	Message
	ContentFlags wire.BitVector
	Cmd          uint8
	Args         CreatableList
}

func (m *LinkingMgrMsg) Type() uint16 { return IDLinkingMgrMsg }

func (m *LinkingMgrMsg) MakeSafeForNet() bool { return false }

func (m *LinkingMgrMsg) Read(s *wire.BufferStream) error {
	if err := m.readBase(s); err != nil {
		return err
	}
	if err := m.ContentFlags.Read(s); err != nil {
		return fmt.Errorf("read linking mgr msg: %w", err)
	}
	var err error
	if m.ContentFlags.Get(linkingMgrHasCommand) {
		if m.Cmd, err = s.ReadU8(); err != nil {
			return fmt.Errorf("read linking mgr msg: %w", err)
		}
	}
	if m.ContentFlags.Get(linkingMgrHasArgs) {
		if err = m.Args.Read(s); err != nil {
			return fmt.Errorf("read linking mgr msg: %w", err)
		}
	}
	return nil
}

func (m *LinkingMgrMsg) Write(s *wire.BufferStream) {
	m.writeBase(s)
	m.ContentFlags.Write(s)
	if m.ContentFlags.Get(linkingMgrHasCommand) {
		s.WriteU8(m.Cmd)
	}
	if m.ContentFlags.Get(linkingMgrHasArgs) {
		m.Args.Write(s)
	}
}
