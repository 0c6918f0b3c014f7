// Package vault implements the server-authoritative persistent node graph:
// sparse bit-masked records joined by directed refs.
package vault

import (
	"fmt"

	"github.com/udisondev/moulgo/internal/wire"
)

// Node types (closed enum shared with the client).
const (
	NodeInvalid int32 = iota
	NodeVNodeMgrLow
	NodePlayer
	NodeAge
	NodeGameServer
	NodeAdmin
	NodeVaultServer
	NodeCCR

	NodeVNodeMgrHigh int32 = 21
	NodeFolder       int32 = 22
	NodePlayerInfo   int32 = 23
	NodeSystem       int32 = 24
	NodeImage        int32 = 25
	NodeTextNote     int32 = 26
	NodeSDL          int32 = 27
	NodeAgeLink      int32 = 28
	NodeChronicle    int32 = 29
	NodePlayerInfoList int32 = 30
	NodeMarker       int32 = 32
	NodeAgeInfo      int32 = 33
	NodeAgeInfoList  int32 = 34
	NodeMarkerList   int32 = 35
)

// Standard folder types (stored in Int32_1 of Folder nodes).
const (
	UserDefinedNode int32 = iota
	InboxFolder
	BuddyListFolder
	IgnoreListFolder
	PeopleIKnowAboutFolder
	VaultMgrGlobalDataFolder
	ChronicleFolder
	AvatarOutfitFolder
	AgeTypeJournalFolder
	SubAgesFolder
	DeviceInboxFolder
	HoodMembersFolder
	AllPlayersFolder
	AgeMembersFolder
	AgeJournalsFolder
	AgeDevicesFolder
	AgeInstanceSDLNode
	AgeGlobalSDLNode
	CanVisitFolder
	AgeOwnersFolder
	AllAgeGlobalSDLNodesFolder
	PlayerInfoNode
	PublicAgesFolder
	AgesIOwnFolder
	AgesICanVisitFolder
	AvatarClosetFolder
	AgeInfoNode
	SystemNode
	PlayerInviteFolder
	CCRPlayersFolder
	GlobalInboxFolder
	ChildAgesFolder
	GameScoresFolder
)

// Field mask bits, in wire order.
const (
	FieldNodeIdx       uint64 = 1 << 0
	FieldCreateTime    uint64 = 1 << 1
	FieldModifyTime    uint64 = 1 << 2
	FieldCreateAgeName uint64 = 1 << 3
	FieldCreateAgeUuid uint64 = 1 << 4
	FieldCreatorUuid   uint64 = 1 << 5
	FieldCreatorIdx    uint64 = 1 << 6
	FieldNodeType      uint64 = 1 << 7
	FieldInt32_1       uint64 = 1 << 8
	FieldInt32_2       uint64 = 1 << 9
	FieldInt32_3       uint64 = 1 << 10
	FieldInt32_4       uint64 = 1 << 11
	FieldUint32_1      uint64 = 1 << 12
	FieldUint32_2      uint64 = 1 << 13
	FieldUint32_3      uint64 = 1 << 14
	FieldUint32_4      uint64 = 1 << 15
	FieldUuid_1        uint64 = 1 << 16
	FieldUuid_2        uint64 = 1 << 17
	FieldUuid_3        uint64 = 1 << 18
	FieldUuid_4        uint64 = 1 << 19
	FieldString64_1    uint64 = 1 << 20
	FieldString64_2    uint64 = 1 << 21
	FieldString64_3    uint64 = 1 << 22
	FieldString64_4    uint64 = 1 << 23
	FieldString64_5    uint64 = 1 << 24
	FieldString64_6    uint64 = 1 << 25
	FieldIString64_1   uint64 = 1 << 26
	FieldIString64_2   uint64 = 1 << 27
	FieldText_1        uint64 = 1 << 28
	FieldText_2        uint64 = 1 << 29
	FieldBlob_1        uint64 = 1 << 30
	FieldBlob_2        uint64 = 1 << 31
)

// Node is a sparse record: a field is meaningful only when its mask bit is
// set, and exactly the present fields appear on the wire in slot order.
type Node struct {
	fields uint64

	NodeIdx       uint32
	CreateTime    uint32
	ModifyTime    uint32
	CreateAgeName string
	CreateAgeUuid wire.Uuid
	CreatorUuid   wire.Uuid
	CreatorIdx    uint32
	NodeType      int32
	Int32_1       int32
	Int32_2       int32
	Int32_3       int32
	Int32_4       int32
	Uint32_1      uint32
	Uint32_2      uint32
	Uint32_3      uint32
	Uint32_4      uint32
	Uuid_1        wire.Uuid
	Uuid_2        wire.Uuid
	Uuid_3        wire.Uuid
	Uuid_4        wire.Uuid
	String64_1    string
	String64_2    string
	String64_3    string
	String64_4    string
	String64_5    string
	String64_6    string
	IString64_1   string
	IString64_2   string
	Text_1        string
	Text_2        string
	Blob_1        []byte
	Blob_2        []byte
}

// Fields returns the presence mask.
func (n *Node) Fields() uint64 { return n.fields }

// Has reports whether every bit in field is present.
func (n *Node) Has(field uint64) bool { return n.fields&field == field }

// Clear drops every field.
func (n *Node) Clear() { n.fields = 0 }

// IsNull reports a node with no present fields.
func (n *Node) IsNull() bool { return n.fields == 0 }

// Setters mark the presence bit along with the value.

func (n *Node) SetNodeIdx(v uint32)       { n.NodeIdx = v; n.fields |= FieldNodeIdx }
func (n *Node) SetCreateTime(v uint32)    { n.CreateTime = v; n.fields |= FieldCreateTime }
func (n *Node) SetModifyTime(v uint32)    { n.ModifyTime = v; n.fields |= FieldModifyTime }
func (n *Node) SetCreateAgeName(v string) { n.CreateAgeName = v; n.fields |= FieldCreateAgeName }
func (n *Node) SetCreateAgeUuid(v wire.Uuid) { n.CreateAgeUuid = v; n.fields |= FieldCreateAgeUuid }
func (n *Node) SetCreatorUuid(v wire.Uuid) { n.CreatorUuid = v; n.fields |= FieldCreatorUuid }
func (n *Node) SetCreatorIdx(v uint32)    { n.CreatorIdx = v; n.fields |= FieldCreatorIdx }
func (n *Node) SetNodeType(v int32)       { n.NodeType = v; n.fields |= FieldNodeType }
func (n *Node) SetInt32_1(v int32)        { n.Int32_1 = v; n.fields |= FieldInt32_1 }
func (n *Node) SetInt32_2(v int32)        { n.Int32_2 = v; n.fields |= FieldInt32_2 }
func (n *Node) SetInt32_3(v int32)        { n.Int32_3 = v; n.fields |= FieldInt32_3 }
func (n *Node) SetInt32_4(v int32)        { n.Int32_4 = v; n.fields |= FieldInt32_4 }
func (n *Node) SetUint32_1(v uint32)      { n.Uint32_1 = v; n.fields |= FieldUint32_1 }
func (n *Node) SetUint32_2(v uint32)      { n.Uint32_2 = v; n.fields |= FieldUint32_2 }
func (n *Node) SetUint32_3(v uint32)      { n.Uint32_3 = v; n.fields |= FieldUint32_3 }
func (n *Node) SetUint32_4(v uint32)      { n.Uint32_4 = v; n.fields |= FieldUint32_4 }
func (n *Node) SetUuid_1(v wire.Uuid)     { n.Uuid_1 = v; n.fields |= FieldUuid_1 }
func (n *Node) SetUuid_2(v wire.Uuid)     { n.Uuid_2 = v; n.fields |= FieldUuid_2 }
func (n *Node) SetUuid_3(v wire.Uuid)     { n.Uuid_3 = v; n.fields |= FieldUuid_3 }
func (n *Node) SetUuid_4(v wire.Uuid)     { n.Uuid_4 = v; n.fields |= FieldUuid_4 }
func (n *Node) SetString64_1(v string)    { n.String64_1 = v; n.fields |= FieldString64_1 }
func (n *Node) SetString64_2(v string)    { n.String64_2 = v; n.fields |= FieldString64_2 }
func (n *Node) SetString64_3(v string)    { n.String64_3 = v; n.fields |= FieldString64_3 }
func (n *Node) SetString64_4(v string)    { n.String64_4 = v; n.fields |= FieldString64_4 }
func (n *Node) SetString64_5(v string)    { n.String64_5 = v; n.fields |= FieldString64_5 }
func (n *Node) SetString64_6(v string)    { n.String64_6 = v; n.fields |= FieldString64_6 }
func (n *Node) SetIString64_1(v string)   { n.IString64_1 = v; n.fields |= FieldIString64_1 }
func (n *Node) SetIString64_2(v string)   { n.IString64_2 = v; n.fields |= FieldIString64_2 }
func (n *Node) SetText_1(v string)        { n.Text_1 = v; n.fields |= FieldText_1 }
func (n *Node) SetText_2(v string)        { n.Text_2 = v; n.fields |= FieldText_2 }
func (n *Node) SetBlob_1(v []byte)        { n.Blob_1 = v; n.fields |= FieldBlob_1 }
func (n *Node) SetBlob_2(v []byte)        { n.Blob_2 = v; n.fields |= FieldBlob_2 }

// Read decodes the mask and exactly the present fields in slot order.
func (n *Node) Read(s *wire.BufferStream) error {
	var err error
	if n.fields, err = s.ReadU64(); err != nil {
		return fmt.Errorf("read vault node: %w", err)
	}

	readU32 := func(dst *uint32) error {
		if *dst, err = s.ReadU32(); err != nil {
			return fmt.Errorf("read vault node: %w", err)
		}
		return nil
	}
	readI32 := func(dst *int32) error {
		if *dst, err = s.ReadI32(); err != nil {
			return fmt.Errorf("read vault node: %w", err)
		}
		return nil
	}
	readString := func(dst *string) error {
		if *dst, err = s.ReadVaultString(); err != nil {
			return fmt.Errorf("read vault node: %w", err)
		}
		return nil
	}
	readUuid := func(dst *wire.Uuid) error {
		if err = dst.Read(s); err != nil {
			return fmt.Errorf("read vault node: %w", err)
		}
		return nil
	}
	readBlob := func(dst *[]byte) error {
		size, err := s.ReadU32()
		if err != nil {
			return fmt.Errorf("read vault node: %w", err)
		}
		if *dst, err = s.ReadBytes(int(size)); err != nil {
			return fmt.Errorf("read vault node: %w", err)
		}
		return nil
	}

	steps := []struct {
		field uint64
		read  func() error
	}{
		{FieldNodeIdx, func() error { return readU32(&n.NodeIdx) }},
		{FieldCreateTime, func() error { return readU32(&n.CreateTime) }},
		{FieldModifyTime, func() error { return readU32(&n.ModifyTime) }},
		{FieldCreateAgeName, func() error { return readString(&n.CreateAgeName) }},
		{FieldCreateAgeUuid, func() error { return readUuid(&n.CreateAgeUuid) }},
		{FieldCreatorUuid, func() error { return readUuid(&n.CreatorUuid) }},
		{FieldCreatorIdx, func() error { return readU32(&n.CreatorIdx) }},
		{FieldNodeType, func() error { return readI32(&n.NodeType) }},
		{FieldInt32_1, func() error { return readI32(&n.Int32_1) }},
		{FieldInt32_2, func() error { return readI32(&n.Int32_2) }},
		{FieldInt32_3, func() error { return readI32(&n.Int32_3) }},
		{FieldInt32_4, func() error { return readI32(&n.Int32_4) }},
		{FieldUint32_1, func() error { return readU32(&n.Uint32_1) }},
		{FieldUint32_2, func() error { return readU32(&n.Uint32_2) }},
		{FieldUint32_3, func() error { return readU32(&n.Uint32_3) }},
		{FieldUint32_4, func() error { return readU32(&n.Uint32_4) }},
		{FieldUuid_1, func() error { return readUuid(&n.Uuid_1) }},
		{FieldUuid_2, func() error { return readUuid(&n.Uuid_2) }},
		{FieldUuid_3, func() error { return readUuid(&n.Uuid_3) }},
		{FieldUuid_4, func() error { return readUuid(&n.Uuid_4) }},
		{FieldString64_1, func() error { return readString(&n.String64_1) }},
		{FieldString64_2, func() error { return readString(&n.String64_2) }},
		{FieldString64_3, func() error { return readString(&n.String64_3) }},
		{FieldString64_4, func() error { return readString(&n.String64_4) }},
		{FieldString64_5, func() error { return readString(&n.String64_5) }},
		{FieldString64_6, func() error { return readString(&n.String64_6) }},
		{FieldIString64_1, func() error { return readString(&n.IString64_1) }},
		{FieldIString64_2, func() error { return readString(&n.IString64_2) }},
		{FieldText_1, func() error { return readString(&n.Text_1) }},
		{FieldText_2, func() error { return readString(&n.Text_2) }},
		{FieldBlob_1, func() error { return readBlob(&n.Blob_1) }},
		{FieldBlob_2, func() error { return readBlob(&n.Blob_2) }},
	}
	for _, step := range steps {
		if n.fields&step.field != 0 {
			if err := step.read(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Write encodes the mask and exactly the present fields in slot order.
func (n *Node) Write(s *wire.BufferStream) {
	s.WriteU64(n.fields)

	writeBlob := func(blob []byte) {
		s.WriteU32(uint32(len(blob)))
		s.WriteBytes(blob)
	}

	if n.fields&FieldNodeIdx != 0 {
		s.WriteU32(n.NodeIdx)
	}
	if n.fields&FieldCreateTime != 0 {
		s.WriteU32(n.CreateTime)
	}
	if n.fields&FieldModifyTime != 0 {
		s.WriteU32(n.ModifyTime)
	}
	if n.fields&FieldCreateAgeName != 0 {
		s.WriteVaultString(n.CreateAgeName)
	}
	if n.fields&FieldCreateAgeUuid != 0 {
		n.CreateAgeUuid.Write(s)
	}
	if n.fields&FieldCreatorUuid != 0 {
		n.CreatorUuid.Write(s)
	}
	if n.fields&FieldCreatorIdx != 0 {
		s.WriteU32(n.CreatorIdx)
	}
	if n.fields&FieldNodeType != 0 {
		s.WriteI32(n.NodeType)
	}
	if n.fields&FieldInt32_1 != 0 {
		s.WriteI32(n.Int32_1)
	}
	if n.fields&FieldInt32_2 != 0 {
		s.WriteI32(n.Int32_2)
	}
	if n.fields&FieldInt32_3 != 0 {
		s.WriteI32(n.Int32_3)
	}
	if n.fields&FieldInt32_4 != 0 {
		s.WriteI32(n.Int32_4)
	}
	if n.fields&FieldUint32_1 != 0 {
		s.WriteU32(n.Uint32_1)
	}
	if n.fields&FieldUint32_2 != 0 {
		s.WriteU32(n.Uint32_2)
	}
	if n.fields&FieldUint32_3 != 0 {
		s.WriteU32(n.Uint32_3)
	}
	if n.fields&FieldUint32_4 != 0 {
		s.WriteU32(n.Uint32_4)
	}
	if n.fields&FieldUuid_1 != 0 {
		n.Uuid_1.Write(s)
	}
	if n.fields&FieldUuid_2 != 0 {
		n.Uuid_2.Write(s)
	}
	if n.fields&FieldUuid_3 != 0 {
		n.Uuid_3.Write(s)
	}
	if n.fields&FieldUuid_4 != 0 {
		n.Uuid_4.Write(s)
	}
	if n.fields&FieldString64_1 != 0 {
		s.WriteVaultString(n.String64_1)
	}
	if n.fields&FieldString64_2 != 0 {
		s.WriteVaultString(n.String64_2)
	}
	if n.fields&FieldString64_3 != 0 {
		s.WriteVaultString(n.String64_3)
	}
	if n.fields&FieldString64_4 != 0 {
		s.WriteVaultString(n.String64_4)
	}
	if n.fields&FieldString64_5 != 0 {
		s.WriteVaultString(n.String64_5)
	}
	if n.fields&FieldString64_6 != 0 {
		s.WriteVaultString(n.String64_6)
	}
	if n.fields&FieldIString64_1 != 0 {
		s.WriteVaultString(n.IString64_1)
	}
	if n.fields&FieldIString64_2 != 0 {
		s.WriteVaultString(n.IString64_2)
	}
	if n.fields&FieldText_1 != 0 {
		s.WriteVaultString(n.Text_1)
	}
	if n.fields&FieldText_2 != 0 {
		s.WriteVaultString(n.Text_2)
	}
	if n.fields&FieldBlob_1 != 0 {
		writeBlob(n.Blob_1)
	}
	if n.fields&FieldBlob_2 != 0 {
		writeBlob(n.Blob_2)
	}
}

// NodeRef is a directed parent->child edge. Refs live independently of the
// nodes they join; the graph may contain cycles and disconnected parts.
type NodeRef struct {
	Parent uint32
	Child  uint32
	Owner  uint32
	Seen   uint8
}

// Read decodes the wire layout.
func (r *NodeRef) Read(s *wire.BufferStream) error {
	var err error
	if r.Parent, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read node ref: %w", err)
	}
	if r.Child, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read node ref: %w", err)
	}
	if r.Owner, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read node ref: %w", err)
	}
	if r.Seen, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read node ref: %w", err)
	}
	return nil
}

// Write encodes the wire layout.
func (r NodeRef) Write(s *wire.BufferStream) {
	s.WriteU32(r.Parent)
	s.WriteU32(r.Child)
	s.WriteU32(r.Owner)
	s.WriteU8(r.Seen)
}
