package sdl

import (
	"fmt"

	"github.com/udisondev/moulgo/internal/moul"
	"github.com/udisondev/moulgo/internal/wire"
)

// Blob header flags.
const (
	blobHasUoid     uint16 = 1 << 0
	blobVarLengthIO uint16 = 1 << 1
)

// ioVersion is the only blob format version the server speaks.
const ioVersion uint8 = 6

// Per-variable flags.
const (
	varHasValue            uint8 = 1 << 0
	varIsDirty             uint8 = 1 << 1
	varWantTimestamp       uint8 = 1 << 2
	varHasTimestamp        uint8 = 1 << 3
	varSameAsDefault       uint8 = 1 << 4
	varHasNotificationInfo uint8 = 1 << 5
)

// Variable holds one descriptor slot's runtime value: per-type arrays sized
// by the descriptor, plus the dirty/timestamp bookkeeping bits.
type Variable struct {
	Desc *VarDescriptor

	Flags            uint8
	Timestamp        wire.UnifiedTime
	NotificationHint string

	Ints       []int32
	Shorts     []int16
	Bytes      []int8
	Floats     []float32
	Doubles    []float64
	Bools      []bool
	Strings    []string
	Keys       []moul.Uoid
	Creatables []moul.Creatable
	Times      []wire.UnifiedTime
	Vectors    []wire.Vector3
	Quats      []wire.Quaternion
	Colors     []wire.ColorRgba
	Colors8    []wire.ColorRgba8
	Children   []*State
}

// newVariable allocates the value array for desc, applying the parsed
// default where one exists.
func newVariable(desc *VarDescriptor, db *DescriptorDb) *Variable {
	v := &Variable{Desc: desc}
	size := desc.Size
	switch desc.Type {
	case VarInt:
		v.Ints = make([]int32, size)
	case VarShort:
		v.Shorts = make([]int16, size)
	case VarByte:
		v.Bytes = make([]int8, size)
	case VarFloat, VarAgeTimeOfDay:
		v.Floats = make([]float32, size)
	case VarDouble:
		v.Doubles = make([]float64, size)
	case VarBool:
		v.Bools = make([]bool, size)
	case VarString32:
		v.Strings = make([]string, size)
	case VarKey:
		v.Keys = make([]moul.Uoid, size)
		for i := range v.Keys {
			v.Keys[i] = moul.NewUoid()
		}
	case VarCreatable:
		v.Creatables = make([]moul.Creatable, size)
	case VarTime:
		v.Times = make([]wire.UnifiedTime, size)
	case VarVector3, VarPoint3:
		v.Vectors = make([]wire.Vector3, size)
	case VarQuat:
		v.Quats = make([]wire.Quaternion, size)
	case VarRgb, VarRgba:
		v.Colors = make([]wire.ColorRgba, size)
	case VarRgb8, VarRgba8:
		v.Colors8 = make([]wire.ColorRgba8, size)
	case VarStateDesc:
		v.Children = make([]*State, size)
		if db != nil {
			if childDesc := db.FindLatest(desc.TypeName); childDesc != nil {
				for i := range v.Children {
					v.Children[i] = NewState(childDesc, db)
				}
			}
		}
	}
	if desc.Default.Valid {
		v.applyDefault()
		v.Flags |= varSameAsDefault
	}
	return v
}

func (v *Variable) applyDefault() {
	def := v.Desc.Default
	switch v.Desc.Type {
	case VarInt:
		for i := range v.Ints {
			v.Ints[i] = def.Int
		}
	case VarShort:
		for i := range v.Shorts {
			v.Shorts[i] = int16(def.Int)
		}
	case VarByte:
		for i := range v.Bytes {
			v.Bytes[i] = int8(def.Int)
		}
	case VarFloat, VarAgeTimeOfDay:
		for i := range v.Floats {
			v.Floats[i] = def.Float
		}
	case VarDouble:
		for i := range v.Doubles {
			v.Doubles[i] = def.Double
		}
	case VarBool:
		for i := range v.Bools {
			v.Bools[i] = def.Bool
		}
	case VarString32:
		for i := range v.Strings {
			v.Strings[i] = def.String
		}
	case VarTime:
		for i := range v.Times {
			v.Times[i] = def.Time
		}
	case VarVector3, VarPoint3:
		for i := range v.Vectors {
			v.Vectors[i] = def.Vector
		}
	case VarQuat:
		for i := range v.Quats {
			v.Quats[i] = def.Quat
		}
	case VarRgb, VarRgba:
		for i := range v.Colors {
			v.Colors[i] = def.Color
		}
	case VarRgb8, VarRgba8:
		for i := range v.Colors8 {
			v.Colors8[i] = def.Color8
		}
	}
}

// State is a descriptor instance: a values vector parallel to the
// descriptor's variables.
type State struct {
	Desc    *StateDescriptor
	HasUoid bool
	Object  moul.Uoid
	Vars    []*Variable
}

// NewState builds a default-initialized state for desc. db resolves nested
// state-desc variables and may be nil in tests without nesting.
func NewState(desc *StateDescriptor, db *DescriptorDb) *State {
	st := &State{Desc: desc, Object: moul.NewUoid()}
	st.Vars = make([]*Variable, len(desc.Vars))
	for i := range desc.Vars {
		st.Vars[i] = newVariable(&desc.Vars[i], db)
	}
	return st
}

// Var returns the named variable, or nil.
func (st *State) Var(name string) *Variable {
	idx := st.Desc.VarByName(name)
	if idx < 0 {
		return nil
	}
	return st.Vars[idx]
}

// ReadBlob decodes a state blob. The persisted descriptor version is looked
// up exactly; if it is older than the newest known version the state is
// upgraded after decoding.
func ReadBlob(data []byte, db *DescriptorDb) (*State, error) {
	s := wire.FromBytes(data)

	flags, err := s.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("read sdl blob: %w", err)
	}

	var object moul.Uoid
	hasUoid := flags&blobHasUoid != 0
	if hasUoid {
		if err := object.Read(s); err != nil {
			return nil, fmt.Errorf("read sdl blob: %w", err)
		}
	}

	nameLen, err := s.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("read sdl blob: %w", err)
	}
	name, err := s.ReadString(int(nameLen))
	if err != nil {
		return nil, fmt.Errorf("read sdl blob: %w", err)
	}
	version, err := s.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("read sdl blob: %w", err)
	}
	io, err := s.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("read sdl blob: %w", err)
	}
	if io != ioVersion {
		return nil, fmt.Errorf("read sdl blob: unsupported io version %d", io)
	}

	desc := db.Find(name, int(version))
	if desc == nil {
		return nil, fmt.Errorf("read sdl blob: unknown descriptor %s version %d", name, version)
	}

	st := NewState(desc, db)
	st.HasUoid = hasUoid
	st.Object = object

	var count int
	if flags&blobVarLengthIO != 0 {
		high, err := s.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("read sdl blob: %w", err)
		}
		low, err := s.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("read sdl blob: %w", err)
		}
		count = int(high)<<8 | int(low)
	} else {
		c, err := s.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("read sdl blob: %w", err)
		}
		count = int(c)
	}

	for i := 0; i < count; i++ {
		nameLen, err := s.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("read sdl var: %w", err)
		}
		varName, err := s.ReadString(int(nameLen))
		if err != nil {
			return nil, fmt.Errorf("read sdl var: %w", err)
		}
		varFlags, err := s.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("read sdl var %s: %w", varName, err)
		}

		variable := st.Var(varName)
		if variable == nil {
			return nil, fmt.Errorf("read sdl var: %s not in descriptor %s v%d", varName, name, version)
		}
		variable.Flags = varFlags

		if varFlags&varHasNotificationInfo != 0 {
			if _, err := s.ReadBool(); err != nil {
				return nil, fmt.Errorf("read sdl var %s: %w", varName, err)
			}
			if variable.NotificationHint, err = s.ReadSafeString(); err != nil {
				return nil, fmt.Errorf("read sdl var %s: %w", varName, err)
			}
		}
		if varFlags&varHasTimestamp != 0 {
			if err := variable.Timestamp.Read(s); err != nil {
				return nil, fmt.Errorf("read sdl var %s: %w", varName, err)
			}
		}
		if varFlags&varHasValue != 0 && varFlags&varSameAsDefault == 0 {
			if err := variable.readValues(s, db); err != nil {
				return nil, fmt.Errorf("read sdl var %s: %w", varName, err)
			}
		}
	}

	if latest := db.FindLatest(name); latest != nil && latest.Version > desc.Version {
		st = st.Upgrade(latest, db)
	}
	return st, nil
}

// WriteBlob encodes the state.
func (st *State) WriteBlob() []byte {
	s := wire.NewBufferStream(256)

	flags := blobVarLengthIO
	if st.HasUoid {
		flags |= blobHasUoid
	}
	s.WriteU16(flags)
	if st.HasUoid {
		st.Object.Write(s)
	}
	s.WriteU16(uint16(len(st.Desc.Name)))
	s.WriteString(st.Desc.Name)
	s.WriteU16(uint16(st.Desc.Version))
	s.WriteU8(ioVersion)

	s.WriteU8(uint8(len(st.Vars) >> 8))
	s.WriteU8(uint8(len(st.Vars)))

	for _, variable := range st.Vars {
		s.WriteU8(uint8(len(variable.Desc.Name)))
		s.WriteString(variable.Desc.Name)

		varFlags := variable.Flags | varHasValue
		if variable.NotificationHint == "" {
			varFlags &^= varHasNotificationInfo
		}
		s.WriteU8(varFlags)

		if varFlags&varHasNotificationInfo != 0 {
			s.WriteBool(false)
			s.WriteSafeString(variable.NotificationHint)
		}
		if varFlags&varHasTimestamp != 0 {
			variable.Timestamp.Write(s)
		}
		if varFlags&varSameAsDefault == 0 {
			variable.writeValues(s)
		}
	}
	return s.Bytes()
}

func (v *Variable) readValues(s *wire.BufferStream, db *DescriptorDb) error {
	var err error
	for i := 0; i < v.Desc.Size; i++ {
		switch v.Desc.Type {
		case VarInt:
			if v.Ints[i], err = s.ReadI32(); err != nil {
				return err
			}
		case VarShort:
			if v.Shorts[i], err = s.ReadI16(); err != nil {
				return err
			}
		case VarByte:
			var b byte
			if b, err = s.ReadU8(); err != nil {
				return err
			}
			v.Bytes[i] = int8(b)
		case VarFloat, VarAgeTimeOfDay:
			if v.Floats[i], err = s.ReadF32(); err != nil {
				return err
			}
		case VarDouble:
			if v.Doubles[i], err = s.ReadF64(); err != nil {
				return err
			}
		case VarBool:
			if v.Bools[i], err = s.ReadBool(); err != nil {
				return err
			}
		case VarString32:
			raw, err := s.ReadBytes(32)
			if err != nil {
				return err
			}
			end := 0
			for end < len(raw) && raw[end] != 0 {
				end++
			}
			v.Strings[i] = string(raw[:end])
		case VarKey:
			if err = v.Keys[i].Read(s); err != nil {
				return err
			}
		case VarCreatable:
			if v.Creatables[i], err = moul.ReadCreatable(s); err != nil {
				return err
			}
		case VarTime:
			if err = v.Times[i].Read(s); err != nil {
				return err
			}
		case VarVector3, VarPoint3:
			if err = v.Vectors[i].Read(s); err != nil {
				return err
			}
		case VarQuat:
			if err = v.Quats[i].Read(s); err != nil {
				return err
			}
		case VarRgb:
			if err = v.Colors[i].ReadRgb(s); err != nil {
				return err
			}
		case VarRgba:
			if err = v.Colors[i].ReadRgba(s); err != nil {
				return err
			}
		case VarRgb8:
			if err = v.Colors8[i].ReadRgb8(s); err != nil {
				return err
			}
		case VarRgba8:
			if err = v.Colors8[i].ReadRgba8(s); err != nil {
				return err
			}
		case VarStateDesc:
			length, err := s.ReadU32()
			if err != nil {
				return err
			}
			raw, err := s.ReadBytes(int(length))
			if err != nil {
				return err
			}
			child, err := ReadBlob(raw, db)
			if err != nil {
				return fmt.Errorf("nested state %s: %w", v.Desc.TypeName, err)
			}
			v.Children[i] = child
		default:
			return fmt.Errorf("unsupported var type %v", v.Desc.Type)
		}
	}
	return nil
}

func (v *Variable) writeValues(s *wire.BufferStream) {
	for i := 0; i < v.Desc.Size; i++ {
		switch v.Desc.Type {
		case VarInt:
			s.WriteI32(v.Ints[i])
		case VarShort:
			s.WriteI16(v.Shorts[i])
		case VarByte:
			s.WriteU8(uint8(v.Bytes[i]))
		case VarFloat, VarAgeTimeOfDay:
			s.WriteF32(v.Floats[i])
		case VarDouble:
			s.WriteF64(v.Doubles[i])
		case VarBool:
			s.WriteBool(v.Bools[i])
		case VarString32:
			raw := make([]byte, 32)
			copy(raw, v.Strings[i])
			s.WriteBytes(raw)
		case VarKey:
			v.Keys[i].Write(s)
		case VarCreatable:
			moul.WriteCreatable(s, v.Creatables[i])
		case VarTime:
			v.Times[i].Write(s)
		case VarVector3, VarPoint3:
			v.Vectors[i].Write(s)
		case VarQuat:
			v.Quats[i].Write(s)
		case VarRgb:
			v.Colors[i].WriteRgb(s)
		case VarRgba:
			v.Colors[i].WriteRgba(s)
		case VarRgb8:
			v.Colors8[i].WriteRgb8(s)
		case VarRgba8:
			v.Colors8[i].WriteRgba8(s)
		case VarStateDesc:
			if v.Children[i] != nil {
				blob := v.Children[i].WriteBlob()
				s.WriteU32(uint32(len(blob)))
				s.WriteBytes(blob)
			} else {
				s.WriteU32(0)
			}
		}
	}
}

// Upgrade copies this state into a newer descriptor of the same name.
// Variables matching by name and type carry their values over; everything
// else starts at the new descriptor's defaults. Nested state-desc variables
// recurse with the same policy.
func (st *State) Upgrade(newDesc *StateDescriptor, db *DescriptorDb) *State {
	if newDesc == st.Desc {
		return st
	}
	upgraded := NewState(newDesc, db)
	upgraded.HasUoid = st.HasUoid
	upgraded.Object = st.Object

	for i := range newDesc.Vars {
		target := upgraded.Vars[i]
		oldIdx := st.Desc.VarByName(newDesc.Vars[i].Name)
		if oldIdx < 0 {
			continue
		}
		source := st.Vars[oldIdx]
		if source.Desc.Type != target.Desc.Type {
			continue
		}
		target.copyFrom(source, db)
	}
	return upgraded
}

// copyFrom copies as many array entries as both sides hold.
func (v *Variable) copyFrom(src *Variable, db *DescriptorDb) {
	v.Flags = src.Flags
	v.Timestamp = src.Timestamp
	v.NotificationHint = src.NotificationHint

	n := min(v.Desc.Size, src.Desc.Size)
	switch v.Desc.Type {
	case VarInt:
		copy(v.Ints, src.Ints[:n])
	case VarShort:
		copy(v.Shorts, src.Shorts[:n])
	case VarByte:
		copy(v.Bytes, src.Bytes[:n])
	case VarFloat, VarAgeTimeOfDay:
		copy(v.Floats, src.Floats[:n])
	case VarDouble:
		copy(v.Doubles, src.Doubles[:n])
	case VarBool:
		copy(v.Bools, src.Bools[:n])
	case VarString32:
		copy(v.Strings, src.Strings[:n])
	case VarKey:
		copy(v.Keys, src.Keys[:n])
	case VarCreatable:
		copy(v.Creatables, src.Creatables[:n])
	case VarTime:
		copy(v.Times, src.Times[:n])
	case VarVector3, VarPoint3:
		copy(v.Vectors, src.Vectors[:n])
	case VarQuat:
		copy(v.Quats, src.Quats[:n])
	case VarRgb, VarRgba:
		copy(v.Colors, src.Colors[:n])
	case VarRgb8, VarRgba8:
		copy(v.Colors8, src.Colors8[:n])
	case VarStateDesc:
		for i := 0; i < n; i++ {
			child := src.Children[i]
			if child == nil {
				continue
			}
			if latest := db.FindLatest(v.Desc.TypeName); latest != nil && latest.Version > child.Desc.Version {
				child = child.Upgrade(latest, db)
			}
			v.Children[i] = child
		}
	}
}
