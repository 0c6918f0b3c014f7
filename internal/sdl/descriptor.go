// Package sdl implements the State Description Language: descriptor files,
// the descriptor registry, and state blob (de)serialization with version
// upgrade.
package sdl

import (
	"fmt"
	"sync"

	"github.com/udisondev/moulgo/internal/wire"
)

// VarType enumerates SDL variable types.
type VarType int

const (
	VarInt VarType = iota
	VarFloat
	VarBool
	VarString32
	VarKey
	VarCreatable
	VarDouble
	VarTime
	VarByte
	VarShort
	VarAgeTimeOfDay
	VarVector3
	VarPoint3
	VarQuat
	VarRgb
	VarRgba
	VarRgb8
	VarRgba8
	VarStateDesc

	VarInvalid VarType = -1
)

// String names the type the way descriptor files spell it.
func (t VarType) String() string {
	switch t {
	case VarInt:
		return "INT"
	case VarFloat:
		return "FLOAT"
	case VarBool:
		return "BOOL"
	case VarString32:
		return "STRING32"
	case VarKey:
		return "PLKEY"
	case VarCreatable:
		return "CREATABLE"
	case VarDouble:
		return "DOUBLE"
	case VarTime:
		return "TIME"
	case VarByte:
		return "BYTE"
	case VarShort:
		return "SHORT"
	case VarAgeTimeOfDay:
		return "AGETIMEOFDAY"
	case VarVector3:
		return "VECTOR3"
	case VarPoint3:
		return "POINT3"
	case VarQuat:
		return "QUATERNION"
	case VarRgb:
		return "RGB"
	case VarRgba:
		return "RGBA"
	case VarRgb8:
		return "RGB8"
	case VarRgba8:
		return "RGBA8"
	case VarStateDesc:
		return "STATEDESC"
	default:
		return "INVALID"
	}
}

// VarDefault is an optional parsed DEFAULT= literal.
type VarDefault struct {
	Valid  bool
	Int    int32
	Float  float32
	Double float64
	Bool   bool
	String string
	Vector wire.Vector3
	Quat   wire.Quaternion
	Color  wire.ColorRgba
	Color8 wire.ColorRgba8
	Time   wire.UnifiedTime
}

// VarDescriptor describes one variable slot.
type VarDescriptor struct {
	Type          VarType
	TypeName      string // for VarStateDesc
	Name          string
	Size          int // array size; always >= 1
	Default       VarDefault
	DefaultOption string
	DisplayOption string
}

// StateDescriptor is one STATEDESC block at one version.
type StateDescriptor struct {
	Name    string
	Version int
	Vars    []VarDescriptor

	varIndex map[string]int
}

// VarByName returns the index of the named variable, or -1.
func (d *StateDescriptor) VarByName(name string) int {
	if idx, ok := d.varIndex[name]; ok {
		return idx
	}
	return -1
}

func (d *StateDescriptor) buildIndex() {
	d.varIndex = make(map[string]int, len(d.Vars))
	for i := range d.Vars {
		d.varIndex[d.Vars[i].Name] = i
	}
}

// DescriptorDb is the registry of all loaded descriptors, keyed by name and
// version. Registration happens at startup; lookups afterwards are
// concurrent.
type DescriptorDb struct {
	mu          sync.RWMutex
	descriptors map[string]map[int]*StateDescriptor
}

// NewDescriptorDb returns an empty registry.
func NewDescriptorDb() *DescriptorDb {
	return &DescriptorDb{descriptors: make(map[string]map[int]*StateDescriptor)}
}

// Register adds a descriptor; a duplicate name+version is an error.
func (db *DescriptorDb) Register(desc *StateDescriptor) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	desc.buildIndex()
	versions, ok := db.descriptors[desc.Name]
	if !ok {
		versions = make(map[int]*StateDescriptor)
		db.descriptors[desc.Name] = versions
	}
	if _, exists := versions[desc.Version]; exists {
		return fmt.Errorf("duplicate descriptor %s version %d", desc.Name, desc.Version)
	}
	versions[desc.Version] = desc
	return nil
}

// Find returns the exact name+version match, or nil.
func (db *DescriptorDb) Find(name string, version int) *StateDescriptor {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.descriptors[name][version]
}

// FindLatest returns the highest registered version of name, or nil.
func (db *DescriptorDb) FindLatest(name string) *StateDescriptor {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var latest *StateDescriptor
	for _, desc := range db.descriptors[name] {
		if latest == nil || desc.Version > latest.Version {
			latest = desc
		}
	}
	return latest
}
