package physics

import (
	"errors"
	"fmt"
)

// GroupMask selects which volume pairs are tracked as contacts. Bit 0 marks a
// volume as solid; bits 1..7 are free for gameplay groups.
type GroupMask uint8

const (
	GroupSolid GroupMask = 1 << 0

	GroupSolidName = "solid"
	maxGroupBit    = 7
)

var (
	ErrUnknownGroup = errors.New("unknown collision group")
	ErrGroupBit     = errors.New("collision group bit out of range")
)

func (m GroupMask) Intersects(other GroupMask) bool {
	return m&other != 0
}

func (m GroupMask) Solid() bool {
	return m&GroupSolid != 0
}

// GroupTable maps group names to bit positions. "solid" is bit 0 and the
// names "a" to "g" are bits 1 to 7. Other names are aliased with Define.
type GroupTable struct {
	bits map[string]uint
}

func NewGroupTable() *GroupTable {
	t := &GroupTable{bits: make(map[string]uint, 8)}
	t.bits[GroupSolidName] = 0
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		t.bits[name] = uint(i + 1)
	}
	return t
}

// Define aliases name onto one of the gameplay bits (1..7).
func (t *GroupTable) Define(name string, bit uint) error {
	if bit == 0 || bit > maxGroupBit {
		return fmt.Errorf("%w: %q -> %d", ErrGroupBit, name, bit)
	}
	if name == GroupSolidName {
		return fmt.Errorf("%w: %q is reserved", ErrGroupBit, name)
	}
	t.bits[name] = bit
	return nil
}

// Resolve ORs the bits of the named groups. No names means solid.
func (t *GroupTable) Resolve(names ...string) (GroupMask, error) {
	if len(names) == 0 {
		return GroupSolid, nil
	}

	var mask GroupMask
	for _, name := range names {
		bit, ok := t.bits[name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
		}
		mask |= 1 << bit
	}
	return mask, nil
}
