package bencode

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Dictionary maps each key of a dictionary to the offset in the source buffer where its value starts. Values are
// not decoded; a caller positions its own Reader at the offset to read one.
type Dictionary struct {
	positions map[string]int
}

// Position returns the offset of the value stored under key.
func (d *Dictionary) Position(key []byte) (int, bool) {
	pos, ok := d.positions[string(key)]
	return pos, ok
}

func (d *Dictionary) PositionOf(key string) (int, bool) {
	pos, ok := d.positions[key]
	return pos, ok
}

func (d *Dictionary) Len() int {
	return len(d.positions)
}

// Keys returns the keys in byte order.
func (d *Dictionary) Keys() []string {
	keys := maps.Keys(d.positions)
	slices.Sort(keys)
	return keys
}
