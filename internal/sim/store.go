package sim

import (
	"fmt"

	"fortio.org/safecast"

	"strobe/internal/ir"
)

// Store holds the flat value state of a netlist: one 64-bit cell per
// variable, plus a word array for each trigger vector, whose width may
// exceed a single cell. Values are kept canonical: every write is masked
// to the variable's declared width.
type Store struct {
	cells []uint64
	masks []uint64
	words [][]uint64
}

// NewStore sizes the state for every variable the netlist declares.
func NewStore(n *ir.Netlist) *Store {
	vars := n.Vars()
	st := &Store{
		cells: make([]uint64, len(vars)),
		masks: make([]uint64, len(vars)),
		words: make([][]uint64, len(vars)),
	}
	for i, v := range vars {
		st.masks[i] = widthMask(v.Width)
		if v.Flags.Has(ir.VarTrigVec) {
			st.words[i] = make([]uint64, (int(v.Width)+63)/64)
		}
	}
	return st
}

// widthMask returns the canonical-value mask for a bit width. Scheduler
// objects have width zero and trigger vectors may exceed 64 bits; both get
// the identity mask since their cells never hold data values.
func widthMask(width uint32) uint64 {
	if width == 0 || width >= 64 {
		return ^uint64(0)
	}
	return 1<<width - 1
}

// Get returns the value of a scalar variable.
func (st *Store) Get(v ir.VarID) uint64 {
	return st.cells[v-1]
}

// Set writes a scalar variable, masking to its width.
func (st *Store) Set(v ir.VarID, val uint64) {
	st.cells[v-1] = val & st.masks[v-1]
}

func (st *Store) mask(v ir.VarID) uint64 {
	return st.masks[v-1]
}

func (st *Store) vec(v ir.VarID) []uint64 {
	w := st.words[v-1]
	if w == nil {
		panic(fmt.Sprintf("sim: variable %d is not a trigger vector", v))
	}
	return w
}

// Word reads one 64-bit word of a trigger vector.
func (st *Store) Word(v ir.VarID, index uint64) uint64 {
	words := st.vec(v)
	i, err := safecast.Conv[int](index)
	if err != nil || i >= len(words) {
		panic(fmt.Sprintf("sim: word index %d out of range for %d-word vector", index, len(words)))
	}
	return words[i]
}

// Any reports whether any bit of a trigger vector is set.
func (st *Store) Any(v ir.VarID) bool {
	for _, w := range st.vec(v) {
		if w != 0 {
			return true
		}
	}
	return false
}

// Bit reads one bit of a trigger vector.
func (st *Store) Bit(v ir.VarID, index uint64) bool {
	return st.Word(v, index/64)>>(index%64)&1 != 0
}

// SetBit assigns one bit of a trigger vector.
func (st *Store) SetBit(v ir.VarID, index uint64, val bool) {
	words := st.vec(v)
	i, err := safecast.Conv[int](index / 64)
	if err != nil || i >= len(words) {
		panic(fmt.Sprintf("sim: bit index %d out of range for %d-word vector", index, len(words)))
	}
	bit := uint64(1) << (index % 64)
	if val {
		words[i] |= bit
	} else {
		words[i] &^= bit
	}
}

// Clear zeroes a trigger vector.
func (st *Store) Clear(v ir.VarID) {
	words := st.vec(v)
	for i := range words {
		words[i] = 0
	}
}

// ThisOr ors src into dst, word by word. The vectors share one bit layout
// so their widths must agree.
func (st *Store) ThisOr(dst, src ir.VarID) {
	d, s := st.vec(dst), st.vec(src)
	if len(d) != len(s) {
		panic(fmt.Sprintf("sim: vector width mismatch: %d words vs %d", len(d), len(s)))
	}
	for i := range d {
		d[i] |= s[i]
	}
}

// AndNot sets dst to a AND NOT b, word by word.
func (st *Store) AndNot(dst, a, b ir.VarID) {
	d, x, y := st.vec(dst), st.vec(a), st.vec(b)
	if len(d) != len(x) || len(d) != len(y) {
		panic(fmt.Sprintf("sim: vector width mismatch: %d, %d, %d words", len(d), len(x), len(y)))
	}
	for i := range d {
		d[i] = x[i] &^ y[i]
	}
}

// frame carries the argument bindings of one procedure activation. By-ref
// arguments alias a resolved variable, by-value arguments hold a private
// copy; everything else lives in the store. A nil frame binds nothing.
type frame struct {
	alias map[ir.VarID]ir.VarID
	local map[ir.VarID]uint64
}

func newFrame() *frame {
	return &frame{
		alias: make(map[ir.VarID]ir.VarID),
		local: make(map[ir.VarID]uint64),
	}
}

// resolve follows a by-ref binding to the variable it aliases. Targets were
// resolved through the caller's frame at spawn time, so one hop suffices.
func (fr *frame) resolve(v ir.VarID) ir.VarID {
	if fr != nil {
		if target, ok := fr.alias[v]; ok {
			return target
		}
	}
	return v
}
