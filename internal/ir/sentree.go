package ir

import (
	"hash/fnv"

	"strobe/internal/source"
)

// SenItemKind enumerates sensitivity term kinds.
type SenItemKind uint8

const (
	// SenChanged fires when the signal value changed since the last pass.
	SenChanged SenItemKind = iota
	// SenPosedge fires on a 0->1 transition of the signal's low bit.
	SenPosedge
	// SenNegedge fires on a 1->0 transition of the signal's low bit.
	SenNegedge
	// SenBothedge fires on any transition of the signal's low bit.
	SenBothedge
	// SenHybrid marks combinational logic reclassified by cycle breaking;
	// it carries explicit change triggers like SenChanged.
	SenHybrid
	// SenCombo marks purely combinational (level) sensitivity; no signal.
	SenCombo
	// SenStatic runs once before Initial; no signal.
	SenStatic
	// SenInitial runs once at start; no signal.
	SenInitial
	// SenFinal runs once at teardown; no signal.
	SenFinal
	// SenTrue fires when the attached expression evaluates true. Used for
	// sensitivities remapped onto trigger-vector bit tests.
	SenTrue
)

// String returns a human-readable name for the item kind.
func (k SenItemKind) String() string {
	switch k {
	case SenChanged:
		return "changed"
	case SenPosedge:
		return "posedge"
	case SenNegedge:
		return "negedge"
	case SenBothedge:
		return "bothedge"
	case SenHybrid:
		return "hybrid"
	case SenCombo:
		return "combo"
	case SenStatic:
		return "static"
	case SenInitial:
		return "initial"
	case SenFinal:
		return "final"
	case SenTrue:
		return "true"
	default:
		return "unknown"
	}
}

// HasSignal reports whether items of this kind carry a signal expression.
func (k SenItemKind) HasSignal() bool {
	switch k {
	case SenChanged, SenPosedge, SenNegedge, SenBothedge, SenHybrid, SenTrue:
		return true
	default:
		return false
	}
}

// SenItem is one ordered term of a sensitivity condition.
type SenItem struct {
	Kind   SenItemKind
	Signal *Expr // nil unless Kind.HasSignal()
}

// SenKind classifies a whole sensitivity condition.
type SenKind uint8

const (
	SenKindStatic SenKind = iota
	SenKindInitial
	SenKindFinal
	SenKindComb
	SenKindClocked
	SenKindHybrid
)

func (k SenKind) String() string {
	switch k {
	case SenKindStatic:
		return "static"
	case SenKindInitial:
		return "initial"
	case SenKindFinal:
		return "final"
	case SenKindComb:
		return "comb"
	case SenKindClocked:
		return "clocked"
	case SenKindHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// SenTree is an immutable-once-classified sensitivity condition: an ordered
// set of terms. Remapping clones it with terms substituted, preserving the
// original identity in a side map for dump generation.
type SenTree struct {
	ID    SenTreeID
	Span  source.Span
	Items []SenItem
}

// Kind classifies the tree. Hybrid wins over clocked, clocked over comb,
// matching how mixed trees must be scheduled.
func (t *SenTree) Kind() SenKind {
	kind := SenKindComb
	for _, item := range t.Items {
		switch item.Kind {
		case SenStatic:
			return SenKindStatic
		case SenInitial:
			return SenKindInitial
		case SenFinal:
			return SenKindFinal
		case SenHybrid:
			kind = SenKindHybrid
		case SenChanged, SenPosedge, SenNegedge, SenBothedge, SenTrue:
			if kind != SenKindHybrid {
				kind = SenKindClocked
			}
		case SenCombo:
			// comb is the floor
		}
	}
	return kind
}

// HasClocked reports whether any term is edge-triggered.
func (t *SenTree) HasClocked() bool {
	for _, item := range t.Items {
		switch item.Kind {
		case SenChanged, SenPosedge, SenNegedge, SenBothedge, SenTrue:
			return true
		}
	}
	return false
}

// HasCombo reports whether any term is level/combinational.
func (t *SenTree) HasCombo() bool {
	for _, item := range t.Items {
		if item.Kind == SenCombo {
			return true
		}
	}
	return false
}

// HasHybrid reports whether any term came from cycle breaking.
func (t *SenTree) HasHybrid() bool {
	for _, item := range t.Items {
		if item.Kind == SenHybrid {
			return true
		}
	}
	return false
}

// FiresAtInit reports whether the first evaluation of this condition must
// count as active (changed/bothedge terms observe "change from nothing").
func (t *SenTree) FiresAtInit(edgePolicy bool) bool {
	for _, item := range t.Items {
		switch item.Kind {
		case SenChanged, SenHybrid:
			return true
		case SenPosedge, SenNegedge, SenBothedge:
			if edgePolicy {
				return true
			}
		}
	}
	return false
}

// Same reports structural equality of two trees: same item kinds in the
// same order over structurally equal signal expressions. Identity-based
// decisions (await dedup) must NOT use Same; they compare SenTreeIDs.
func (t *SenTree) Same(other *SenTree) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.Items) != len(other.Items) {
		return false
	}
	for i := range t.Items {
		if t.Items[i].Kind != other.Items[i].Kind {
			return false
		}
		if !ExprSame(t.Items[i].Signal, other.Items[i].Signal) {
			return false
		}
	}
	return true
}

// Hash returns a structural hash consistent with Same.
func (t *SenTree) Hash() uint64 {
	h := fnv.New64a()
	for _, item := range t.Items {
		h.Write([]byte{byte(item.Kind)})
		hashExpr(h, item.Signal)
	}
	return h.Sum64()
}

// ExprSame reports structural equality of two expressions.
func ExprSame(a, b *Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch ad := a.Data.(type) {
	case ConstData:
		bd := b.Data.(ConstData)
		return ad.Value == bd.Value && ad.Width == bd.Width
	case VarRefData:
		bd := b.Data.(VarRefData)
		return ad.Var == bd.Var
	case UnaryData:
		bd := b.Data.(UnaryData)
		return ad.Op == bd.Op && ExprSame(ad.Operand, bd.Operand)
	case BinaryData:
		bd := b.Data.(BinaryData)
		return ad.Op == bd.Op && ExprSame(ad.Lhs, bd.Lhs) && ExprSame(ad.Rhs, bd.Rhs)
	case MethodCallData:
		bd := b.Data.(MethodCallData)
		if ad.Recv != bd.Recv || ad.Method != bd.Method || len(ad.Args) != len(bd.Args) {
			return false
		}
		for i := range ad.Args {
			if !ExprSame(ad.Args[i], bd.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

type hashWriter interface {
	Write(p []byte) (int, error)
}

func hashExpr(h hashWriter, e *Expr) {
	if e == nil {
		h.Write([]byte{0xff})
		return
	}
	h.Write([]byte{byte(e.Kind)})
	switch d := e.Data.(type) {
	case ConstData:
		var buf [12]byte
		putUint64(buf[:8], d.Value)
		putUint32(buf[8:], d.Width)
		h.Write(buf[:])
	case VarRefData:
		var buf [4]byte
		putUint32(buf[:], uint32(d.Var))
		h.Write(buf[:])
	case UnaryData:
		h.Write([]byte{byte(d.Op)})
		hashExpr(h, d.Operand)
	case BinaryData:
		h.Write([]byte{byte(d.Op)})
		hashExpr(h, d.Lhs)
		hashExpr(h, d.Rhs)
	case MethodCallData:
		var buf [4]byte
		putUint32(buf[:], uint32(d.Recv))
		h.Write(buf[:])
		h.Write([]byte(d.Method))
		for _, arg := range d.Args {
			hashExpr(h, arg)
		}
	}
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func putUint32(b []byte, v uint32) {
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
