package ir

import (
	"fmt"

	"strobe/internal/source"
)

// Arena allocates all IR nodes. It hands out NodeIDs (side-table keys) and
// keeps allocation counts for size statistics.
type Arena struct {
	nextNode NodeID
	stmts    uint64
	exprs    uint64
	blocks   uint64
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{nextNode: 1} // 0 is NoNodeID
}

func (a *Arena) newExpr(kind ExprKind, span source.Span, data ExprData) *Expr {
	id := a.nextNode
	a.nextNode++
	a.exprs++
	return &Expr{Kind: kind, ID: id, Span: span, Data: data}
}

func (a *Arena) newStmt(kind StmtKind, span source.Span, data StmtData) *Stmt {
	id := a.nextNode
	a.nextNode++
	a.stmts++
	return &Stmt{Kind: kind, ID: id, Span: span, Data: data}
}

// NewBlock creates an empty statement container.
func (a *Arena) NewBlock() *Block {
	a.blocks++
	return &Block{arena: a}
}

// StmtCount returns the number of statements allocated so far.
func (a *Arena) StmtCount() uint64 { return a.stmts }

// ExprCount returns the number of expressions allocated so far.
func (a *Arena) ExprCount() uint64 { return a.exprs }

// NodeCount returns the total number of nodes allocated so far.
func (a *Arena) NodeCount() uint64 { return a.stmts + a.exprs }

// Block is an ordered statement container enforcing single ownership:
// a statement is owned by exactly one block at a time. Append panics on an
// already-owned or dropped statement; Take/TakeAll detach; Drop poisons a
// detached subtree so accidental reuse panics.
type Block struct {
	arena *Arena
	stmts []*Stmt
}

// Arena returns the arena this block allocates from.
func (b *Block) Arena() *Arena { return b.arena }

// Append transfers ownership of s to b.
func (b *Block) Append(s *Stmt) {
	if s == nil {
		panic("ir: append of nil statement")
	}
	if s.dropped {
		panic(fmt.Sprintf("ir: append of dropped %s statement (node %d)", s.Kind, s.ID))
	}
	if s.owner != nil {
		panic(fmt.Sprintf("ir: %s statement (node %d) is already owned", s.Kind, s.ID))
	}
	s.owner = b
	b.stmts = append(b.stmts, s)
}

// AppendAll transfers ownership of every statement to b, in order.
func (b *Block) AppendAll(stmts []*Stmt) {
	for _, s := range stmts {
		b.Append(s)
	}
}

// Prepend transfers ownership of s to b, placing it before the existing
// statements.
func (b *Block) Prepend(s *Stmt) {
	b.Append(s)
	copy(b.stmts[1:], b.stmts[:len(b.stmts)-1])
	b.stmts[0] = s
}

// Replace unlinks old and splices repl into its position, in order. The
// replacement statements must be unowned; old is returned detached.
func (b *Block) Replace(old *Stmt, repl ...*Stmt) *Stmt {
	if old == nil || old.owner != b {
		panic("ir: replace of statement not owned by this block")
	}
	idx := -1
	for i, cur := range b.stmts {
		if cur == old {
			idx = i
			break
		}
	}
	if idx < 0 {
		panic("ir: ownership bookkeeping out of sync")
	}
	old.owner = nil
	for _, s := range repl {
		if s == nil {
			panic("ir: replace with nil statement")
		}
		if s.dropped {
			panic(fmt.Sprintf("ir: replace with dropped %s statement (node %d)", s.Kind, s.ID))
		}
		if s.owner != nil {
			panic(fmt.Sprintf("ir: %s statement (node %d) is already owned", s.Kind, s.ID))
		}
		s.owner = b
	}
	out := make([]*Stmt, 0, len(b.stmts)-1+len(repl))
	out = append(out, b.stmts[:idx]...)
	out = append(out, repl...)
	out = append(out, b.stmts[idx+1:]...)
	b.stmts = out
	return old
}

// Stmts returns the owned statements in order.
// Do not modify the returned slice; it aliases the block's storage.
func (b *Block) Stmts() []*Stmt {
	return b.stmts
}

func (b *Block) Len() int    { return len(b.stmts) }
func (b *Block) Empty() bool { return len(b.stmts) == 0 }

// Take unlinks s from b and returns it unowned. Panics when s does not
// belong to b.
func (b *Block) Take(s *Stmt) *Stmt {
	if s == nil || s.owner != b {
		panic("ir: take of statement not owned by this block")
	}
	for i, cur := range b.stmts {
		if cur == s {
			b.stmts = append(b.stmts[:i], b.stmts[i+1:]...)
			s.owner = nil
			return s
		}
	}
	panic("ir: ownership bookkeeping out of sync")
}

// TakeAll unlinks every statement and returns them in order. The block is
// empty afterwards.
func (b *Block) TakeAll() []*Stmt {
	out := b.stmts
	for _, s := range out {
		s.owner = nil
	}
	b.stmts = nil
	return out
}

// Drop unlinks s from b and poisons the whole subtree: any later Append of
// s or a statement nested inside it panics.
func (b *Block) Drop(s *Stmt) {
	b.Take(s)
	poisonStmt(s)
}

// DropDetached poisons an already-unowned statement subtree.
func DropDetached(s *Stmt) {
	if s == nil {
		return
	}
	if s.owner != nil {
		panic(fmt.Sprintf("ir: drop of owned %s statement (node %d); take it first", s.Kind, s.ID))
	}
	poisonStmt(s)
}

func poisonStmt(s *Stmt) {
	s.dropped = true
	for _, nested := range nestedBlocks(s) {
		for _, inner := range nested.stmts {
			poisonStmt(inner)
		}
	}
}

// nestedBlocks returns the blocks directly contained in a statement.
func nestedBlocks(s *Stmt) []*Block {
	switch d := s.Data.(type) {
	case IfData:
		out := make([]*Block, 0, 2)
		if d.Then != nil {
			out = append(out, d.Then)
		}
		if d.Else != nil {
			out = append(out, d.Else)
		}
		return out
	case WhileData:
		if d.Body != nil {
			return []*Block{d.Body}
		}
	case ForkData:
		out := make([]*Block, 0, len(d.Branches))
		for _, br := range d.Branches {
			if br.Body != nil {
				out = append(out, br.Body)
			}
		}
		return out
	}
	return nil
}
