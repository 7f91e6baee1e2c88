package ir

// NestedBlocks returns the blocks directly contained in a statement
// (if/while bodies, fork branches).
func NestedBlocks(s *Stmt) []*Block {
	return nestedBlocks(s)
}

// WalkStmts visits every statement in the block pre-order, descending into
// nested blocks (if/while bodies, fork branches).
func WalkStmts(b *Block, fn func(*Stmt)) {
	if b == nil {
		return
	}
	for _, s := range b.stmts {
		fn(s)
		for _, nested := range nestedBlocks(s) {
			WalkStmts(nested, fn)
		}
	}
}

// WalkExprs visits e and every sub-expression pre-order.
func WalkExprs(e *Expr, fn func(*Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch d := e.Data.(type) {
	case UnaryData:
		WalkExprs(d.Operand, fn)
	case BinaryData:
		WalkExprs(d.Lhs, fn)
		WalkExprs(d.Rhs, fn)
	case MethodCallData:
		for _, arg := range d.Args {
			WalkExprs(arg, fn)
		}
	}
}

// StmtExprs visits the expressions directly attached to one statement
// (conditions, right-hand sides, call arguments), without descending into
// nested statements.
func StmtExprs(s *Stmt, fn func(*Expr)) {
	switch d := s.Data.(type) {
	case AssignData:
		WalkExprs(d.Rhs, fn)
	case IfData:
		WalkExprs(d.Cond, fn)
	case WhileData:
		WalkExprs(d.Cond, fn)
	case CallProcData:
		for _, arg := range d.Args {
			WalkExprs(arg, fn)
		}
	case ExprStmtData:
		WalkExprs(d.Expr, fn)
	case AwaitData:
		WalkExprs(d.Delay, fn)
	}
}

// ForEachVarUse reports every variable referenced anywhere in the block:
// reads (VarRef), writes (Assign targets), method receivers, and await
// scheduler objects.
func ForEachVarUse(b *Block, fn func(VarID)) {
	WalkStmts(b, func(s *Stmt) {
		switch d := s.Data.(type) {
		case AssignData:
			fn(d.Lhs)
		case AwaitData:
			fn(d.Scheduler)
		}
		StmtExprs(s, func(e *Expr) {
			switch d := e.Data.(type) {
			case VarRefData:
				fn(d.Var)
			case MethodCallData:
				fn(d.Recv)
			}
		})
	})
}

// ForEachAssigned reports every assignment target in the block.
func ForEachAssigned(b *Block, fn func(VarID)) {
	WalkStmts(b, func(s *Stmt) {
		if d, ok := s.Data.(AssignData); ok {
			fn(d.Lhs)
		}
	})
}

// HasAwait reports whether the block contains a suspension point.
func HasAwait(b *Block) bool {
	found := false
	WalkStmts(b, func(s *Stmt) {
		if s.Kind == StmtAwait {
			found = true
		}
	})
	return found
}

// CountNodes returns the number of statement and expression nodes in the
// block, the unit used by size statistics and the split threshold.
func CountNodes(b *Block) uint64 {
	var count uint64
	WalkStmts(b, func(s *Stmt) {
		count++
		StmtExprs(s, func(*Expr) {
			count++
		})
	})
	return count
}

// StmtNodeCount returns the node count of one statement subtree, nested
// blocks included.
func StmtNodeCount(s *Stmt) uint64 {
	var count uint64 = 1
	StmtExprs(s, func(*Expr) {
		count++
	})
	for _, nested := range nestedBlocks(s) {
		for _, inner := range nested.stmts {
			count += StmtNodeCount(inner)
		}
	}
	return count
}
