package psast

import (
	"context"
	"iter"
)

// Inspect traverses the tree rooted at n in source order, calling f for each
// node. If f returns false the children of that node are skipped.
func Inspect(n Ast, f func(Ast) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range n.children() {
		Inspect(c, f)
	}
}

// Children returns the direct child nodes of n in source order.
func Children(n Ast) []Ast {
	if n == nil {
		return nil
	}
	return n.children()
}

// FindAll lazily yields every node under root (root included) that satisfies
// pred, in source order. When searchNested is false, script blocks nested
// inside root (script block expressions and function bodies) are not
// entered. The search stops between nodes once ctx is done.
func FindAll(ctx context.Context, root Ast, pred func(Ast) bool, searchNested bool) iter.Seq[Ast] {
	return func(yield func(Ast) bool) {
		if root == nil {
			return
		}
		walk(ctx, root, root, searchNested, func(n Ast) bool {
			if pred(n) {
				return yield(n)
			}
			return true
		})
	}
}

// FindAllOf is FindAll restricted to nodes of type T.
func FindAllOf[T Ast](ctx context.Context, root Ast, pred func(T) bool, searchNested bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := range FindAll(ctx, root, func(a Ast) bool {
			t, ok := a.(T)
			return ok && (pred == nil || pred(t))
		}, searchNested) {
			if !yield(n.(T)) {
				return
			}
		}
	}
}

// Find returns the first node under root that satisfies pred.
func Find(ctx context.Context, root Ast, pred func(Ast) bool, searchNested bool) (Ast, bool) {
	for n := range FindAll(ctx, root, pred, searchNested) {
		return n, true
	}
	return nil, false
}

// walk visits n and its descendants until visit or ctx asks to stop. It
// returns false when the walk was stopped.
func walk(ctx context.Context, n, root Ast, searchNested bool, visit func(Ast) bool) bool {
	if ctx.Err() != nil {
		return false
	}
	if !searchNested && n != root {
		if _, ok := n.(*ScriptBlockAst); ok {
			return true
		}
	}
	if !visit(n) {
		return false
	}
	for _, c := range n.children() {
		if !walk(ctx, c, root, searchNested, visit) {
			return false
		}
	}
	return true
}
