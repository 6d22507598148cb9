// Package tree implements the derivation-node arena used by the
// adaptor grammar's cached subtrees (CatCount tree, spec §3). Nodes
// live in a flat slice addressed by index rather than pointer.
package tree

import "github.com/cognicore/wordseg/pkg/wordseg/symtab"

// NodeID indexes into an Arena's Nodes slice. The zero value is not a
// valid node; Arena.New always returns an id >= 1.
type NodeID int32

// Node is one derivation node: a category label, a PY customer count,
// and its ordered children.
type Node struct {
	Label    symtab.Symbol
	Count    int
	Children []NodeID
}

// Arena owns a forest of derivation nodes, indexed by NodeID.
type Arena struct {
	nodes []Node // nodes[0] is an unused sentinel so NodeID zero value is invalid
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{nodes: make([]Node, 1)}
}

// New allocates a new node with the given label and no children,
// returning its id.
func (a *Arena) New(label symtab.Symbol) NodeID {
	a.nodes = append(a.nodes, Node{Label: label})
	return NodeID(len(a.nodes) - 1)
}

// Node returns a pointer to the node's data, which the caller may
// mutate (append children, adjust Count).
func (a *Arena) Node(id NodeID) *Node { return &a.nodes[id] }

// Equal reports whether the subtrees rooted at a and b are
// structurally equal, including counts and children — "structural
// equality ignoring the top count" used by MH acceptance is computed
// by the caller via EqualIgnoringTopCount.
func (ar *Arena) Equal(a, b NodeID) bool {
	na, nb := ar.Node(a), ar.Node(b)
	if na.Label != nb.Label || na.Count != nb.Count || len(na.Children) != len(nb.Children) {
		return false
	}
	for i := range na.Children {
		if !ar.Equal(na.Children[i], nb.Children[i]) {
			return false
		}
	}
	return true
}

// EqualIgnoringTopCount reports structural equality of a and b except
// that the root node's Count is not compared — the shape MH
// acceptance needs when checking "T0 = T1" (spec §4.9).
func (ar *Arena) EqualIgnoringTopCount(a, b NodeID) bool {
	na, nb := ar.Node(a), ar.Node(b)
	if na.Label != nb.Label || len(na.Children) != len(nb.Children) {
		return false
	}
	for i := range na.Children {
		if !ar.Equal(na.Children[i], nb.Children[i]) {
			return false
		}
	}
	return true
}

// SelectiveDelete removes every top subtree whose Count is zero,
// stopping at the first non-zero descendant along each branch (spec
// §3: "A selective delete removes every top subtree whose count is
// zero, stopping at the first non-zero descendant."). It returns the
// surviving children of id (id itself is never removed by its own
// call; the caller removes id if its own Count is zero and it has no
// surviving children).
func (ar *Arena) SelectiveDelete(id NodeID) []NodeID {
	n := ar.Node(id)
	var survivors []NodeID
	for _, c := range n.Children {
		child := ar.Node(c)
		if child.Count != 0 {
			survivors = append(survivors, c)
			continue
		}
		// Zero-count child: recurse to prune further down, but the
		// child itself is dropped from the parent's child list.
		ar.SelectiveDelete(c)
	}
	n.Children = survivors
	return survivors
}

// TerminalYield appends the leaf labels of the subtree rooted at id,
// in left-to-right order, to dst and returns the extended slice.
func (ar *Arena) TerminalYield(id NodeID, dst []symtab.Symbol) []symtab.Symbol {
	n := ar.Node(id)
	if len(n.Children) == 0 {
		return append(dst, n.Label)
	}
	for _, c := range n.Children {
		dst = ar.TerminalYield(c, dst)
	}
	return dst
}
