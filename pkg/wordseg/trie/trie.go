// Package trie implements the prefix index used by the adaptor
// grammar: a trie keyed by a sequence of symbols, whose nodes carry a
// caller-supplied payload. It backs both the RHS-symbol-sequence trie
// (rhsParentWeight) and the terminal-yield trie (termsPyTrees).
package trie

import "github.com/cognicore/wordseg/pkg/wordseg/symtab"

// Node is one trie node. Payload is caller-defined (a parent->weight
// map for rhsParentWeight, a set of cached derivations for
// termsPyTrees); it is left as `any` so package trie stays agnostic
// to what it indexes.
type Node struct {
	children map[symtab.Symbol]*Node
	Payload  any
}

// newNode returns an empty node with a nil Payload.
func newNode() *Node { return &Node{children: make(map[symtab.Symbol]*Node)} }

// Trie is a root Node. Insert creates any missing intermediate nodes
// with nil payloads; callers set the payload of the node Insert
// returns.
type Trie struct {
	root *Node
}

// New returns an empty Trie.
func New() *Trie { return &Trie{root: newNode()} }

// Root returns the trie's root node.
func (t *Trie) Root() *Node { return t.root }

// Find1 advances from n by one key, returning the child node (or nil
// if absent) and whether it was present.
func (n *Node) Find1(key symtab.Symbol) (*Node, bool) {
	c, ok := n.children[key]
	return c, ok
}

// Find advances from n through a whole sequence of keys, returning
// the terminal node reached, or nil if the path doesn't fully exist.
func (n *Node) Find(seq []symtab.Symbol) *Node {
	cur := n
	for _, k := range seq {
		next, ok := cur.children[k]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// Insert walks seq from the trie root, creating any missing
// intermediate nodes, and returns the terminal node so the caller can
// set or update its Payload.
func (t *Trie) Insert(seq []symtab.Symbol) *Node {
	cur := t.root
	for _, k := range seq {
		next, ok := cur.children[k]
		if !ok {
			next = newNode()
			cur.children[k] = next
		}
		cur = next
	}
	return cur
}

// Erase removes the node at the end of seq, pruning any ancestor left
// with no children and a nil Payload as a result. It is a no-op if
// seq does not fully resolve to an existing node.
func (t *Trie) Erase(seq []symtab.Symbol) {
	path := make([]*Node, 1, len(seq)+1)
	path[0] = t.root
	cur := t.root
	for _, k := range seq {
		next, ok := cur.children[k]
		if !ok {
			return
		}
		path = append(path, next)
		cur = next
	}
	cur.Payload = nil

	// Prune empty ancestors from the leaf upward.
	for i := len(seq) - 1; i >= 0; i-- {
		child := path[i+1]
		if len(child.children) > 0 || child.Payload != nil {
			break
		}
		delete(path[i].children, seq[i])
	}
}

// ForEach performs a non-allocating visitor walk of every node whose
// Payload is non-nil, calling fn with the key sequence (reused across
// calls — copy it if you need to retain it) and the payload. If fn
// returns false, the walk stops early.
func (t *Trie) ForEach(fn func(keys []symtab.Symbol, payload any) bool) {
	keys := make([]symtab.Symbol, 0, 8)
	var walk func(n *Node) bool
	walk = func(n *Node) bool {
		if n.Payload != nil {
			if !fn(keys, n.Payload) {
				return false
			}
		}
		for k, child := range n.children {
			keys = append(keys, k)
			cont := walk(child)
			keys = keys[:len(keys)-1]
			if !cont {
				return false
			}
		}
		return true
	}
	walk(t.root)
}
