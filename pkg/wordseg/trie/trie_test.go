package trie

import (
	"testing"

	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
)

func TestInsertFind(t *testing.T) {
	tr := New()
	np := syms(3, 1)

	node := tr.Insert(np)
	node.Payload = "parent-weight-map"

	found := tr.Root().Find(np)
	if found == nil || found.Payload != "parent-weight-map" {
		t.Fatalf("Find did not return the inserted payload: %+v", found)
	}
}

func TestFind1PartialLookup(t *testing.T) {
	tr := New()
	tr.Insert(syms(5, 6)).Payload = "leaf"

	n1, ok := tr.Root().Find1(5)
	if !ok || n1 == nil {
		t.Fatal("Find1(5) should find the first-level node")
	}
	n2, ok := n1.Find1(6)
	if !ok || n2.Payload != "leaf" {
		t.Fatal("Find1(6) from n1 should reach the leaf")
	}
}

func TestErasePrunesEmptyAncestors(t *testing.T) {
	tr := New()
	tr.Insert(syms(1, 2, 3)).Payload = "x"

	tr.Erase(syms(1, 2, 3))

	if tr.Root().Find(syms(1, 2, 3)) != nil {
		t.Fatal("node should be gone after erase")
	}
	if _, ok := tr.Root().Find1(1); ok {
		t.Fatal("erasing the only leaf should prune the now-empty ancestor chain")
	}
}

func TestEraseKeepsAncestorsStillInUse(t *testing.T) {
	tr := New()
	tr.Insert(syms(1, 2)).Payload = "a"
	tr.Insert(syms(1, 3)).Payload = "b"

	tr.Erase(syms(1, 2))

	if tr.Root().Find(syms(1, 3)) == nil {
		t.Fatal("sibling path should survive erasing another leaf")
	}
}

func TestForEachVisitsAllPayloads(t *testing.T) {
	tr := New()
	tr.Insert(syms(1)).Payload = "a"
	tr.Insert(syms(1, 2)).Payload = "b"
	tr.Insert(syms(3)).Payload = "c"

	seen := map[string]bool{}
	tr.ForEach(func(keys []symtab.Symbol, payload any) bool {
		seen[payload.(string)] = true
		return true
	})

	for _, want := range []string{"a", "b", "c"} {
		if !seen[want] {
			t.Fatalf("ForEach did not visit payload %q", want)
		}
	}
}

func syms(ids ...int) []symtab.Symbol {
	out := make([]symtab.Symbol, len(ids))
	for i, id := range ids {
		out[i] = symtab.Symbol(id)
	}
	return out
}
