// Package symtab replaces the process-wide symbol table and character
// buffer of the original implementation with an explicit context object.
// Every component that needs to intern a string or address a character
// span takes a *Ctx rather than reaching for global state, which keeps
// tests hermetic and makes the lifetime of interned data obvious.
package symtab

import "fmt"

// Symbol is an interned token. Symbols compare, hash, and order by
// identity: two Symbols are equal iff they were interned from equal
// strings in the same Ctx.
type Symbol int32

// Span is a (start, length) pair into a Ctx's character buffer.
type Span struct {
	Start int
	Len   int
}

// End returns the exclusive end offset of the span.
func (s Span) End() int { return s.Start + s.Len }

// Ctx owns the symbol intern table and the character buffer that
// Spans index into. The zero value is ready to use.
type Ctx struct {
	id2str []string
	str2id map[string]Symbol
	buf    []rune
}

// New returns an initialized Ctx.
func New() *Ctx {
	return &Ctx{
		str2id: make(map[string]Symbol),
	}
}

// Intern returns the Symbol for s, interning it if this is the first
// occurrence. Equal strings always yield the same Symbol.
func (c *Ctx) Intern(s string) Symbol {
	if c.str2id == nil {
		c.str2id = make(map[string]Symbol)
	}
	if id, ok := c.str2id[s]; ok {
		return id
	}
	id := Symbol(len(c.id2str))
	c.id2str = append(c.id2str, s)
	c.str2id[s] = id
	return id
}

// Lookup returns the Symbol for s without interning it, and whether it
// was already present.
func (c *Ctx) Lookup(s string) (Symbol, bool) {
	id, ok := c.str2id[s]
	return id, ok
}

// String returns the string content of a Symbol. Panics on an
// out-of-range Symbol, which indicates a bug (a Symbol from a
// different Ctx, most likely).
func (c *Ctx) String(s Symbol) string {
	if int(s) < 0 || int(s) >= len(c.id2str) {
		panic(fmt.Sprintf("symtab: symbol %d out of range (table has %d entries)", s, len(c.id2str)))
	}
	return c.id2str[s]
}

// NumSymbols reports how many distinct symbols have been interned.
func (c *Ctx) NumSymbols() int { return len(c.id2str) }

// Append copies s onto the end of the character buffer and returns the
// Span addressing it.
func (c *Ctx) Append(s string) Span {
	start := len(c.buf)
	for _, r := range s {
		c.buf = append(c.buf, r)
	}
	return Span{Start: start, Len: len(c.buf) - start}
}

// Text returns the substring addressed by sp.
func (c *Ctx) Text(sp Span) string {
	return string(c.buf[sp.Start:sp.End()])
}

// Rune returns the character at absolute buffer offset i.
func (c *Ctx) Rune(i int) rune { return c.buf[i] }

// Len reports the current length of the character buffer.
func (c *Ctx) Len() int { return len(c.buf) }

// Sub returns the sub-span of sp starting at offset i (relative to
// sp.Start) with length n.
func (sp Span) Sub(i, n int) Span {
	return Span{Start: sp.Start + i, Len: n}
}
