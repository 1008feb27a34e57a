// Package strtab implements the compiler's string intern table: an
// append-only byte buffer that deduplicates identifiers and stores
// string literals with an embedded 4-byte length prefix, per spec.md §3/§6.
package strtab

import (
	"encoding/binary"
	"hash/fnv"
)

// ID is an opaque, non-negative handle into a Table. 0 is reserved as the
// null/empty-string id for every table.
type ID uint32

const NoID ID = 0

// Table is the append-only byte buffer. Identifiers are stored as their
// raw bytes; string literals are additionally prefixed with a 4-byte
// little-endian length so the backend can emit them verbatim (spec.md §6:
// "Strings are emitted with a 4-byte little-endian length prefix").
type Table struct {
	buf     []byte
	offsets []uint32       // offsets[id] = start offset of entry id in buf
	lens    []uint32       // lens[id] = length of the raw text (sans any length prefix)
	byHash  map[uint64][]ID // dedup index for Intern
}

func New() *Table {
	t := &Table{byHash: make(map[uint64][]ID)}
	// id 0 is reserved; push a sentinel entry so offsets/lens stay 1-indexed by ID.
	t.offsets = append(t.offsets, 0)
	t.lens = append(t.lens, 0)
	return t
}

func hashOf(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// Intern deduplicates s and returns its ID. Repeated calls with an equal
// string return the same ID without growing the buffer.
func (t *Table) Intern(s string) ID {
	h := hashOf(s)
	for _, id := range t.byHash[h] {
		if t.Get(id) == s {
			return id
		}
	}
	return t.append(s, h)
}

func (t *Table) append(s string, h uint64) ID {
	off := uint32(len(t.buf))
	t.buf = append(t.buf, s...)
	id := ID(len(t.offsets))
	t.offsets = append(t.offsets, off)
	t.lens = append(t.lens, uint32(len(s)))
	t.byHash[h] = append(t.byHash[h], id)
	return id
}

// Get returns the interned text for id. Returns "" for NoID.
func (t *Table) Get(id ID) string {
	if id == NoID || int(id) >= len(t.offsets) {
		return ""
	}
	off, n := t.offsets[id], t.lens[id]
	return string(t.buf[off : off+n])
}

// InternString stores a string literal with its 4-byte length prefix
// embedded ahead of the bytes, as the backend layout requires. The
// returned ID's Get value therefore begins with the 4 prefix bytes; use
// StringBytes to recover the literal payload without the prefix.
func (t *Table) InternString(s string) ID {
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(s)))
	full := string(prefix[:]) + s
	return t.append(full, hashOf(full))
}

// StringBytes strips the 4-byte length prefix written by InternString.
func (t *Table) StringBytes(id ID) string {
	raw := t.Get(id)
	if len(raw) < 4 {
		return ""
	}
	n := binary.LittleEndian.Uint32([]byte(raw[:4]))
	if int(n) > len(raw)-4 {
		return raw[4:]
	}
	return raw[4 : 4+n]
}

// Len reports how many entries have been interned (excluding the id-0
// sentinel).
func (t *Table) Len() int { return len(t.offsets) - 1 }
