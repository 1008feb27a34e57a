package strtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternDeduplicates(t *testing.T) {
	tab := New()
	a := tab.Intern("hello")
	b := tab.Intern("hello")
	c := tab.Intern("world")

	assert.Equal(t, a, b, "expected equal ids for equal strings")
	assert.NotEqual(t, a, c, "expected distinct ids for distinct strings")
	assert.Equal(t, "hello", tab.Get(a))
}

func TestNoIDIsEmpty(t *testing.T) {
	tab := New()
	assert.Empty(t, tab.Get(NoID), "Get(NoID) should be empty")
}

func TestInternStringRoundTrips(t *testing.T) {
	tab := New()
	id := tab.InternString("abc")
	assert.Equal(t, "abc", tab.StringBytes(id))
}

func TestLenCountsEntries(t *testing.T) {
	tab := New()
	tab.Intern("a")
	tab.Intern("b")
	tab.Intern("a")
	assert.Equal(t, 2, tab.Len())
}
