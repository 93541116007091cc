package ast

import "testing"

func TestArenaAllocateAndGet(t *testing.T) {
	a := NewArena[int](0)
	id1 := a.Allocate(10)
	id2 := a.Allocate(20)

	if id1 != 1 || id2 != 2 {
		t.Errorf("Allocate IDs = %d, %d, want 1, 2", id1, id2)
	}
	if got := *a.Get(id1); got != 10 {
		t.Errorf("Get(%d) = %d, want 10", id1, got)
	}
	if got := *a.Get(id2); got != 20 {
		t.Errorf("Get(%d) = %d, want 20", id2, got)
	}
	if a.Get(0) != nil {
		t.Error("Get(0) should be nil (no element)")
	}
}

func TestArenaLenAndSlice(t *testing.T) {
	a := NewArena[string](4)
	a.Allocate("a")
	a.Allocate("b")

	if a.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.Len())
	}
	s := a.Slice()
	if len(s) != 2 || s[0] != "a" || s[1] != "b" {
		t.Errorf("Slice() = %v, want [a b]", s)
	}
}
