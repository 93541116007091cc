package source

import "testing"

func TestSpanEmptyAndLen(t *testing.T) {
	cases := []struct {
		name  string
		span  Span
		empty bool
		len   uint32
	}{
		{"empty", Span{File: 0, Start: 5, End: 5}, true, 0},
		{"nonempty", Span{File: 0, Start: 2, End: 9}, false, 7},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.span.Empty(); got != c.empty {
				t.Errorf("Empty() = %v, want %v", got, c.empty)
			}
			if got := c.span.Len(); got != c.len {
				t.Errorf("Len() = %d, want %d", got, c.len)
			}
		})
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 5, End: 15}
	got := a.Cover(b)
	want := Span{File: 1, Start: 5, End: 20}
	if got != want {
		t.Errorf("Cover() = %+v, want %+v", got, want)
	}

	// Different files: Cover returns the receiver unchanged.
	c := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(c); got != a {
		t.Errorf("Cover() across files = %+v, want %+v", got, a)
	}
}

func TestSpanOrdering(t *testing.T) {
	a := Span{File: 0, Start: 0, End: 5}
	b := Span{File: 0, Start: 3, End: 10}
	if !a.IsLeftThan(b) {
		t.Error("expected a to be left of b")
	}
	if !b.IsRightThan(a) {
		t.Error("expected b to be right of a")
	}

	other := Span{File: 1, Start: 0, End: 5}
	if a.IsLeftThan(other) {
		t.Error("spans in different files should never compare as ordered")
	}
}
