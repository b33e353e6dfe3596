package disjoint

import "testing"

func rep(t *testing.T, f *Forest[int], key int) int {
	t.Helper()
	r, ok := f.Find(key)
	if !ok {
		t.Fatalf("Find(%d): key unknown", key)
	}
	return r
}

func TestFindUnknown(t *testing.T) {
	f := New[int]()
	if _, ok := f.Find(7); ok {
		t.Fatalf("Find on empty forest reported membership")
	}
}

func TestUnionFind(t *testing.T) {
	f := New[int]()
	for i := 0; i < 6; i++ {
		f.Create(i)
	}
	f.Union(0, 1)
	f.Union(2, 3)
	f.Union(1, 3)

	if rep(t, f, 0) != rep(t, f, 3) {
		t.Fatalf("0 and 3 should share a representative")
	}
	if rep(t, f, 4) == rep(t, f, 0) {
		t.Fatalf("4 must remain a singleton")
	}

	// find(find(x)) == find(x)
	r := rep(t, f, 2)
	if rep(t, f, r) != r {
		t.Fatalf("representative of a root must be itself")
	}
}

func TestEqualRankTie(t *testing.T) {
	f := New[int]()
	f.Create(1)
	f.Create(2)

	// Equal ranks: the second argument becomes the parent.
	f.Union(1, 2)
	if got := rep(t, f, 1); got != 2 {
		t.Fatalf("tie union parent = %d, want 2", got)
	}

	// 2 now outranks the fresh singleton and stays root regardless of
	// argument order.
	f.Create(3)
	f.Union(3, 2)
	if got := rep(t, f, 3); got != 2 {
		t.Fatalf("rank union parent = %d, want 2", got)
	}
}

func TestUnionUnknownNoop(t *testing.T) {
	f := New[int]()
	f.Create(1)
	f.Union(1, 99)
	if got := rep(t, f, 1); got != 1 {
		t.Fatalf("union with unknown key changed the set: %d", got)
	}
}

func TestRepresentatives(t *testing.T) {
	f := New[string]()
	for _, k := range []string{"a", "b", "c", "d"} {
		f.Create(k)
	}
	f.Union("a", "b")
	f.Union("c", "d")

	seen := map[string]bool{}
	for r := range f.Representatives() {
		if seen[r] {
			t.Fatalf("representative %q yielded twice", r)
		}
		seen[r] = true
	}
	if len(seen) != 2 {
		t.Fatalf("got %d representatives, want 2", len(seen))
	}
	// Tie unions made the second argument the root in both cases.
	if !seen["b"] || !seen["d"] {
		t.Fatalf("representatives = %v, want b and d", seen)
	}
}
