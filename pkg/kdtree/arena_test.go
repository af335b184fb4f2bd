package kdtree

import "testing"

func TestArenaReusesReleasedSlots(t *testing.T) {
	a := newArena(0)
	t0 := floorTri(0, 0, 0)
	t1 := floorTri(3, 1, 0)
	t2 := floorTri(6, 2, 0)

	id0 := a.put(t0)
	id1 := a.put(t1)
	if again := a.put(t0); again != id0 {
		t.Errorf("put of a stored triangle returned %d, want %d", again, id0)
	}

	a.release(id0)
	if _, ok := a.lookup(t0); ok {
		t.Error("released triangle still found")
	}
	a.release(id0) // double release is a no-op

	if id2 := a.put(t2); id2 != id0 {
		t.Errorf("expected slot %d to be reused, got %d", id0, id2)
	}
	if a.get(id1) != t1 {
		t.Error("unrelated slot changed")
	}
	if a.len() != 2 {
		t.Errorf("len() = %d, want 2", a.len())
	}
}
