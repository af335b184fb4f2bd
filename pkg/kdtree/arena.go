package kdtree

import "github.com/Faultbox/kdmesh/pkg/mesh"

// arena owns the triangle references shared by every node. Node lists hold
// slot ids into it, so a triangle reachable at depth d costs d int32s rather
// than d pointers plus slice headers.
type arena struct {
	tris  []*mesh.Triangle
	slots map[*mesh.Triangle]int32
	free  []int32
}

func newArena(capacity int) arena {
	return arena{
		tris:  make([]*mesh.Triangle, 0, capacity),
		slots: make(map[*mesh.Triangle]int32, capacity),
	}
}

// put stores t and returns its slot. Storing the same triangle twice
// returns the existing slot.
func (a *arena) put(t *mesh.Triangle) int32 {
	if id, ok := a.slots[t]; ok {
		return id
	}

	var id int32
	if n := len(a.free); n > 0 {
		id = a.free[n-1]
		a.free = a.free[:n-1]
		a.tris[id] = t
	} else {
		id = int32(len(a.tris))
		a.tris = append(a.tris, t)
	}
	a.slots[t] = id
	return id
}

func (a *arena) get(id int32) *mesh.Triangle {
	return a.tris[id]
}

func (a *arena) lookup(t *mesh.Triangle) (int32, bool) {
	id, ok := a.slots[t]
	return id, ok
}

func (a *arena) release(id int32) {
	t := a.tris[id]
	if t == nil {
		return
	}
	delete(a.slots, t)
	a.tris[id] = nil
	a.free = append(a.free, id)
}

func (a *arena) len() int {
	return len(a.slots)
}
