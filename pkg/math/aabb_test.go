package math

import (
	"math"
	"testing"
)

var nan = float32(math.NaN())

func TestNewAABBFromPoints(t *testing.T) {
	box := NewAABBFromPoints(Vec3{1, 0, 0}, Vec3{-1, 2, 0}, Vec3{0, 0, 3})
	if box.Min != (Vec3{-1, 0, 0}) || box.Max != (Vec3{1, 2, 3}) {
		t.Errorf("unexpected box %v", box)
	}
	if box.Center() != (Vec3{0, 1, 1.5}) {
		t.Errorf("Center() = %v", box.Center())
	}
	if box.Extents() != (Vec3{1, 1, 1.5}) {
		t.Errorf("Extents() = %v", box.Extents())
	}
}

func TestAABBContains(t *testing.T) {
	box := AABB{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}

	tests := []struct {
		name string
		p    Vec3
		want bool
	}{
		{"inside", Vec3{0.5, 0.5, 0.5}, true},
		{"corner", Vec3{1, 1, 1}, true},
		{"face", Vec3{0, 0.3, 0.7}, true},
		{"outside", Vec3{1.01, 0.5, 0.5}, false},
		{"below", Vec3{0.5, -0.01, 0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestAABBUnion(t *testing.T) {
	a := AABB{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}
	b := AABB{Min: Vec3{2, -1, 0}, Max: Vec3{3, 0, 0.5}}
	u := a.Union(b)
	if u.Min != (Vec3{0, -1, 0}) || u.Max != (Vec3{3, 1, 1}) {
		t.Errorf("Union = %v", u)
	}
	if !u.ContainsBox(a) || !u.ContainsBox(b) {
		t.Error("union should contain both boxes")
	}
}

func TestAABBIntersectRay(t *testing.T) {
	box := AABB{Min: Vec3{-1, -1, -1}, Max: Vec3{1, 1, 1}}

	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		wantT float32
	}{
		{"head on", NewRay(Vec3{-5, 0, 0}, Vec3{1, 0, 0}), true, 4},
		{"from inside", NewRay(Vec3{0, 0, 0}, Vec3{0, 1, 0}), true, 1},
		{"pointing away", NewRay(Vec3{-5, 0, 0}, Vec3{-1, 0, 0}), false, 0},
		{"parallel outside", NewRay(Vec3{-5, 2, 0}, Vec3{1, 0, 0}), false, 0},
		{"flat box", NewRay(Vec3{0, 5, 0}, Vec3{0, -1, 0}), true, 4},
		{"NaN origin", NewRay(Vec3{nan, 5, 0}, Vec3{0, -1, 0}), false, 0},
		{"NaN origin on sliced axis", NewRay(Vec3{0, nan, 0}, Vec3{0, -1, 0}), false, 0},
		{"NaN direction", NewRay(Vec3{0, 5, 0}, Vec3{nan, -1, 0}), false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := box.IntersectRay(tt.ray)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && abs(got-tt.wantT) > 1e-5 {
				t.Errorf("t = %v, want %v", got, tt.wantT)
			}
		})
	}

	flat := AABB{Min: Vec3{-1, 0, -1}, Max: Vec3{1, 0, 1}}
	if _, hit := flat.IntersectRay(NewRay(Vec3{0, 5, 0}, Vec3{0, -1, 0})); !hit {
		t.Error("ray should hit a zero-thickness box")
	}
}

func TestRayIsFinite(t *testing.T) {
	inf := float32(math.Inf(1))

	tests := []struct {
		name string
		ray  Ray
		want bool
	}{
		{"finite", NewRay(Vec3{1, 2, 3}, Vec3{0, -1, 0}), true},
		{"NaN origin", NewRay(Vec3{nan, 2, 3}, Vec3{0, -1, 0}), false},
		{"infinite origin", NewRay(Vec3{1, inf, 3}, Vec3{0, -1, 0}), false},
		{"NaN direction", Ray{Origin: Vec3{}, Direction: Vec3{0, nan, 0}}, false},
		{"zero direction", NewRay(Vec3{1, 2, 3}, Vec3{}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ray.IsFinite(); got != tt.want {
				t.Errorf("IsFinite() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRayAt(t *testing.T) {
	r := NewRay(Vec3{1, 0, 0}, Vec3{0, 0, 10})
	if r.Direction != (Vec3{0, 0, 1}) {
		t.Errorf("direction not normalized: %v", r.Direction)
	}
	if got := r.At(2); got != (Vec3{1, 0, 2}) {
		t.Errorf("At(2) = %v", got)
	}
}
