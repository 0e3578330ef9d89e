package main

import "math"

// Vec3 is a 3D position or direction in world units.
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalized returns the unit vector, or the zero vector for near-zero input.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l < 1e-9 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// DistanceTo returns the euclidean distance between two points.
func (v Vec3) DistanceTo(o Vec3) float64 {
	return v.Sub(o).Length()
}

// Rounded trims each component to 2 decimals for compact wire snapshots.
func (v Vec3) Rounded() Vec3 {
	return Vec3{X: round2(v.X), Y: round2(v.Y), Z: round2(v.Z)}
}

// Lerp interpolates between a and b by t in [0,1].
func Lerp(a, b Vec3, t float64) Vec3 {
	return Vec3{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

// RayPointDistance returns the perpendicular distance from point to the ray
// (origin, dir). Points behind the ray origin measure to the origin itself,
// so shots fired away from a target never register as near misses.
func RayPointDistance(origin, dir, point Vec3) float64 {
	d := dir.Normalized()
	if d == (Vec3{}) {
		return origin.DistanceTo(point)
	}
	toPoint := point.Sub(origin)
	t := toPoint.Dot(d)
	if t < 0 {
		return origin.DistanceTo(point)
	}
	closest := origin.Add(d.Scale(t))
	return closest.DistanceTo(point)
}

// RayHitsSphere reports whether the ray (origin, dir) intersects the sphere
// at center with the given radius, at non-negative ray distance.
func RayHitsSphere(origin, dir, center Vec3, radius float64) bool {
	d := dir.Normalized()
	if d == (Vec3{}) {
		return false
	}
	f := origin.Sub(center)
	b := 2 * f.Dot(d)
	c := f.Dot(f) - radius*radius
	disc := b*b - 4*c
	if disc < 0 {
		return false
	}
	disc = math.Sqrt(disc)
	t1 := (-b - disc) / 2
	t2 := (-b + disc) / 2
	return t1 >= 0 || t2 >= 0
}
