// Package math provides vector, quaternion and color types used by the splat pipeline.
package math

import "github.com/chewxy/math32"

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Mul returns the component-wise product.
func (v Vec3) Mul(other Vec3) Vec3 {
	return Vec3{v.X * other.X, v.Y * other.Y, v.Z * other.Z}
}

// Dot returns the dot product.
func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Length returns the magnitude.
func (v Vec3) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Map applies f to every component.
func (v Vec3) Map(f func(float32) float32) Vec3 {
	return Vec3{f(v.X), f(v.Y), f(v.Z)}
}

// Axis returns component i (0=X, 1=Y, 2=Z).
func (v Vec3) Axis(i int) float32 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// MinAxis returns the index of the smallest component.
// Ties resolve to the lowest index.
func (v Vec3) MinAxis() int {
	idx := 0
	if v.Y < v.Axis(idx) {
		idx = 1
	}
	if v.Z < v.Axis(idx) {
		idx = 2
	}
	return idx
}

// SwapAxes returns v with components i and j exchanged.
func (v Vec3) SwapAxes(i, j int) Vec3 {
	a := [3]float32{v.X, v.Y, v.Z}
	a[i], a[j] = a[j], a[i]
	return Vec3{a[0], a[1], a[2]}
}

// Array returns the components as an array.
func (v Vec3) Array() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}
