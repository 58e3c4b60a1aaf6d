package annot

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// Rectangle is an axis-aligned box given by its top-left corner and size
type Rectangle struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewRectFromPoints builds Rectangle from (xtl, ytl, xbr, ybr) coordinates
func NewRectFromPoints(points []float64) Rectangle {
	return Rectangle{
		X:      points[0],
		Y:      points[1],
		Width:  points[2] - points[0],
		Height: points[3] - points[1],
	}
}

// Center returns the rectangle center
func (r Rectangle) Center() Point {
	return Point{
		X: r.X + r.Width/2.0,
		Y: r.Y + r.Height/2.0,
	}
}

// Points returns rectangle as (xtl, ytl, xbr, ybr)
func (r Rectangle) Points() []float64 {
	return []float64{r.X, r.Y, r.X + r.Width, r.Y + r.Height}
}

// Point is a 2D coordinate
type Point struct {
	X float64
	Y float64
}

func (p Point) vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

func pointFromVec(v r2.Vec) Point {
	return Point{X: v.X, Y: v.Y}
}

// toPoints splits flat (x0, y0, x1, y1, ...) into points. Trailing odd value is ignored.
func toPoints(flat []float64) []Point {
	points := make([]Point, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		points = append(points, Point{X: flat[i], Y: flat[i+1]})
	}
	return points
}

// toFlat is the inverse of toPoints
func toFlat(points []Point) []float64 {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}

func euclideanDistance(p1, p2 Point) float64 {
	return r2.Norm(r2.Sub(p1.vec(), p2.vec()))
}

// RotatePoint rotates (x, y) by angle degrees around (cx, cy)
func RotatePoint(x, y, angle, cx, cy float64) (float64, float64) {
	rotated := r2.Rotate(r2.Vec{X: x, Y: y}, angle*math.Pi/180.0, r2.Vec{X: cx, Y: cy})
	return rotated.X, rotated.Y
}

// FindAngleDiff returns the shortest signed difference a-b in degrees, in range [-180, 180)
func FindAngleDiff(a, b float64) float64 {
	diff := math.Mod(a-b+180.0, 360.0)
	if diff < 0 {
		diff += 360.0
	}
	return diff - 180.0
}

// normalizeAngle maps any angle into [0, 360)
func normalizeAngle(angle float64) float64 {
	angle = math.Mod(angle, 360.0)
	if angle < 0 {
		angle += 360.0
	}
	return angle
}

// segmentDistance returns the distance from p to the segment [a, b]:
// perpendicular when the projection falls onto the segment, to the nearest endpoint otherwise
func segmentDistance(p, a, b Point) float64 {
	ab := r2.Sub(b.vec(), a.vec())
	ap := r2.Sub(p.vec(), a.vec())
	lengthSquared := r2.Norm2(ab)
	if lengthSquared == 0 {
		return r2.Norm(ap)
	}
	t := clamp(r2.Dot(ap, ab)/lengthSquared, 0, 1)
	projection := r2.Add(a.vec(), r2.Scale(t, ab))
	return r2.Norm(r2.Sub(p.vec(), projection))
}

// isLeft is positive when c lies left of the directed line a->b, negative when right, zero when on it
func isLeft(a, b, c Point) float64 {
	return r2.Cross(r2.Sub(b.vec(), a.vec()), r2.Sub(c.vec(), a.vec()))
}

// windingNumber of the closed polygon around p. Zero means p is outside.
func windingNumber(polygon []Point, p Point) int {
	wn := 0
	n := len(polygon)
	for i := 0; i < n; i++ {
		p1 := polygon[i]
		p2 := polygon[(i+1)%n]
		if p1.Y <= p.Y {
			if p2.Y > p.Y && isLeft(p1, p2, p) > 0 {
				wn++
			}
		} else if p2.Y <= p.Y && isLeft(p1, p2, p) < 0 {
			wn--
		}
	}
	return wn
}

// MakeHull returns the convex hull of points in counter-clockwise order (Andrew's monotone chain).
// Collinear points on the hull boundary are dropped.
func MakeHull(points []Point) []Point {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X == sorted[j].X {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})
	if len(sorted) <= 2 {
		return sorted
	}
	lower := make([]Point, 0, len(sorted))
	for _, p := range sorted {
		for len(lower) >= 2 && isLeft(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	upper := make([]Point, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && isLeft(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	// Last point of each half is the first point of the other one
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// boundingBox returns (xtl, ytl, xbr, ybr) of flat coordinates
func boundingBox(flat []float64) (float64, float64, float64, float64) {
	xtl, ytl := math.MaxFloat64, math.MaxFloat64
	xbr, ybr := -math.MaxFloat64, -math.MaxFloat64
	for i := 0; i+1 < len(flat); i += 2 {
		xtl = minFloat64(xtl, flat[i])
		xbr = maxFloat64(xbr, flat[i])
		ytl = minFloat64(ytl, flat[i+1])
		ybr = maxFloat64(ybr, flat[i+1])
	}
	return xtl, ytl, xbr, ybr
}
