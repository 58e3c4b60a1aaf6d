package annot

import (
	"math"
)

const (
	// skeletonMargin expands the element bounding box of a skeleton for hit testing
	skeletonMargin = 20.0
	// maskHitDistance is reported for any set mask pixel
	maskHitDistance = 1.0
)

// Distance is the hit test used by selection. It returns the distance from (x, y) to the shape
// boundary, ok is false when the point does not hit the shape.
// Polylines and points have no interior and always report the distance to the nearest segment or point.
func Distance(shapeType ShapeType, points []float64, x, y, rotation float64) (float64, bool) {
	switch shapeType {
	case ShapeRectangle:
		return rectangleDistance(points, x, y, rotation)
	case ShapeEllipse:
		return ellipseDistance(points, x, y, rotation)
	case ShapePolygon:
		return polygonDistance(toPoints(points), Point{X: x, Y: y})
	case ShapePolyline:
		return polylineDistance(toPoints(points), Point{X: x, Y: y})
	case ShapePoints:
		return pointsDistance(toPoints(points), Point{X: x, Y: y})
	case ShapeCuboid:
		return cuboidDistance(points, x, y)
	case ShapeSkeleton:
		return skeletonDistance(points, x, y)
	case ShapeMask:
		return maskDistance(points, x, y)
	}
	return 0, false
}

func rectangleDistance(points []float64, x, y, rotation float64) (float64, bool) {
	if len(points) != 4 {
		return 0, false
	}
	xtl, ytl, xbr, ybr := points[0], points[1], points[2], points[3]
	cx, cy := (xtl+xbr)/2.0, (ytl+ybr)/2.0
	px, py := RotatePoint(x, y, -rotation, cx, cy)
	if px < xtl || px > xbr || py < ytl || py > ybr {
		return 0, false
	}
	return math.Min(math.Min(px-xtl, xbr-px), math.Min(py-ytl, ybr-py)), true
}

func ellipseDistance(points []float64, x, y, rotation float64) (float64, bool) {
	if len(points) != 4 {
		return 0, false
	}
	cx, cy := points[0], points[1]
	rx := math.Abs(points[2] - cx)
	ry := math.Abs(cy - points[3])
	if rx == 0 || ry == 0 {
		return 0, false
	}
	px, py := RotatePoint(x, y, -rotation, cx, cy)
	dx, dy := px-cx, py-cy
	if (dx*dx)/(rx*rx)+(dy*dy)/(ry*ry) > 1 {
		return 0, false
	}
	// Boundary points on the same horizontal and vertical lines as the query point
	edgeX := rx * math.Sqrt(math.Max(0, 1-(dy*dy)/(ry*ry)))
	edgeY := ry * math.Sqrt(math.Max(0, 1-(dx*dx)/(rx*rx)))
	return math.Min(edgeX-math.Abs(dx), edgeY-math.Abs(dy)), true
}

func polygonDistance(polygon []Point, p Point) (float64, bool) {
	if len(polygon) < 3 || windingNumber(polygon, p) == 0 {
		return 0, false
	}
	return closedPathDistance(polygon, p), true
}

func polylineDistance(polyline []Point, p Point) (float64, bool) {
	if len(polyline) == 0 {
		return 0, false
	}
	if len(polyline) == 1 {
		return euclideanDistance(polyline[0], p), true
	}
	best := math.Inf(1)
	for i := 0; i+1 < len(polyline); i++ {
		best = math.Min(best, segmentDistance(p, polyline[i], polyline[i+1]))
	}
	return best, true
}

func pointsDistance(points []Point, p Point) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	best := math.Inf(1)
	for _, point := range points {
		best = math.Min(best, euclideanDistance(point, p))
	}
	return best, true
}

func cuboidDistance(points []float64, x, y float64) (float64, bool) {
	hull := MakeHull(toPoints(points))
	if len(hull) < 3 {
		return 0, false
	}
	p := Point{X: x, Y: y}
	if windingNumber(hull, p) == 0 {
		return 0, false
	}
	return closedPathDistance(hull, p), true
}

func skeletonDistance(points []float64, x, y float64) (float64, bool) {
	if len(points) < 2 {
		return 0, false
	}
	xtl, ytl, xbr, ybr := boundingBox(points)
	xtl -= skeletonMargin
	ytl -= skeletonMargin
	xbr += skeletonMargin
	ybr += skeletonMargin
	if x < xtl || x > xbr || y < ytl || y > ybr {
		return 0, false
	}
	return math.Min(math.Min(x-xtl, xbr-x), math.Min(y-ytl, ybr-y)), true
}

func maskDistance(points []float64, x, y float64) (float64, bool) {
	box, err := maskBoxOf(points)
	if err != nil {
		return 0, false
	}
	px, py := int(math.Trunc(x)), int(math.Trunc(y))
	if !box.contains(px, py) {
		return 0, false
	}
	if !maskPixelAt(points, (py-box.top)*box.width()+(px-box.left)) {
		return 0, false
	}
	return maskHitDistance, true
}

// closedPathDistance is the minimal distance from p to the edges of a closed path
func closedPathDistance(path []Point, p Point) float64 {
	best := math.Inf(1)
	for i := range path {
		best = math.Min(best, segmentDistance(p, path[i], path[(i+1)%len(path)]))
	}
	return best
}
