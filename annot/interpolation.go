package annot

import (
	"math"
	"slices"

	"github.com/peterstace/simplefeatures/geom"
)

// interpolatePosition blends two keyframes. Offset 0 yields the left keyframe and offset 1 the right one.
// Flags and z-order follow the left keyframe.
func interpolatePosition(shapeType ShapeType, left, right keyframe, offset float64) keyframe {
	if offset <= 0 {
		return left.position()
	}
	if offset >= 1 {
		return right.position()
	}
	result := keyframe{
		rotation: left.rotation,
		occluded: left.occluded,
		outside:  left.outside,
		zOrder:   left.zOrder,
	}
	switch shapeType {
	case ShapeRectangle, ShapeEllipse, ShapeCuboid:
		result.points = lerpPoints(left.points, right.points, offset)
		result.rotation = normalizeAngle(left.rotation + FindAngleDiff(right.rotation, left.rotation)*offset)
	case ShapePoints:
		if len(left.points) == 2 && len(right.points) == 2 {
			result.points = lerpPoints(left.points, right.points, offset)
		} else {
			result.points = copyFloats(left.points)
		}
	case ShapePolyline:
		result.points = interpolatePolyline(left.points, right.points, offset)
	case ShapePolygon:
		result.points = interpolatePolygon(left.points, right.points, offset)
	default:
		// masks are stored on every keyframe, skeleton geometry lives in elements
		result.points = copyFloats(left.points)
	}
	return result
}

func lerpPoints(left, right []float64, offset float64) []float64 {
	if len(left) != len(right) {
		return copyFloats(left)
	}
	out := make([]float64, len(left))
	for i := range left {
		out[i] = lerp(left[i], right[i], offset)
	}
	return out
}

// interpolatePolygon closes both rings with their first point so the matched path stays closed
func interpolatePolygon(left, right []float64, offset float64) []float64 {
	if len(left) < 6 || len(right) < 6 {
		return copyFloats(left)
	}
	closedLeft := append(copyFloats(left), left[0], left[1])
	closedRight := append(copyFloats(right), right[0], right[1])
	points := interpolatePolyline(closedLeft, closedRight, offset)
	if len(points) < 8 {
		return copyFloats(left)
	}
	return points[:len(points)-2]
}

// interpolatePolyline matches points of two paths with different point counts by their relative
// arc length, blends matched pairs and thins out runs of points produced by one-to-many matches.
// Both paths are expected to start at the same point and be drawn in the same direction.
func interpolatePolyline(left, right []float64, offset float64) []float64 {
	leftPoints := toPoints(left)
	rightPoints := toPoints(right)
	if len(leftPoints) < 2 || len(rightPoints) < 2 {
		return copyFloats(left)
	}
	leftOffsets := curveToOffsetVec(leftPoints, curveLength(leftPoints))
	rightOffsets := curveToOffsetVec(rightPoints, curveLength(rightPoints))

	matching := matchRightLeft(leftOffsets, rightOffsets, matchLeftRight(leftOffsets, rightOffsets))

	interpolated := make([]Point, 0, len(leftPoints)+len(rightPoints))
	for leftIdx, rightIdxs := range matching {
		leftPoint := leftPoints[leftIdx]
		for _, rightIdx := range rightIdxs {
			rightPoint := rightPoints[rightIdx]
			interpolated = append(interpolated, Point{
				X: leftPoint.X + (rightPoint.X-leftPoint.X)*offset,
				Y: leftPoint.Y + (rightPoint.Y-leftPoint.Y)*offset,
			})
		}
	}
	reduced := reduceInterpolation(interpolated, matching, leftPoints, rightPoints)
	if len(reduced) < 2 {
		return copyFloats(left)
	}
	return toFlat(reduced)
}

// curveLength is the length of the open path
func curveLength(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	line, err := geom.NewLineString(geom.NewSequence(toFlat(points), geom.DimXY))
	if err != nil {
		return 0
	}
	return line.Length()
}

// curveToOffsetVec returns relative arc length (0..1) of every path point
func curveToOffsetVec(points []Point, length float64) []float64 {
	offsets := make([]float64, len(points))
	if length == 0 {
		return offsets
	}
	accumulated := 0.0
	for i := 1; i < len(points); i++ {
		accumulated += euclideanDistance(points[i-1], points[i])
		offsets[i] = accumulated / length
	}
	return offsets
}

// findNearestPair returns index of the curve offset closest to value; first wins on ties
func findNearestPair(value float64, curve []float64) int {
	best := 0
	bestDistance := math.Abs(value - curve[0])
	for i := 1; i < len(curve); i++ {
		if distance := math.Abs(value - curve[i]); distance < bestDistance {
			best = i
			bestDistance = distance
		}
	}
	return best
}

// matchLeftRight matches every left point with its nearest right point
func matchLeftRight(leftCurve, rightCurve []float64) [][]int {
	matching := make([][]int, len(leftCurve))
	for i, value := range leftCurve {
		matching[i] = []int{findNearestPair(value, rightCurve)}
	}
	return matching
}

// matchRightLeft attaches right points nobody matched to their nearest left point
func matchRightLeft(leftCurve, rightCurve []float64, matching [][]int) [][]int {
	matched := make(map[int]bool, len(rightCurve))
	for _, rightIdxs := range matching {
		for _, idx := range rightIdxs {
			matched[idx] = true
		}
	}
	for rightIdx, value := range rightCurve {
		if matched[rightIdx] {
			continue
		}
		leftIdx := findNearestPair(value, leftCurve)
		matching[leftIdx] = append(matching[leftIdx], rightIdx)
	}
	for _, rightIdxs := range matching {
		slices.Sort(rightIdxs)
	}
	return matching
}

func averagePoint(points []Point) Point {
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	return Point{X: sumX / float64(len(points)), Y: sumY / float64(len(points))}
}

// reduceInterpolation thins out interpolated points. Consecutive left points matched with the same
// right point form a left segment; a left point matched with many right points forms a right segment.
// Inside a segment only points at least baseLength/(2N) apart are kept.
func reduceInterpolation(interpolated []Point, matching [][]int, leftPoints, rightPoints []Point) []Point {
	interpolatedIndexes := make([][]int, len(leftPoints))
	accumulated := 0
	for i := range leftPoints {
		interpolatedIndexes[i] = make([]int, len(matching[i]))
		for j := range matching[i] {
			interpolatedIndexes[i][j] = accumulated
			accumulated++
		}
	}

	reduced := make([]Point, 0, len(interpolated))

	minimizeSegment := func(baseLength float64, n int, startInterpolated, stopInterpolated int) []Point {
		threshold := baseLength / (2.0 * float64(n))
		minimized := []Point{interpolated[startInterpolated]}
		latestPushed := startInterpolated
		for i := startInterpolated + 1; i < stopInterpolated; i++ {
			if euclideanDistance(interpolated[latestPushed], interpolated[i]) >= threshold {
				minimized = append(minimized, interpolated[i])
				latestPushed = i
			}
		}
		minimized = append(minimized, interpolated[stopInterpolated])
		if len(minimized) == 2 && euclideanDistance(minimized[0], minimized[1]) < threshold {
			return []Point{averagePoint(minimized)}
		}
		return minimized
	}

	leftSegment := func(start, stop int) {
		startInterpolated := interpolatedIndexes[start][0]
		stopInterpolated := interpolatedIndexes[stop][0]
		if startInterpolated == stopInterpolated {
			reduced = append(reduced, interpolated[startInterpolated])
			return
		}
		baseLength := curveLength(leftPoints[start : stop+1])
		reduced = append(reduced, minimizeSegment(baseLength, stop-start+1, startInterpolated, stopInterpolated)...)
	}

	rightSegment := func(leftIdx int) {
		start := matching[leftIdx][0]
		stop := matching[leftIdx][len(matching[leftIdx])-1]
		startInterpolated := interpolatedIndexes[leftIdx][0]
		stopInterpolated := interpolatedIndexes[leftIdx][len(interpolatedIndexes[leftIdx])-1]
		baseLength := curveLength(rightPoints[start : stop+1])
		reduced = append(reduced, minimizeSegment(baseLength, stop-start+1, startInterpolated, stopInterpolated)...)
	}

	previousOpened := -1
	for i := range leftPoints {
		if len(matching[i]) == 1 {
			if previousOpened >= 0 {
				if matching[i][0] == matching[previousOpened][0] {
					continue
				}
				leftSegment(previousOpened, i-1)
			}
			previousOpened = i
			continue
		}
		if previousOpened >= 0 {
			leftSegment(previousOpened, i-1)
			previousOpened = -1
		}
		rightSegment(i)
	}
	if previousOpened >= 0 {
		leftSegment(previousOpened, len(leftPoints)-1)
	}
	return reduced
}
