package annot

import (
	"math"
	"testing"
)

func TestInterpolatePositionBounds(t *testing.T) {
	left := keyframe{points: []float64{0, 0, 10, 0, 10, 10}, occluded: true, zOrder: 1}
	right := keyframe{points: []float64{0, 0, 20, 0, 20, 20, 0, 20}, zOrder: 2}
	shapeTypes := []ShapeType{ShapeRectangle, ShapePolygon, ShapePolyline, ShapePoints, ShapeMask}
	for _, shapeType := range shapeTypes {
		t.Run(string(shapeType), func(t *testing.T) {
			atLeft := interpolatePosition(shapeType, left, right, 0)
			if !pointsEqual(atLeft.points, left.points) || atLeft.zOrder != 1 || !atLeft.occluded {
				t.Errorf("Offset 0 should give left keyframe, got %+v", atLeft)
			}
			atRight := interpolatePosition(shapeType, left, right, 1)
			if !pointsEqual(atRight.points, right.points) || atRight.zOrder != 2 || atRight.occluded {
				t.Errorf("Offset 1 should give right keyframe, got %+v", atRight)
			}
		})
	}
}

func TestInterpolateRectangle(t *testing.T) {
	left := keyframe{points: []float64{0, 0, 10, 10}, rotation: 350}
	right := keyframe{points: []float64{10, 20, 30, 40}, rotation: 10}
	result := interpolatePosition(ShapeRectangle, left, right, 0.5)
	if !pointsEqual(result.points, []float64{5, 10, 20, 25}) {
		t.Errorf("Wrong points: %v", result.points)
	}
	if result.rotation > eps && 360-result.rotation > eps {
		t.Errorf("Rotation should pass through 0, got %v", result.rotation)
	}
}

func TestInterpolatePolylineDifferentCounts(t *testing.T) {
	left := []float64{0, 0, 10, 0}
	right := []float64{0, 10, 5, 10, 10, 10}
	result := interpolatePolyline(left, right, 0.5)
	expected := []float64{0, 5, 2.5, 5, 10, 5}
	if !pointsEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestInterpolatePolygonDifferentCounts(t *testing.T) {
	left := []float64{0, 0, 10, 0, 10, 10, 0, 10}
	right := []float64{0, 0, 5, 0, 10, 0, 10, 10, 5, 10, 0, 10}
	result := interpolatePolygon(left, right, 0.5)
	expected := []float64{0, 0, 2.5, 0, 10, 0, 10, 10, 7.5, 10, 0, 10}
	if !pointsEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestInterpolatePolygonSameCounts(t *testing.T) {
	left := []float64{0, 0, 10, 0, 10, 10, 0, 10}
	right := []float64{10, 10, 20, 10, 20, 20, 10, 20}
	result := interpolatePolygon(left, right, 0.5)
	expected := []float64{5, 5, 15, 5, 15, 15, 5, 15}
	if !pointsEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestInterpolatePointsCountMismatch(t *testing.T) {
	left := keyframe{points: []float64{0, 0, 10, 10}}
	right := keyframe{points: []float64{20, 20}}
	result := interpolatePosition(ShapePoints, left, right, 0.5)
	if !pointsEqual(result.points, left.points) {
		t.Errorf("Points with different counts should hold left keyframe, got %v", result.points)
	}
	single := interpolatePosition(ShapePoints, keyframe{points: []float64{0, 0}}, right, 0.25)
	if !pointsEqual(single.points, []float64{5, 5}) {
		t.Errorf("Single point should move linearly, got %v", single.points)
	}
}

func TestCurveToOffsetVec(t *testing.T) {
	points := []Point{{0, 0}, {3, 4}, {3, 14}}
	length := curveLength(points)
	if length != 15 {
		t.Fatalf("Expected length 15, got %v", length)
	}
	offsets := curveToOffsetVec(points, length)
	expected := []float64{0, 1.0 / 3.0, 1}
	if !pointsEqual(offsets, expected) {
		t.Errorf("Expected %v, got %v", expected, offsets)
	}
	if zero := curveToOffsetVec([]Point{{1, 1}, {1, 1}}, 0); !pointsEqual(zero, []float64{0, 0}) {
		t.Errorf("Zero-length curve should give zero offsets, got %v", zero)
	}
}

func TestCurveLength(t *testing.T) {
	cases := []struct {
		points   []Point
		expected float64
	}{
		{[]Point{{0, 0}, {3, 4}}, 5},
		{[]Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, 30},
		{[]Point{{1, 1}, {1, 1}}, 0},
		{[]Point{{1, 1}}, 0},
		{nil, 0},
	}
	for _, c := range cases {
		if length := curveLength(c.points); math.Abs(length-c.expected) > eps {
			t.Errorf("curveLength(%v): %v, correct answer: %v", c.points, length, c.expected)
		}
	}
}
