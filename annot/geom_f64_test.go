package annot

import (
	"math"
	"testing"
)

func TestEuclideanDistance(t *testing.T) {
	p1 := Point{X: 341, Y: 264}
	p2 := Point{X: 421, Y: 427}
	correctAnswer := 181.57367
	answer := euclideanDistance(p1, p2)
	if math.Abs(answer-correctAnswer) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", answer, correctAnswer)
	}
}

func TestRotatePoint(t *testing.T) {
	x, y := RotatePoint(1, 0, 90, 0, 0)
	if math.Abs(x) > eps || math.Abs(y-1) > eps {
		t.Errorf("Wrong answer: (%v, %v), correct answer: (0, 1)", x, y)
	}
	x, y = RotatePoint(15, 10, 180, 10, 10)
	if math.Abs(x-5) > eps || math.Abs(y-10) > eps {
		t.Errorf("Wrong answer: (%v, %v), correct answer: (5, 10)", x, y)
	}
}

func TestFindAngleDiff(t *testing.T) {
	cases := []struct {
		a, b, expected float64
	}{
		{10, 350, 20},
		{350, 10, -20},
		{90, 0, 90},
		{0, 0, 0},
		{180, 0, -180},
		{720, 10, -10},
	}
	for _, c := range cases {
		if answer := FindAngleDiff(c.a, c.b); math.Abs(answer-c.expected) > eps {
			t.Errorf("FindAngleDiff(%v, %v): %v, correct answer: %v", c.a, c.b, answer, c.expected)
		}
	}
}

func TestFindAngleDiffAntisymmetric(t *testing.T) {
	for a := -720.0; a <= 720.0; a += 7.3 {
		for b := -720.0; b <= 720.0; b += 11.1 {
			diff := FindAngleDiff(a, b)
			if diff < -180 || diff >= 180 {
				t.Fatalf("FindAngleDiff(%v, %v) = %v is out of [-180, 180)", a, b, diff)
			}
			if 180-math.Abs(diff) < 1e-6 {
				continue
			}
			if reverse := FindAngleDiff(b, a); math.Abs(diff+reverse) > 1e-6 {
				t.Fatalf("FindAngleDiff(%v, %v) = %v, reverse is %v", a, b, diff, reverse)
			}
		}
	}
}

func TestNormalizeAngle(t *testing.T) {
	if answer := normalizeAngle(-90); answer != 270 {
		t.Errorf("Wrong answer: %v, correct answer: 270", answer)
	}
	if answer := normalizeAngle(725); math.Abs(answer-5) > eps {
		t.Errorf("Wrong answer: %v, correct answer: 5", answer)
	}
}

func TestSegmentDistance(t *testing.T) {
	a, b := Point{X: 0, Y: 0}, Point{X: 10, Y: 0}
	if answer := segmentDistance(Point{X: 5, Y: 3}, a, b); math.Abs(answer-3) > eps {
		t.Errorf("Perpendicular distance: %v, correct answer: 3", answer)
	}
	if answer := segmentDistance(Point{X: 13, Y: 4}, a, b); math.Abs(answer-5) > eps {
		t.Errorf("Endpoint distance: %v, correct answer: 5", answer)
	}
	if answer := segmentDistance(Point{X: 3, Y: 4}, a, a); math.Abs(answer-5) > eps {
		t.Errorf("Degenerate segment distance: %v, correct answer: 5", answer)
	}
}

func TestMakeHull(t *testing.T) {
	points := []Point{
		{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0},
		{X: 10, Y: 10}, {X: 0, Y: 10}, {X: 4, Y: 6},
	}
	hull := MakeHull(points)
	correctHull := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	if len(hull) != len(correctHull) {
		t.Fatalf("Hull should have %d points, got %v", len(correctHull), hull)
	}
	for i := range hull {
		if hull[i] != correctHull[i] {
			t.Errorf("Hull point %d: %v, correct answer: %v", i, hull[i], correctHull[i])
		}
	}
}

func TestWindingNumber(t *testing.T) {
	square := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	if windingNumber(square, Point{X: 5, Y: 5}) == 0 {
		t.Error("Point (5, 5) should be inside the square")
	}
	if windingNumber(square, Point{X: 15, Y: 5}) != 0 {
		t.Error("Point (15, 5) should be outside the square")
	}
}

func TestIoU(t *testing.T) {
	r1 := Rectangle{X: 0, Y: 0, Width: 10, Height: 10}
	r2 := Rectangle{X: 5, Y: 0, Width: 10, Height: 10}
	if answer := IoU(r1, r2); math.Abs(answer-1.0/3.0) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", answer, 1.0/3.0)
	}
	if answer := IoU(r1, Rectangle{X: 20, Y: 20, Width: 1, Height: 1}); answer != 0 {
		t.Errorf("Disjoint rectangles should have zero IoU, got %v", answer)
	}
}

func TestBoundingBox(t *testing.T) {
	xtl, ytl, xbr, ybr := boundingBox([]float64{3, 7, -1, 2, 5, 4})
	if xtl != -1 || ytl != 2 || xbr != 5 || ybr != 7 {
		t.Errorf("Wrong answer: (%v, %v, %v, %v), correct answer: (-1, 2, 5, 7)", xtl, ytl, xbr, ybr)
	}
}
