package annot

import (
	"testing"
)

func TestCheckNumberOfPoints(t *testing.T) {
	valid := map[ShapeType]func(n int) bool{
		ShapeRectangle: func(n int) bool { return n == 4 },
		ShapeEllipse:   func(n int) bool { return n == 4 },
		ShapeCuboid:    func(n int) bool { return n == 16 },
		ShapePolygon:   func(n int) bool { return n%2 == 0 && n >= 6 },
		ShapePolyline:  func(n int) bool { return n%2 == 0 && n >= 4 },
		ShapePoints:    func(n int) bool { return n%2 == 0 && n >= 2 },
	}
	for shapeType, isValid := range valid {
		for n := 0; n <= 20; n++ {
			points := make([]float64, n)
			for i := range points {
				points[i] = float64(i)
			}
			err := CheckNumberOfPoints(shapeType, points)
			if isValid(n) && err != nil {
				t.Errorf("%s with %d numbers should be accepted: %v", shapeType, n, err)
			}
			if !isValid(n) {
				if err == nil {
					t.Errorf("%s with %d numbers should be rejected", shapeType, n)
				} else if !IsArgumentError(err) {
					t.Errorf("%s with %d numbers should fail with ArgumentError, got %v", shapeType, n, err)
				}
			}
		}
	}
}

func TestCheckNumberOfPointsMask(t *testing.T) {
	if err := CheckNumberOfPoints(ShapeMask, []float64{2, 2, 0, 0, 3, 0}); err != nil {
		t.Errorf("Valid mask rejected: %v", err)
	}
	if err := CheckNumberOfPoints(ShapeMask, []float64{2, 3, 0, 0, 3, 0}); !IsArgumentError(err) {
		t.Errorf("Mask with runs longer than its box should be rejected, got %v", err)
	}
	if err := CheckNumberOfPoints(ShapeMask, []float64{0, 0, 3}); !IsArgumentError(err) {
		t.Errorf("Mask without box should be rejected, got %v", err)
	}
}

func TestCheckShapeArea(t *testing.T) {
	cases := []struct {
		shapeType ShapeType
		points    []float64
		expected  bool
	}{
		{ShapeRectangle, []float64{5, 5, 5, 5}, false},
		{ShapeRectangle, []float64{0, 0, 10, 10}, true},
		{ShapeRectangle, []float64{0, 0, 2, 2}, false},
		{ShapePolygon, []float64{0, 0, 10, 0, 20, 0}, false},
		{ShapePolygon, []float64{0, 0, 10, 0, 10, 10}, true},
		{ShapePolyline, []float64{0, 0, 1, 1}, false},
		{ShapePolyline, []float64{0, 0, 5, 0}, true},
		{ShapePoints, []float64{1, 1}, true},
		{ShapeEllipse, []float64{10, 10, 11, 9}, false},
		{ShapeEllipse, []float64{10, 10, 15, 5}, true},
		{ShapeMask, []float64{0, 1, 0, 0, 0, 0}, true},
	}
	for _, c := range cases {
		if answer := CheckShapeArea(c.shapeType, c.points); answer != c.expected {
			t.Errorf("CheckShapeArea(%s, %v): %v, correct answer: %v", c.shapeType, c.points, answer, c.expected)
		}
	}
}

func TestFitPoints(t *testing.T) {
	fitted := fitPoints(ShapeRectangle, []float64{-5, 10, 120, 50}, 0, 100, 100)
	if !pointsEqual(fitted, []float64{0, 10, 100, 50}) {
		t.Errorf("Wrong fitted points: %v", fitted)
	}
	rotated := []float64{-5, 10, 120, 50}
	if fitted := fitPoints(ShapeRectangle, rotated, 30, 100, 100); !pointsEqual(fitted, rotated) {
		t.Errorf("Rotated shape should not be fitted, got %v", fitted)
	}
	cuboid := make([]float64, 16)
	cuboid[0] = -10
	if fitted := fitPoints(ShapeCuboid, cuboid, 0, 100, 100); fitted[0] != -10 {
		t.Errorf("Cuboid should not be fitted, got %v", fitted)
	}
}

func TestCheckOutside(t *testing.T) {
	if checkOutside([]float64{-5, -5, 10, 10}, 100, 100) {
		t.Error("Points partially inside the image are not outside")
	}
	if !checkOutside([]float64{-5, -5, -10, 200}, 100, 100) {
		t.Error("Points completely off the image are outside")
	}
}

func TestValidateColor(t *testing.T) {
	for _, color := range []string{"#33ddff", "#ABCDEF"} {
		if !ValidateColor(color) {
			t.Errorf("Color %q should be valid", color)
		}
	}
	for _, color := range []string{"33ddff", "#33ddf", "#33ddfg", "red"} {
		if ValidateColor(color) {
			t.Errorf("Color %q should be invalid", color)
		}
	}
}

func TestValidateAttributeValue(t *testing.T) {
	number := AttributeSpec{InputType: AttributeNumber, Values: []string{"0", "10", "0.5"}}
	fine := AttributeSpec{InputType: AttributeNumber, Values: []string{"0", "1", "0.1"}}
	checkbox := AttributeSpec{InputType: AttributeCheckbox}
	radio := AttributeSpec{InputType: AttributeRadio, Values: []string{"a", "b"}}
	selectSpec := AttributeSpec{InputType: AttributeSelect, Values: []string{"a", "b"}}
	text := AttributeSpec{InputType: AttributeText}
	cases := []struct {
		value    string
		spec     AttributeSpec
		expected bool
	}{
		{"2.5", number, true},
		{"10", number, true},
		{"2.3", number, false},
		{"11", number, false},
		{"-1", number, false},
		{"abc", number, false},
		{"0.3", fine, true},
		{"0.35", fine, false},
		{"true", checkbox, true},
		{"yes", checkbox, false},
		{"b", radio, true},
		{"c", radio, false},
		{UndefinedAttributeValue, radio, false},
		{UndefinedAttributeValue, selectSpec, true},
		{"a", selectSpec, true},
		{"anything at all", text, true},
	}
	for _, c := range cases {
		if answer := ValidateAttributeValue(c.value, c.spec); answer != c.expected {
			t.Errorf("ValidateAttributeValue(%q, %s): %v, correct answer: %v", c.value, c.spec.InputType, answer, c.expected)
		}
	}
}
