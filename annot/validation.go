package annot

import (
	"math"
	"regexp"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	minShapeLength   = 3.0
	minShapeArea     = 9.0
	minMaskShapeArea = 1.0
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// CheckNumberOfPoints fails with ArgumentError when the count of numbers in points
// does not fit the shape type
func CheckNumberOfPoints(shapeType ShapeType, points []float64) error {
	n := len(points)
	switch shapeType {
	case ShapeRectangle, ShapeEllipse:
		if n != 4 {
			return newArgumentError("%s must have 2 points, but got %d numbers", shapeType, n)
		}
	case ShapeCuboid:
		if n != 16 {
			return newArgumentError("cuboid must have 8 points, but got %d numbers", n)
		}
	case ShapePolygon:
		if n%2 != 0 || n < 6 {
			return newArgumentError("polygon must have at least 3 points, but got %d numbers", n)
		}
	case ShapePolyline:
		if n%2 != 0 || n < 4 {
			return newArgumentError("polyline must have at least 2 points, but got %d numbers", n)
		}
	case ShapePoints:
		if n%2 != 0 || n < 2 {
			return newArgumentError("points must have at least 1 point, but got %d numbers", n)
		}
	case ShapeMask:
		rle, box, err := splitMaskPoints(points)
		if err != nil {
			return err
		}
		total := 0
		for _, run := range rle {
			if run < 0 {
				return newArgumentError("mask run length can not be negative, got %d", run)
			}
			total += run
		}
		if total != box.width()*box.height() {
			return newArgumentError("mask runs cover %d pixels, box holds %d", total, box.width()*box.height())
		}
	case ShapeSkeleton:
		// Elements are validated independently
	default:
		return newArgumentError("unknown shape type %q", shapeType)
	}
	for _, coordinate := range points {
		if math.IsNaN(coordinate) || math.IsInf(coordinate, 0) {
			return newArgumentError("points must be finite numbers, got %v", coordinate)
		}
	}
	return nil
}

// CheckShapeArea reports whether the shape is large enough to be kept.
// Points are always kept, polylines are checked by length, the rest by area.
func CheckShapeArea(shapeType ShapeType, points []float64) bool {
	switch shapeType {
	case ShapePoints, ShapeSkeleton:
		return true
	case ShapeMask:
		_, box, err := splitMaskPoints(points)
		if err != nil {
			return false
		}
		return float64(box.width()*box.height()) >= minMaskShapeArea
	case ShapeEllipse:
		if len(points) < 4 {
			return false
		}
		rx := points[2] - points[0]
		ry := points[1] - points[3]
		return math.Abs(rx*ry)*math.Pi > minShapeArea
	}
	if len(points) < 2 {
		return false
	}
	xtl, ytl, xbr, ybr := boundingBox(points)
	if shapeType == ShapePolyline {
		return math.Max(xbr-xtl, ybr-ytl) >= minShapeLength
	}
	return (xbr-xtl)*(ybr-ytl) >= minShapeArea
}

// fitPoints clamps points into the image. Rotated shapes and shapes whose points
// are not plain vertices (cuboid, ellipse, mask, skeleton) are returned as is.
func fitPoints(shapeType ShapeType, points []float64, rotation, width, height float64) []float64 {
	switch shapeType {
	case ShapeCuboid, ShapeEllipse, ShapeMask, ShapeSkeleton:
		return copyFloats(points)
	}
	if rotation != 0 {
		return copyFloats(points)
	}
	fitted := make([]float64, len(points))
	for i := 0; i+1 < len(points); i += 2 {
		fitted[i] = clamp(points[i], 0, width)
		fitted[i+1] = clamp(points[i+1], 0, height)
	}
	return fitted
}

// checkOutside reports whether every point lies outside the image
func checkOutside(points []float64, width, height float64) bool {
	for i := 0; i+1 < len(points); i += 2 {
		x, y := points[i], points[i+1]
		if x >= 0 && x <= width && y >= 0 && y <= height {
			return false
		}
	}
	return true
}

// ValidateColor reports whether color is a #rrggbb string
func ValidateColor(color string) bool {
	return colorPattern.MatchString(color)
}

// ValidateAttributeValue checks value against the attribute spec input type
func ValidateAttributeValue(value string, spec AttributeSpec) bool {
	switch spec.InputType {
	case AttributeCheckbox:
		return value == "true" || value == "false"
	case AttributeNumber:
		if len(spec.Values) < 3 {
			return false
		}
		bounds := make([]float64, 3)
		for i := range bounds {
			parsed, err := strconv.ParseFloat(spec.Values[i], 64)
			if err != nil {
				return false
			}
			bounds[i] = parsed
		}
		number, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(number) {
			return false
		}
		low, high, step := bounds[0], bounds[1], bounds[2]
		if number < low || number > high {
			return false
		}
		if step <= 0 {
			return true
		}
		steps := (number - low) / step
		return scalar.EqualWithinAbs(steps, math.Round(steps), 1e-9)
	case AttributeRadio:
		return slices.Contains(spec.Values, value)
	case AttributeSelect:
		return value == UndefinedAttributeValue || slices.Contains(spec.Values, value)
	case AttributeText:
		return true
	}
	return false
}
