package annot

import "math"

// IoU calculates Intersection over Union between two rectangles.
func IoU(r1, r2 Rectangle) float64 {
	xA := maxFloat64(r1.X, r2.X)
	yA := maxFloat64(r1.Y, r2.Y)
	xB := minFloat64(r1.X+r1.Width, r2.X+r2.Width)
	yB := minFloat64(r1.Y+r1.Height, r2.Y+r2.Height)

	interArea := maxFloat64(0, xB-xA) * maxFloat64(0, yB-yA)
	if interArea == 0 {
		return 0.0
	}

	r1Area := r1.Width * r1.Height
	r2Area := r2.Width * r2.Height

	return interArea / (r1Area + r2Area - interArea)
}

func maxFloat64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clamp(value, low, high float64) float64 {
	return math.Max(low, math.Min(value, high))
}

// lerp blends a and b so that t=0 gives exactly a and t=1 gives exactly b
func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

func copyFloats(values []float64) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, len(values))
	copy(out, values)
	return out
}

func copyAttributes(attributes map[int]string) map[int]string {
	out := make(map[int]string, len(attributes))
	for id, value := range attributes {
		out[id] = value
	}
	return out
}
