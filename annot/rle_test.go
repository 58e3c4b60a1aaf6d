package annot

import (
	"math/rand"
	"slices"
	"testing"
)

func TestMask2Rle(t *testing.T) {
	cases := []struct {
		mask []uint8
		rle  []int
	}{
		{[]uint8{0, 0, 1, 1, 1, 0}, []int{2, 3, 1}},
		{[]uint8{1, 1, 0}, []int{0, 2, 1}},
		{[]uint8{0, 0, 0}, []int{3}},
		{[]uint8{1}, []int{0, 1}},
	}
	for _, c := range cases {
		if answer := Mask2Rle(c.mask); !slices.Equal(answer, c.rle) {
			t.Errorf("Mask2Rle(%v): %v, correct answer: %v", c.mask, answer, c.rle)
		}
	}
}

func TestRleRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		width := rng.Intn(12) + 1
		height := rng.Intn(12) + 1
		mask := make([]uint8, width*height)
		for j := range mask {
			if rng.Intn(3) == 0 {
				mask[j] = 1
			}
		}
		decoded, err := Rle2Mask(Mask2Rle(mask), width, height)
		if err != nil {
			t.Fatalf("Can't decode %dx%d mask: %v", width, height, err)
		}
		if !slices.Equal(decoded, mask) {
			t.Fatalf("Round trip of %dx%d mask failed: %v != %v", width, height, decoded, mask)
		}
	}
}

func TestRle2MaskOverflow(t *testing.T) {
	if _, err := Rle2Mask([]int{3, 4}, 2, 3); !IsArgumentError(err) {
		t.Errorf("Runs longer than the image should fail with ArgumentError, got %v", err)
	}
}

func TestMaskPoints(t *testing.T) {
	points := []float64{1, 2, 3, 10, 20, 12, 21}
	bitmap, box, err := decodeMaskPoints(points)
	if err != nil {
		t.Fatalf("Can't decode mask points: %v", err)
	}
	if box.width() != 3 || box.height() != 2 {
		t.Errorf("Wrong mask box size: %dx%d, correct answer: 3x2", box.width(), box.height())
	}
	if !slices.Equal(bitmap, []uint8{0, 1, 1, 0, 0, 0}) {
		t.Errorf("Wrong bitmap: %v", bitmap)
	}
	if encoded := encodeMaskPoints(bitmap, box); !slices.Equal(encoded, points) {
		t.Errorf("Wrong encoded points: %v, correct answer: %v", encoded, points)
	}
}
