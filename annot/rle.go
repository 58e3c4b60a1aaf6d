package annot

// Mask2Rle encodes a dense 0/1 pixel sequence as alternating run lengths.
// The first run always counts zeros, so it is 0 when the mask starts with a set pixel.
func Mask2Rle(mask []uint8) []int {
	rle := make([]int, 0, 16)
	for i, value := range mask {
		set := value > 0
		if i == 0 {
			if set {
				rle = append(rle, 0, 1)
			} else {
				rle = append(rle, 1)
			}
			continue
		}
		if set == (mask[i-1] > 0) {
			rle[len(rle)-1]++
		} else {
			rle = append(rle, 1)
		}
	}
	return rle
}

// Rle2Mask decodes run lengths into a width*height 0/1 pixel sequence.
// Runs shorter than the image leave the tail unset; runs longer than it are an ArgumentError.
func Rle2Mask(rle []int, width, height int) ([]uint8, error) {
	if width <= 0 || height <= 0 {
		return nil, newArgumentError("mask size must be positive, got %dx%d", width, height)
	}
	decoded := make([]uint8, width*height)
	idx := 0
	value := uint8(0)
	for _, count := range rle {
		if count < 0 {
			return nil, newArgumentError("mask run length can not be negative, got %d", count)
		}
		if idx+count > len(decoded) {
			return nil, newArgumentError("mask runs exceed %dx%d pixels", width, height)
		}
		if value == 1 {
			for j := idx; j < idx+count; j++ {
				decoded[j] = 1
			}
		}
		idx += count
		value = 1 - value
	}
	return decoded, nil
}

// maskBox is the bounding box that trails mask points
type maskBox struct {
	left, top, right, bottom int
}

func (b maskBox) width() int {
	return b.right - b.left + 1
}

func (b maskBox) height() int {
	return b.bottom - b.top + 1
}

func (b maskBox) contains(x, y int) bool {
	return x >= b.left && x <= b.right && y >= b.top && y <= b.bottom
}

// maskBoxOf reads the trailing (left, top, right, bottom) of mask points
func maskBoxOf(points []float64) (maskBox, error) {
	if len(points) < 5 {
		return maskBox{}, newArgumentError("mask requires run lengths and 4 box coordinates, got %d numbers", len(points))
	}
	n := len(points)
	box := maskBox{
		left:   int(points[n-4]),
		top:    int(points[n-3]),
		right:  int(points[n-2]),
		bottom: int(points[n-1]),
	}
	if box.right < box.left || box.bottom < box.top {
		return maskBox{}, newArgumentError("mask box (%d, %d, %d, %d) is inverted", box.left, box.top, box.right, box.bottom)
	}
	return box, nil
}

// splitMaskPoints separates run lengths from the trailing box
func splitMaskPoints(points []float64) ([]int, maskBox, error) {
	box, err := maskBoxOf(points)
	if err != nil {
		return nil, maskBox{}, err
	}
	rle := make([]int, len(points)-4)
	for i := range rle {
		rle[i] = int(points[i])
	}
	return rle, box, nil
}

// maskPixelAt walks run lengths of mask points up to offset inside the box. Odd runs are set pixels.
func maskPixelAt(points []float64, offset int) bool {
	end := 0
	for i, run := range points[:len(points)-4] {
		end += int(run)
		if offset < end {
			return i%2 == 1
		}
	}
	return false
}

// checkMaskFrame rejects mask boxes reaching outside a width x height frame
func checkMaskFrame(points []float64, width, height float64) error {
	box, err := maskBoxOf(points)
	if err != nil {
		return err
	}
	if box.left < 0 || box.top < 0 || float64(box.right) >= width || float64(box.bottom) >= height {
		return newArgumentError("mask box (%d, %d, %d, %d) is outside %vx%v frame", box.left, box.top, box.right, box.bottom, width, height)
	}
	return nil
}

// decodeMaskPoints returns the bitmap of mask points together with its box
func decodeMaskPoints(points []float64) ([]uint8, maskBox, error) {
	rle, box, err := splitMaskPoints(points)
	if err != nil {
		return nil, maskBox{}, err
	}
	bitmap, err := Rle2Mask(rle, box.width(), box.height())
	if err != nil {
		return nil, maskBox{}, err
	}
	return bitmap, box, nil
}

// encodeMaskPoints is the inverse of decodeMaskPoints
func encodeMaskPoints(bitmap []uint8, box maskBox) []float64 {
	rle := Mask2Rle(bitmap)
	points := make([]float64, 0, len(rle)+4)
	for _, run := range rle {
		points = append(points, float64(run))
	}
	return append(points, float64(box.left), float64(box.top), float64(box.right), float64(box.bottom))
}
