package annot

// removeUnderlyingPixels clears pixels of this mask from every other visible mask on the frame.
// Rewrites join the currently open history group.
func (s *Shape) removeUnderlyingPixels(frame int) {
	if s.inj.Masks == nil {
		return
	}
	bitmap, box, err := decodeMaskPoints(s.points)
	if err != nil {
		return
	}
	for _, other := range s.inj.Masks.MasksOnFrame(frame) {
		if other == s || other.removed || other.shapeType != ShapeMask || other.frame != frame {
			continue
		}
		if other.checkMask(ShapeMask, frame, other.points) != nil {
			continue
		}
		otherBitmap, otherBox, err := decodeMaskPoints(other.points)
		if err != nil {
			continue
		}
		left, right := max(box.left, otherBox.left), min(box.right, otherBox.right)
		top, bottom := max(box.top, otherBox.top), min(box.bottom, otherBox.bottom)
		if left > right || top > bottom {
			continue
		}
		erased := 0
		for y := top; y <= bottom; y++ {
			for x := left; x <= right; x++ {
				if bitmap[(y-box.top)*box.width()+(x-box.left)] == 0 {
					continue
				}
				idx := (y-otherBox.top)*otherBox.width() + (x - otherBox.left)
				if otherBitmap[idx] == 1 {
					otherBitmap[idx] = 0
					erased++
				}
			}
		}
		if erased == 0 {
			continue
		}
		s.inj.Logger.Debug().Int("client_id", other.clientID).Int("frame", frame).Int("pixels", erased).Msg("underlying pixels removed")
		other.record(ActionRemovedPixels, frame, change{
			target: other,
			field:  FieldPoints,
			before: other.points,
			after:  encodeMaskPoints(otherBitmap, otherBox),
		})
	}
}
