package annot

import (
	"testing"
)

type maskList []*Shape

func (m maskList) MasksOnFrame(frame int) []*Shape {
	out := make([]*Shape, 0, len(m))
	for _, mask := range m {
		if mask.frame == frame {
			out = append(out, mask)
		}
	}
	return out
}

func TestRemoveUnderlyingPixels(t *testing.T) {
	inj := newTestInjection()
	inj.RemoveUnderlyingPixels = true
	top := newTestShape(t, inj, ShapeMask, []float64{0, 4, 0, 0, 3, 0})
	bottom := newTestShape(t, inj, ShapeMask, []float64{0, 4, 0, 0, 3, 0})
	inj.Masks = maskList{top, bottom}

	state, _ := top.Get(0)
	state.SetPoints([]float64{0, 2, 2, 0, 0, 3, 0})
	if _, err := state.Save(); err != nil {
		t.Fatalf("Can't save mask: %v", err)
	}
	underlying, _ := bottom.Get(0)
	if !pointsEqual(underlying.Points, []float64{2, 2, 0, 0, 3, 0}) {
		t.Errorf("Covered pixels should be erased, got %v", underlying.Points)
	}
	history := inj.History.Get()
	if len(history.Undo) != 1 {
		t.Fatalf("Mask edit and pixel removal should be one entry, got %d", len(history.Undo))
	}
	if len(history.Undo[0].ClientIDs) != 2 {
		t.Errorf("Entry should name both masks, got %v", history.Undo[0].ClientIDs)
	}

	inj.History.Undo(1)
	underlying, _ = bottom.Get(0)
	if !pointsEqual(underlying.Points, []float64{0, 4, 0, 0, 3, 0}) {
		t.Errorf("Undo should restore erased pixels, got %v", underlying.Points)
	}
}

func TestRemoveUnderlyingPixelsDisabled(t *testing.T) {
	inj := newTestInjection()
	top := newTestShape(t, inj, ShapeMask, []float64{0, 4, 0, 0, 3, 0})
	bottom := newTestShape(t, inj, ShapeMask, []float64{0, 4, 0, 0, 3, 0})
	inj.Masks = maskList{top, bottom}

	state, _ := top.Get(0)
	state.SetPoints([]float64{0, 2, 2, 0, 0, 3, 0})
	if _, err := state.Save(); err != nil {
		t.Fatalf("Can't save mask: %v", err)
	}
	underlying, _ := bottom.Get(0)
	if !pointsEqual(underlying.Points, []float64{0, 4, 0, 0, 3, 0}) {
		t.Errorf("Pixels should stay when removal is disabled, got %v", underlying.Points)
	}
}

func TestRemoveUnderlyingPixelsDisjoint(t *testing.T) {
	inj := newTestInjection()
	inj.RemoveUnderlyingPixels = true
	top := newTestShape(t, inj, ShapeMask, []float64{0, 4, 0, 0, 3, 0})
	other := newTestShape(t, inj, ShapeMask, []float64{0, 4, 10, 10, 13, 10})
	inj.Masks = maskList{top, other}

	state, _ := top.Get(0)
	state.SetPoints([]float64{0, 2, 2, 0, 0, 3, 0})
	if _, err := state.Save(); err != nil {
		t.Fatalf("Can't save mask: %v", err)
	}
	history := inj.History.Get()
	if len(history.Undo) != 1 || len(history.Undo[0].ClientIDs) != 1 {
		t.Errorf("Disjoint mask should not be touched, got %+v", history.Undo)
	}
}

func TestMaskOutsideFrame(t *testing.T) {
	inj := newTestInjection()
	mask := newTestShape(t, inj, ShapeMask, []float64{0, 4, 0, 0, 3, 0})

	state, _ := mask.Get(0)
	state.SetPoints([]float64{0, 4, 98, 0, 101, 0})
	if _, err := state.Save(); !IsArgumentError(err) {
		t.Errorf("Mask box beyond the frame should fail with ArgumentError, got %v", err)
	}
	current, _ := mask.Get(0)
	if !pointsEqual(current.Points, []float64{0, 4, 0, 0, 3, 0}) {
		t.Errorf("Rejected mask should keep its points, got %v", current.Points)
	}
	if len(inj.History.Get().Undo) != 0 {
		t.Error("Rejected mask should not be recorded")
	}

	collection := NewCollection(inj.Labels, inj)
	_, err := collection.Add(ObjectState{
		ObjectType: ObjectShape,
		ShapeType:  ShapeMask,
		Label:      mustLabel(t, inj, 1),
		Points:     []float64{0, 4, -2, 0, 1, 0},
	})
	if !IsArgumentError(err) {
		t.Errorf("Added mask with negative box should fail with ArgumentError, got %v", err)
	}
}
