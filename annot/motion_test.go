package annot

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTrackPredict(t *testing.T) {
	inj := newTestInjection()
	track := newTestTrack(t, inj, ShapeRectangle, map[int][]float64{
		0:  {0, 0, 10, 10},
		10: {10, 0, 20, 10},
		20: {20, 0, 30, 10},
	})
	state, err := track.Predict(30)
	if err != nil {
		t.Fatalf("Can't predict: %v", err)
	}
	if len(state.Points) != 4 {
		t.Fatalf("Prediction should be a rectangle, got %v", state.Points)
	}
	centerX := (state.Points[0] + state.Points[2]) / 2.0
	if centerX <= 20 {
		t.Errorf("Track moves right, predicted center should pass the last keyframe center, got %v", centerX)
	}
	if !state.Changed.Has(FieldPoints) || state.Outside {
		t.Errorf("Prediction should be a visible candidate with changed points, got %+v", state)
	}
	if diff := cmp.Diff([]int{0, 10, 20}, track.Keyframes()); diff != "" {
		t.Errorf("Prediction should not be saved (-want +got):\n%s", diff)
	}
	if len(inj.History.Get().Undo) != 0 {
		t.Error("Prediction should not be recorded")
	}
}

func TestTrackPredictErrors(t *testing.T) {
	inj := newTestInjection()
	polygon := newTestTrack(t, inj, ShapePolygon, map[int][]float64{0: {0, 0, 10, 0, 10, 10}})
	if _, err := polygon.Predict(5); !IsArgumentError(err) {
		t.Errorf("Polygon track should fail with ArgumentError, got %v", err)
	}
	track := newTestTrack(t, inj, ShapeRectangle, map[int][]float64{
		0:  {0, 0, 10, 10},
		10: {10, 0, 20, 10},
	})
	if _, err := track.Predict(5); !IsArgumentError(err) {
		t.Errorf("Frame before the last keyframe should fail with ArgumentError, got %v", err)
	}
	hidden, err := TrackFromRaw(RawTrackData{
		LabelID: 1,
		Shapes:  []RawTrackedShape{{Type: ShapeRectangle, Frame: 0, Outside: true, Points: []float64{0, 0, 10, 10}}},
	}, inj.IDs.NextClientID(), inj)
	if err != nil {
		t.Fatalf("Can't create track: %v", err)
	}
	if _, err := hidden.Predict(5); !IsDataError(err) {
		t.Errorf("Track without visible keyframes should fail with DataError, got %v", err)
	}
}
