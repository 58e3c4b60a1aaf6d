package annot

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const (
	eps = 0.00001
)

var stateOptions = cmp.Options{
	cmpopts.IgnoreUnexported(ObjectState{}),
	cmpopts.IgnoreFields(ObjectState{}, "UpdatedAt"),
}

func testLabels() *LabelSet {
	car := &Label{
		ID:    1,
		Name:  "car",
		Color: "#ff0000",
		Attributes: []AttributeSpec{
			{ID: 10, Name: "speed", InputType: AttributeNumber, DefaultValue: "0", Values: []string{"0", "100", "1"}},
			{ID: 11, Name: "parked", Mutable: true, InputType: AttributeCheckbox, DefaultValue: "false", Values: []string{"true", "false"}},
		},
	}
	bike := &Label{
		ID:   2,
		Name: "bike",
		Attributes: []AttributeSpec{
			{ID: 20, Name: "speed", InputType: AttributeNumber, DefaultValue: "5", Values: []string{"0", "100", "1"}},
		},
	}
	person := &Label{
		ID:   3,
		Name: "person",
		Attributes: []AttributeSpec{
			{ID: 30, Name: "pose", InputType: AttributeSelect, DefaultValue: "standing", Values: []string{"standing", "sitting"}},
		},
	}
	hand := &Label{
		ID:   4,
		Name: "hand",
		Type: "skeleton",
		Sublabels: []*Label{
			{ID: 41, Name: "wrist", Type: "points"},
			{ID: 42, Name: "thumb", Type: "points"},
			{ID: 43, Name: "index", Type: "points"},
		},
	}
	return NewLabelSet(car, bike, person, hand)
}

func newTestInjection() *Injection {
	return NewInjection(testLabels(), &Frames{Default: FrameSize{Width: 100, Height: 100}})
}

func mustLabel(t *testing.T, inj *Injection, id int) *Label {
	t.Helper()
	label, ok := inj.Labels.Label(id)
	if !ok {
		t.Fatalf("label %d is not defined", id)
	}
	return label
}

func newTestShape(t *testing.T, inj *Injection, shapeType ShapeType, points []float64) *Shape {
	t.Helper()
	shape, err := ShapeFromRaw(RawShapeData{
		Type:    shapeType,
		Frame:   0,
		LabelID: 1,
		Source:  SourceManual,
		Points:  points,
	}, inj.IDs.NextClientID(), inj)
	if err != nil {
		t.Fatalf("Can't create shape: %v", err)
	}
	return shape
}

func newTestTrack(t *testing.T, inj *Injection, shapeType ShapeType, keyframes map[int][]float64) *Track {
	t.Helper()
	data := RawTrackData{LabelID: 1, Source: SourceManual}
	for frame, points := range keyframes {
		data.Shapes = append(data.Shapes, RawTrackedShape{Type: shapeType, Frame: frame, Points: points})
	}
	track, err := TrackFromRaw(data, inj.IDs.NextClientID(), inj)
	if err != nil {
		t.Fatalf("Can't create track: %v", err)
	}
	return track
}

func newTestSkeleton(t *testing.T, inj *Injection) *Shape {
	t.Helper()
	skeleton, err := ShapeFromRaw(RawShapeData{
		Type:    ShapeSkeleton,
		Frame:   0,
		LabelID: 4,
		Source:  SourceAuto,
		Elements: []RawShapeData{
			{Type: ShapePoints, LabelID: 41, Points: []float64{10, 10}},
			{Type: ShapePoints, LabelID: 42, Points: []float64{20, 10}},
			{Type: ShapePoints, LabelID: 43, Points: []float64{30, 20}},
		},
	}, inj.IDs.NextClientID(), inj)
	if err != nil {
		t.Fatalf("Can't create skeleton: %v", err)
	}
	return skeleton
}

func pointsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}
