package annot

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// motionModel smooths a box sequence with 8-D Kalman filter.
// State vector: [cx, cy, w, h, vx, vy, vw, vh] - center position, size, and velocities.
type motionModel struct {
	tracker *kalman_filter.KalmanBBox
	frame   int
}

func newMotionModel(box Rectangle, frame int) *motionModel {
	center := box.Center()
	// Kalman filter props
	dt := 1.0
	uCx := 1.0
	uCy := 1.0
	uW := 0.0
	uH := 0.0
	stdDevA := 2.0
	stdDevMCx := 0.1
	stdDevMCy := 0.1
	stdDevMW := 0.1
	stdDevMH := 0.1
	kf := kalman_filter.NewKalmanBBox(
		dt, uCx, uCy, uW, uH,
		stdDevA, stdDevMCx, stdDevMCy, stdDevMW, stdDevMH,
		kalman_filter.WithStateBBox(center.X, center.Y, box.Width, box.Height),
	)
	return &motionModel{tracker: kf, frame: frame}
}

// advance runs one prediction step per frame up to frame
func (m *motionModel) advance(frame int) {
	for ; m.frame < frame; m.frame++ {
		m.tracker.Predict()
	}
}

// observe corrects the state with a measured box on frame
func (m *motionModel) observe(box Rectangle, frame int) error {
	m.advance(frame)
	center := box.Center()
	err := m.tracker.Update(center.X, center.Y, box.Width, box.Height)
	if err != nil {
		return errors.Wrap(err, "Can't update motion model")
	}
	return nil
}

func (m *motionModel) box() Rectangle {
	cx, cy, w, h := m.tracker.GetState()
	return Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}
}

// Predict extrapolates a rectangle track to frame, feeding visible keyframes to a motion model.
// The result is not saved; saving the returned state creates a keyframe.
func (t *Track) Predict(frame int) (ObjectState, error) {
	if t.shapeType != ShapeRectangle {
		return ObjectState{}, newArgumentError("only rectangle tracks can be predicted, track %d is %s", t.clientID, t.shapeType)
	}
	observed := make([]int, 0, len(t.shapes))
	for _, keyframeNumber := range t.frames() {
		if !t.inj.isDeleted(keyframeNumber) && !t.shapes[keyframeNumber].outside {
			observed = append(observed, keyframeNumber)
		}
	}
	if len(observed) == 0 {
		return ObjectState{}, newDataError("track %d has no visible keyframes", t.clientID)
	}
	if last := observed[len(observed)-1]; frame < last {
		return ObjectState{}, newArgumentError("prediction frame %d precedes last keyframe %d of track %d", frame, last, t.clientID)
	}

	model := newMotionModel(NewRectFromPoints(t.shapes[observed[0]].points), observed[0])
	for _, keyframeNumber := range observed[1:] {
		if err := model.observe(NewRectFromPoints(t.shapes[keyframeNumber].points), keyframeNumber); err != nil {
			return ObjectState{}, errors.Wrapf(err, "track %d keyframe %d", t.clientID, keyframeNumber)
		}
	}
	model.advance(frame)

	state, err := t.Get(frame)
	if err != nil {
		return ObjectState{}, err
	}
	state.SetPoints(model.box().Points())
	if state.Outside {
		state.SetOutside(false)
	}
	return state, nil
}
