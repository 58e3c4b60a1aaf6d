package annot

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
)

// skeletonAggregates are skeleton fields computed over elements and written to every element
var skeletonAggregates = []StateField{FieldOccluded, FieldOutside, FieldLock, FieldHidden, FieldKeyframe}

// skeletonCandidates builds one candidate per element, in element order. Element states given in the
// skeleton candidate are matched by client id; skeleton-wide points, rotation and aggregate flags are
// spread over elements which do not change those fields themselves.
func skeletonCandidates(current []ObjectState, state ObjectState, changed StateField) ([]ObjectState, error) {
	candidates := make([]ObjectState, len(current))
	for i, elementState := range current {
		candidates[i] = elementState.Clone()
		candidates[i].Changed = 0
	}
	for _, elementState := range state.Elements {
		idx := slices.IndexFunc(current, func(item ObjectState) bool { return item.ClientID == elementState.ClientID })
		if idx < 0 {
			return nil, newArgumentError("object %d is not an element of skeleton %d", elementState.ClientID, state.ClientID)
		}
		candidates[idx] = elementState.Clone()
	}

	if changed.Has(FieldPoints) {
		currentPoints := make([]float64, 0, len(current)*2)
		for _, elementState := range current {
			currentPoints = append(currentPoints, elementState.Points...)
		}
		if len(state.Points) != len(currentPoints) {
			return nil, newArgumentError("skeleton %d expects %d numbers, got %d", state.ClientID, len(currentPoints), len(state.Points))
		}
		if !slices.Equal(state.Points, currentPoints) {
			offset := 0
			for i := range candidates {
				n := len(current[i].Points)
				if !candidates[i].Changed.Has(FieldPoints) {
					candidates[i].SetPoints(state.Points[offset : offset+n])
				}
				offset += n
			}
		}
	}

	for _, field := range skeletonAggregates {
		if !changed.Has(field) {
			continue
		}
		for i := range candidates {
			if candidates[i].Changed.Has(field) {
				continue
			}
			switch field {
			case FieldOccluded:
				candidates[i].SetOccluded(state.Occluded)
			case FieldOutside:
				candidates[i].SetOutside(state.Outside)
			case FieldLock:
				candidates[i].SetLock(state.Lock)
			case FieldHidden:
				candidates[i].SetHidden(state.Hidden)
			case FieldKeyframe:
				candidates[i].SetKeyframe(state.Keyframe)
			}
		}
	}

	if changed.Has(FieldRotation) && normalizeAngle(state.Rotation) != 0 {
		all := make([]float64, 0, len(candidates)*2)
		for _, candidate := range candidates {
			all = append(all, candidate.Points...)
		}
		xtl, ytl, xbr, ybr := boundingBox(all)
		cx, cy := (xtl+xbr)/2.0, (ytl+ybr)/2.0
		for i := range candidates {
			rotated := make([]float64, len(candidates[i].Points))
			for j := 0; j+1 < len(rotated); j += 2 {
				rotated[j], rotated[j+1] = RotatePoint(candidates[i].Points[j], candidates[i].Points[j+1], state.Rotation, cx, cy)
			}
			candidates[i].SetPoints(rotated)
		}
	}
	return candidates, nil
}

// skeletonErrors aggregates element failures into one ArgumentError
func skeletonErrors(clientID int, errs []error) error {
	return errors.WithStack(&ArgumentError{
		Message: fmt.Sprintf("skeleton %d has invalid elements", clientID),
		Errors:  errs,
	})
}

// actionFor names a grouped edit after its first changed field
func actionFor(changed StateField) HistoryAction {
	switch {
	case changed.Has(FieldLabel):
		return ActionChangedLabel
	case changed.Has(FieldAttributes):
		return ActionChangedAttributes
	case changed.Has(FieldPoints):
		return ActionChangedPoints
	case changed.Has(FieldRotation):
		return ActionChangedRotation
	case changed.Has(FieldOutside):
		return ActionChangedOutside
	case changed.Has(FieldOccluded):
		return ActionChangedOccluded
	case changed.Has(FieldZOrder):
		return ActionChangedZOrder
	case changed.Has(FieldKeyframe):
		return ActionChangedKeyframe
	case changed.Has(FieldLock):
		return ActionChangedLock
	case changed.Has(FieldPinned):
		return ActionChangedPinned
	case changed.Has(FieldColor):
		return ActionChangedColor
	case changed.Has(FieldHidden):
		return ActionChangedHidden
	case changed.Has(FieldGroup):
		return ActionChangedGroup
	case changed.Has(FieldDescriptions):
		return ActionChangedDescriptions
	}
	return ActionChangedSource
}

// skeletonGeometry are edits which make an automatic skeleton manual. Element source is read-only.
const skeletonGeometry = FieldPoints | FieldRotation | FieldOccluded | FieldOutside

func (a *annotation) promoteSource(changed StateField, frame int) {
	if changed&skeletonGeometry == 0 {
		return
	}
	if promote, ok := a.manualSourceChange(); ok {
		a.record(ActionChangedSource, frame, promote)
	}
}

func validateSkeletonLabel(a *annotation, state ObjectState, changed StateField) error {
	if changed.Has(FieldLabel) && state.Label != nil && state.Label.ID != a.label.ID {
		return newArgumentError("label of skeleton %d can not be changed", a.clientID)
	}
	return nil
}

// saveSkeleton validates every element first and applies nothing if any of them fails.
// Accepted edits of the skeleton and its elements are recorded as one history entry.
func (s *Shape) saveSkeleton(frame int, state ObjectState) (ObjectState, error) {
	current := s.snapshot()
	if current.Lock && state.Lock {
		return current, nil
	}
	changed := s.changedFields(state)
	if err := validateSkeletonLabel(&s.annotation, state, changed); err != nil {
		return ObjectState{}, err
	}
	if err := s.validateCommon(state, changed); err != nil {
		return ObjectState{}, err
	}
	candidates, err := skeletonCandidates(current.Elements, state, changed)
	if err != nil {
		return ObjectState{}, err
	}

	edits := make([]shapeEdit, len(s.elements))
	var errs []error
	combined := changed
	for i, element := range s.elements {
		if candidates[i].Changed == 0 || (element.lock && candidates[i].Lock) {
			continue
		}
		edit, err := element.prepare(frame, candidates[i])
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "element %d", element.clientID))
			continue
		}
		edits[i] = edit
		combined |= edit.changed
	}
	if len(errs) > 0 {
		return ObjectState{}, skeletonErrors(s.clientID, errs)
	}

	err = s.history().Batch(actionFor(combined), s.groupIDs(), frame, func() error {
		s.saveLabelAndAttributes(state, changed, frame)
		if changed.Has(FieldZOrder) && state.ZOrder != s.zOrder {
			s.record(ActionChangedZOrder, frame, change{target: s, field: FieldZOrder, before: s.zOrder, after: state.ZOrder})
		}
		s.saveFlags(state, changed&^(FieldLock|FieldHidden), frame)
		for i, element := range s.elements {
			if edits[i].changed != 0 {
				element.apply(frame, edits[i])
			}
		}
		s.promoteSource(combined, frame)
		return nil
	})
	if err != nil {
		return ObjectState{}, err
	}
	return s.snapshot(), nil
}

// getSkeleton composes element states; z-order and attributes come from the skeleton's own keyframes
func (t *Track) getSkeleton(frame int) (ObjectState, error) {
	position, bounds, err := t.position(frame)
	if err != nil {
		return ObjectState{}, err
	}
	state := t.baseState(ObjectTrack, frame)
	state.ShapeType = ShapeSkeleton
	state.Attributes = t.getAttributes(frame)
	state.ZOrder = position.zOrder
	state.Occluded = position.occluded
	state.Outside = position.outside
	_, state.Keyframe = t.shapes[frame]
	state.Keyframes = &bounds
	state.object = t
	if len(t.elements) == 0 {
		return state, nil
	}
	state.Occluded, state.Outside, state.Lock, state.Hidden = true, true, true, true
	state.Elements = make([]ObjectState, 0, len(t.elements))
	for _, element := range t.elements {
		elementState, err := element.Get(frame)
		if err != nil {
			return ObjectState{}, err
		}
		inheritSkeletonFields(&elementState, t.group, position.zOrder, t.source)
		state.Points = append(state.Points, elementState.Points...)
		state.Occluded = state.Occluded && elementState.Occluded
		state.Outside = state.Outside && elementState.Outside
		state.Lock = state.Lock && elementState.Lock
		state.Hidden = state.Hidden && elementState.Hidden
		state.Keyframe = state.Keyframe || elementState.Keyframe
		state.Elements = append(state.Elements, elementState)
	}
	return state, nil
}

// saveSkeleton is the track counterpart of Shape.saveSkeleton
func (t *Track) saveSkeleton(frame int, state ObjectState) (ObjectState, error) {
	current, err := t.getSkeleton(frame)
	if err != nil {
		return ObjectState{}, err
	}
	if current.Lock && state.Lock {
		return current, nil
	}
	changed := t.changedFields(state)
	if err := validateSkeletonLabel(&t.annotation, state, changed); err != nil {
		return ObjectState{}, err
	}
	if err := t.validateCommon(state, changed); err != nil {
		return ObjectState{}, err
	}
	candidates, err := skeletonCandidates(current.Elements, state, changed)
	if err != nil {
		return ObjectState{}, err
	}

	edits := make([]trackEdit, len(t.elements))
	var errs []error
	combined := changed
	for i, element := range t.elements {
		if candidates[i].Changed == 0 || (element.lock && candidates[i].Lock) {
			continue
		}
		edit, err := element.prepare(frame, candidates[i])
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "element %d", element.clientID))
			continue
		}
		edits[i] = edit
		combined |= edit.changed
	}
	if len(errs) > 0 {
		return ObjectState{}, skeletonErrors(t.clientID, errs)
	}

	err = t.history().Batch(actionFor(combined), t.groupIDs(), frame, func() error {
		if changed.Has(FieldAttributes) {
			if diff := changedAttributes(t.getAttributes(frame), state.Attributes); len(diff) > 0 {
				if err := t.saveAttributes(diff, frame); err != nil {
					return err
				}
			}
		}
		if changed.Has(FieldZOrder) && state.ZOrder != current.ZOrder {
			if err := t.updateKeyframe(ActionChangedZOrder, frame, false, func(k *keyframe) { k.zOrder = state.ZOrder }); err != nil {
				return err
			}
		}
		if changed.Has(FieldKeyframe) {
			// the skeleton keeps at least one own keyframe for z-order and attributes
			if _, own := t.shapes[frame]; state.Keyframe || !own || len(t.shapes) > 1 {
				if err := t.SaveKeyframe(frame, state.Keyframe); err != nil {
					return err
				}
			}
		}
		t.saveFlags(state, changed&^(FieldLock|FieldHidden), frame)
		for i, element := range t.elements {
			if edits[i].changed == 0 {
				continue
			}
			if err := element.apply(frame, edits[i]); err != nil {
				return err
			}
		}
		t.promoteSource(combined, frame)
		return nil
	})
	if err != nil {
		return ObjectState{}, err
	}
	return t.getSkeleton(frame)
}
