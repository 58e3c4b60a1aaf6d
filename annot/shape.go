package annot

import (
	"math"
	"slices"
	"time"
)

// skeletonElementReadOnly are element fields inherited from the parent skeleton
const skeletonElementReadOnly = FieldGroup | FieldZOrder | FieldSource | FieldRotation

// Shape is a single-frame geometric object. Skeleton shapes keep their geometry in elements.
type Shape struct {
	annotation
	shapeType ShapeType
	points    []float64
	rotation  float64
	occluded  bool
	outside   bool
	zOrder    int
	elements  []*Shape
}

func newShape(data RawShapeData, clientID int, label *Label, inj *Injection) *Shape {
	shape := &Shape{
		annotation: newAnnotation(clientID, data.ID, label, data.Frame, data.Group, data.Source, inj),
		shapeType:  data.Type,
		points:     copyFloats(data.Points),
		occluded:   data.Occluded,
		outside:    data.Outside,
		zOrder:     data.ZOrder,
	}
	if data.Rotation != nil {
		shape.rotation = normalizeAngle(*data.Rotation)
	}
	shape.descriptions = append([]string(nil), data.Descriptions...)
	for id, value := range attributesFromRaw(data.Attributes) {
		shape.attributes[id] = value
	}
	shape.self = shape
	return shape
}

// ObjectType implements Annotation
func (s *Shape) ObjectType() ObjectType {
	return ObjectShape
}

// ShapeType returns geometry variant
func (s *Shape) ShapeType() ShapeType {
	return s.shapeType
}

// Elements returns skeleton elements
func (s *Shape) Elements() []*Shape {
	return s.elements
}

func (s *Shape) restore(field StateField, value any) {
	if s.restoreCommon(field, value) {
		return
	}
	switch field {
	case FieldPoints:
		s.points = value.([]float64)
	case FieldRotation:
		s.rotation = value.(float64)
	case FieldOccluded:
		s.occluded = value.(bool)
	case FieldOutside:
		s.outside = value.(bool)
	case FieldZOrder:
		s.zOrder = value.(int)
	default:
		return
	}
	s.updated = time.Now()
}

// locked is the element aggregate for skeletons
func (s *Shape) locked() bool {
	if s.shapeType != ShapeSkeleton || len(s.elements) == 0 {
		return s.lock
	}
	for _, element := range s.elements {
		if !element.lock {
			return false
		}
	}
	return true
}

func (s *Shape) snapshot() ObjectState {
	state := s.baseState(ObjectShape, s.frame)
	state.ShapeType = s.shapeType
	state.Points = copyFloats(s.points)
	state.Rotation = s.rotation
	state.Occluded = s.occluded
	state.Outside = s.outside
	state.ZOrder = s.zOrder
	state.object = s
	if s.shapeType == ShapeSkeleton && len(s.elements) > 0 {
		state.Rotation = 0
		state.Points = state.Points[:0]
		state.Elements = make([]ObjectState, 0, len(s.elements))
		state.Occluded, state.Outside, state.Lock, state.Hidden = true, true, true, true
		for _, element := range s.elements {
			elementState := element.snapshot()
			inheritSkeletonFields(&elementState, s.group, s.zOrder, s.source)
			state.Points = append(state.Points, elementState.Points...)
			state.Occluded = state.Occluded && elementState.Occluded
			state.Outside = state.Outside && elementState.Outside
			state.Lock = state.Lock && elementState.Lock
			state.Hidden = state.Hidden && elementState.Hidden
			state.Elements = append(state.Elements, elementState)
		}
	}
	return state
}

func inheritSkeletonFields(state *ObjectState, group, zOrder int, source Source) {
	state.Group = group
	state.ZOrder = zOrder
	state.Source = source
	state.Rotation = 0
}

// Get implements Annotation. Shapes exist on their own frame only.
func (s *Shape) Get(frame int) (ObjectState, error) {
	if frame != s.frame {
		return ObjectState{}, newScriptingError("shape %d exists on frame %d, requested frame %d", s.clientID, s.frame, frame)
	}
	return s.snapshot(), nil
}

// Save implements Annotation
func (s *Shape) Save(frame int, state ObjectState) (ObjectState, error) {
	if frame != s.frame {
		return ObjectState{}, newScriptingError("shape %d exists on frame %d, saved on frame %d", s.clientID, s.frame, frame)
	}
	if s.shapeType == ShapeSkeleton {
		return s.saveSkeleton(frame, state)
	}
	if s.lock && state.Lock {
		return s.snapshot(), nil
	}
	edit, err := s.prepare(frame, state)
	if err != nil {
		return ObjectState{}, err
	}
	s.apply(frame, edit)
	return s.snapshot(), nil
}

// shapeEdit is a validated candidate waiting to be applied
type shapeEdit struct {
	state   ObjectState
	changed StateField
	// points are fitted candidate points, nil when dropped as degenerate
	points []float64
}

// prepare validates the candidate without touching the shape
func (s *Shape) prepare(frame int, state ObjectState) (shapeEdit, error) {
	changed := s.changedFields(state)
	if err := s.validateCommon(state, changed); err != nil {
		return shapeEdit{}, err
	}
	edit := shapeEdit{state: state, changed: changed}
	rotation := s.rotation
	if changed.Has(FieldRotation) {
		if math.IsNaN(state.Rotation) || math.IsInf(state.Rotation, 0) {
			return shapeEdit{}, newArgumentError("rotation must be a finite number, got %v", state.Rotation)
		}
		rotation = state.Rotation
	}
	if changed.Has(FieldPoints) {
		if err := CheckNumberOfPoints(s.shapeType, state.Points); err != nil {
			return shapeEdit{}, err
		}
		if err := s.checkMask(s.shapeType, frame, state.Points); err != nil {
			return shapeEdit{}, err
		}
		edit.points = s.fit(s.shapeType, frame, state.Points, rotation)
	}
	return edit, nil
}

// apply writes a prepared edit field by field, each field being its own history entry
func (s *Shape) apply(frame int, edit shapeEdit) {
	state, changed := edit.state, edit.changed
	s.saveLabelAndAttributes(state, changed, frame)
	if changed.Has(FieldRotation) {
		if rotation := normalizeAngle(state.Rotation); rotation != s.rotation {
			s.saveGeometry(ActionChangedRotation, frame, FieldRotation, s.rotation, rotation)
		}
	}
	if changed.Has(FieldPoints) && edit.points != nil && !slices.Equal(edit.points, s.points) {
		if s.shapeType == ShapeMask && s.inj.RemoveUnderlyingPixels {
			_ = s.history().Batch(ActionChangedPoints, []int{s.clientID}, frame, func() error {
				s.saveGeometry(ActionChangedPoints, frame, FieldPoints, s.points, edit.points)
				s.removeUnderlyingPixels(frame)
				return nil
			})
		} else {
			s.saveGeometry(ActionChangedPoints, frame, FieldPoints, s.points, edit.points)
		}
	}
	if changed.Has(FieldOccluded) && state.Occluded != s.occluded {
		s.saveGeometry(ActionChangedOccluded, frame, FieldOccluded, s.occluded, state.Occluded)
	}
	if changed.Has(FieldOutside) && state.Outside != s.outside {
		s.saveGeometry(ActionChangedOutside, frame, FieldOutside, s.outside, state.Outside)
	}
	if changed.Has(FieldZOrder) && state.ZOrder != s.zOrder {
		s.record(ActionChangedZOrder, frame, change{target: s, field: FieldZOrder, before: s.zOrder, after: state.ZOrder})
	}
	s.saveFlags(state, changed, frame)
}

// saveGeometry records a geometry change together with source promotion
func (s *Shape) saveGeometry(action HistoryAction, frame int, field StateField, before, after any) {
	changes := []change{{target: s, field: field, before: before, after: after}}
	if promote, ok := s.manualSourceChange(); ok {
		changes = append(changes, promote)
	}
	s.record(action, frame, changes...)
}

// Delete implements Annotation. Skeletons are removed together with their elements as one entry.
func (s *Shape) Delete(frame int, force bool) bool {
	if s.shapeType != ShapeSkeleton || len(s.elements) == 0 {
		return s.annotation.Delete(frame, force)
	}
	if s.locked() && !force {
		return s.removed
	}
	if s.removed {
		return true
	}
	_ = s.history().Batch(ActionRemovedObject, s.groupIDs(), frame, func() error {
		for _, element := range s.elements {
			element.annotation.Delete(frame, true)
		}
		s.annotation.Delete(frame, true)
		return nil
	})
	return s.removed
}

func (s *Shape) groupIDs() []int {
	ids := []int{s.clientID}
	for _, element := range s.elements {
		ids = append(ids, element.clientID)
	}
	return ids
}

// ClearServerID implements Annotation
func (s *Shape) ClearServerID() {
	s.annotation.ClearServerID()
	for _, element := range s.elements {
		element.ClearServerID()
	}
}

// elementPoints flattens points of every skeleton element
func (s *Shape) elementPoints() []float64 {
	points := make([]float64, 0, len(s.elements)*2)
	for _, element := range s.elements {
		points = append(points, element.points...)
	}
	return points
}

// Distance hit-tests the shape, see Distance
func (s *Shape) Distance(x, y float64) (float64, bool) {
	if s.shapeType == ShapeSkeleton {
		return Distance(s.shapeType, s.elementPoints(), x, y, 0)
	}
	return Distance(s.shapeType, s.points, x, y, s.rotation)
}

// ToJSON returns the persisted form
func (s *Shape) ToJSON() RawShapeData {
	raw := RawShapeData{
		ClientID:     s.clientID,
		Type:         s.shapeType,
		Frame:        s.frame,
		LabelID:      s.label.ID,
		Group:        s.group,
		Source:       s.source,
		Occluded:     s.occluded,
		Outside:      s.outside,
		ZOrder:       s.zOrder,
		Rotation:     rawRotation(s.shapeType, s.rotation),
		Descriptions: append([]string(nil), s.descriptions...),
		Attributes:   rawAttributes(s.label, s.attributes),
	}
	if s.serverID != nil {
		id := *s.serverID
		raw.ID = &id
	}
	if s.shapeType != ShapeSkeleton {
		raw.Points = copyFloats(s.points)
		return raw
	}
	raw.Elements = make([]RawShapeData, 0, len(s.elements))
	for _, element := range s.elements {
		elementRaw := element.ToJSON()
		elementRaw.Group = s.group
		elementRaw.ZOrder = s.zOrder
		elementRaw.Source = s.source
		raw.Elements = append(raw.Elements, elementRaw)
	}
	return raw
}

// UpdateServerID takes persisted ids from a server response. Elements are matched by label.
func (s *Shape) UpdateServerID(raw RawShapeData) {
	s.setServerID(raw.ID)
	for _, elementRaw := range raw.Elements {
		for _, element := range s.elements {
			if element.label.ID == elementRaw.LabelID {
				element.setServerID(elementRaw.ID)
			}
		}
	}
}
