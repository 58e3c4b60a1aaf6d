package annot

import "time"

// StateField is a bit set of ObjectState fields
type StateField uint32

const (
	FieldLabel StateField = 1 << iota
	FieldAttributes
	FieldDescriptions
	FieldPoints
	FieldRotation
	FieldOutside
	FieldOccluded
	FieldZOrder
	FieldKeyframe
	FieldLock
	FieldPinned
	FieldColor
	FieldHidden
	FieldGroup
	FieldSource

	// internal fields recorded in history only
	fieldKeyframes
	fieldRemoved
	fieldElements
)

// Has reports whether every bit of field is set
func (f StateField) Has(field StateField) bool {
	return f&field == field
}

// KeyframeBounds are keyframe frame numbers around a track frame.
// Prev and Next are nil when no such keyframe exists.
type KeyframeBounds struct {
	Prev  *int
	Next  *int
	First int
	Last  int
}

// ObjectState is a materialized snapshot of an object on one frame.
// Callers edit it through the Set* methods which mark the changed fields, then Save it.
type ObjectState struct {
	ObjectType   ObjectType
	ShapeType    ShapeType
	ClientID     int
	ServerID     *int
	ParentID     *int
	Label        *Label
	Group        int
	Frame        int
	Attributes   map[int]string
	Descriptions []string
	Points       []float64
	Rotation     float64
	Occluded     bool
	Outside      bool
	ZOrder       int
	Keyframe     bool
	Keyframes    *KeyframeBounds
	Lock         bool
	Pinned       bool
	Hidden       bool
	Color        string
	Source       Source
	UpdatedAt    time.Time
	Elements     []ObjectState
	Changed      StateField

	object Annotation
}

// Clone returns a deep copy sharing no slices or maps with s
func (s ObjectState) Clone() ObjectState {
	out := s
	out.Attributes = copyAttributes(s.Attributes)
	out.Descriptions = append([]string(nil), s.Descriptions...)
	out.Points = copyFloats(s.Points)
	if s.ServerID != nil {
		id := *s.ServerID
		out.ServerID = &id
	}
	if s.ParentID != nil {
		id := *s.ParentID
		out.ParentID = &id
	}
	if s.Keyframes != nil {
		bounds := *s.Keyframes
		out.Keyframes = &bounds
	}
	if s.Elements != nil {
		out.Elements = make([]ObjectState, len(s.Elements))
		for i, element := range s.Elements {
			out.Elements[i] = element.Clone()
		}
	}
	return out
}

// Save applies the state to the object it was taken from
func (s ObjectState) Save() (ObjectState, error) {
	if s.object == nil {
		return ObjectState{}, newScriptingError("object state of client id %d is not bound to an object", s.ClientID)
	}
	return s.object.Save(s.Frame, s)
}

// Delete removes the object the state was taken from
func (s ObjectState) Delete(force bool) (bool, error) {
	if s.object == nil {
		return false, newScriptingError("object state of client id %d is not bound to an object", s.ClientID)
	}
	return s.object.Delete(s.Frame, force), nil
}

// Object returns the object the state was taken from
func (s ObjectState) Object() Annotation {
	return s.object
}

// SetLabel changes the label
func (s *ObjectState) SetLabel(label *Label) {
	s.Label = label
	s.Changed |= FieldLabel
}

// SetAttribute changes one attribute value
func (s *ObjectState) SetAttribute(id int, value string) {
	if s.Attributes == nil {
		s.Attributes = make(map[int]string)
	}
	s.Attributes[id] = value
	s.Changed |= FieldAttributes
}

// SetAttributes merges values into the attributes
func (s *ObjectState) SetAttributes(values map[int]string) {
	for id, value := range values {
		s.SetAttribute(id, value)
	}
	s.Changed |= FieldAttributes
}

// SetDescriptions replaces descriptions
func (s *ObjectState) SetDescriptions(descriptions []string) {
	s.Descriptions = append([]string(nil), descriptions...)
	s.Changed |= FieldDescriptions
}

// SetPoints replaces points
func (s *ObjectState) SetPoints(points []float64) {
	s.Points = copyFloats(points)
	s.Changed |= FieldPoints
}

// SetRotation changes rotation in degrees
func (s *ObjectState) SetRotation(rotation float64) {
	s.Rotation = rotation
	s.Changed |= FieldRotation
}

// SetOccluded changes occluded flag. For skeletons it is applied to every element.
func (s *ObjectState) SetOccluded(occluded bool) {
	s.Occluded = occluded
	s.Changed |= FieldOccluded
	for i := range s.Elements {
		s.Elements[i].SetOccluded(occluded)
	}
}

// SetOutside changes outside flag. For skeletons it is applied to every element.
func (s *ObjectState) SetOutside(outside bool) {
	s.Outside = outside
	s.Changed |= FieldOutside
	for i := range s.Elements {
		s.Elements[i].SetOutside(outside)
	}
}

// SetZOrder changes z-order
func (s *ObjectState) SetZOrder(zOrder int) {
	s.ZOrder = zOrder
	s.Changed |= FieldZOrder
}

// SetKeyframe makes the frame a keyframe or removes it. For skeletons it is applied to every element.
func (s *ObjectState) SetKeyframe(keyframe bool) {
	s.Keyframe = keyframe
	s.Changed |= FieldKeyframe
	for i := range s.Elements {
		s.Elements[i].SetKeyframe(keyframe)
	}
}

// SetLock changes lock. For skeletons it is applied to every element.
func (s *ObjectState) SetLock(lock bool) {
	s.Lock = lock
	s.Changed |= FieldLock
	for i := range s.Elements {
		s.Elements[i].SetLock(lock)
	}
}

// SetPinned changes pinned flag
func (s *ObjectState) SetPinned(pinned bool) {
	s.Pinned = pinned
	s.Changed |= FieldPinned
}

// SetHidden changes hidden flag. For skeletons it is applied to every element.
func (s *ObjectState) SetHidden(hidden bool) {
	s.Hidden = hidden
	s.Changed |= FieldHidden
	for i := range s.Elements {
		s.Elements[i].SetHidden(hidden)
	}
}

// SetColor changes color, #rrggbb
func (s *ObjectState) SetColor(color string) {
	s.Color = color
	s.Changed |= FieldColor
}

// SetGroup changes group id, 0 ungroups
func (s *ObjectState) SetGroup(group int) {
	s.Group = group
	s.Changed |= FieldGroup
}

// SetSource changes source
func (s *ObjectState) SetSource(source Source) {
	s.Source = source
	s.Changed |= FieldSource
}
