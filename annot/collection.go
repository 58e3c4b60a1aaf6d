package annot

import (
	"context"
	"maps"
	"slices"

	"github.com/pkg/errors"
)

// ServerProxy persists annotations of a job
type ServerProxy interface {
	GetAnnotations(ctx context.Context, jobID string) (RawAnnotations, error)
	// SaveAnnotations replaces stored annotations with data and returns them with server ids assigned
	SaveAnnotations(ctx context.Context, jobID string, data RawAnnotations) (RawAnnotations, error)
}

// DefaultIoUThreshold is the overlap above which propagation skips a frame
const DefaultIoUThreshold = 0.95

// Collection owns the objects of one job
type Collection struct {
	inj          *Injection
	ids          ClientIDAllocator
	objects      map[int]Annotation
	version      int
	iouThreshold float64
}

// CollectionOption configures a Collection
type CollectionOption func(*Collection)

// WithIoUThreshold sets the propagation overlap threshold
func WithIoUThreshold(threshold float64) CollectionOption {
	return func(c *Collection) {
		c.iouThreshold = threshold
	}
}

// NewCollection creates an empty collection. The collection becomes the client id allocator and
// the mask source of inj.
func NewCollection(labels LabelLookup, inj *Injection, options ...CollectionOption) *Collection {
	if inj == nil {
		inj = NewInjection(labels, nil)
	}
	if labels != nil {
		inj.Labels = labels
	}
	if inj.History == nil {
		inj.History = NewHistory(inj.Logger)
	}
	ids := inj.IDs
	if ids == nil {
		ids = &Counter{}
	}
	c := &Collection{
		inj:          inj,
		ids:          ids,
		objects:      make(map[int]Annotation),
		iouThreshold: DefaultIoUThreshold,
	}
	for _, option := range options {
		option(c)
	}
	inj.IDs = c
	inj.Masks = c
	return c
}

// NextClientID implements ClientIDAllocator
func (c *Collection) NextClientID() int {
	return c.ids.NextClientID()
}

// MasksOnFrame implements MaskSource
func (c *Collection) MasksOnFrame(frame int) []*Shape {
	masks := make([]*Shape, 0)
	for _, object := range c.ordered() {
		if shape, ok := object.(*Shape); ok && !shape.removed && shape.shapeType == ShapeMask && shape.frame == frame {
			masks = append(masks, shape)
		}
	}
	return masks
}

// Version is the server version of the payload last loaded or saved
func (c *Collection) Version() int {
	return c.version
}

func (c *Collection) ordered() []Annotation {
	out := make([]Annotation, 0, len(c.objects))
	for _, id := range slices.Sorted(maps.Keys(c.objects)) {
		out = append(out, c.objects[id])
	}
	return out
}

// Import adds objects of a payload. Nothing is added when any object fails. Imports are not recorded in history.
func (c *Collection) Import(raw RawAnnotations) error {
	created := make([]Annotation, 0, len(raw.Tags)+len(raw.Shapes)+len(raw.Tracks))
	for i, data := range raw.Tags {
		tag, err := TagFromRaw(data, c.NextClientID(), c.inj)
		if err != nil {
			return errors.Wrapf(err, "tag #%d", i)
		}
		created = append(created, tag)
	}
	for i, data := range raw.Shapes {
		shape, err := ShapeFromRaw(data, c.NextClientID(), c.inj)
		if err != nil {
			return errors.Wrapf(err, "shape #%d", i)
		}
		created = append(created, shape)
	}
	for i, data := range raw.Tracks {
		track, err := TrackFromRaw(data, c.NextClientID(), c.inj)
		if err != nil {
			return errors.Wrapf(err, "track #%d", i)
		}
		created = append(created, track)
	}
	for _, object := range created {
		c.objects[object.ClientID()] = object
	}
	c.version = raw.Version
	c.inj.Logger.Info().Int("tags", len(raw.Tags)).Int("shapes", len(raw.Shapes)).Int("tracks", len(raw.Tracks)).Msg("annotations imported")
	return nil
}

// Export serializes every object that is not removed
func (c *Collection) Export() RawAnnotations {
	raw := RawAnnotations{
		Version: c.version,
		Tags:    make([]RawTagData, 0),
		Shapes:  make([]RawShapeData, 0),
		Tracks:  make([]RawTrackData, 0),
	}
	for _, object := range c.ordered() {
		if object.Removed() {
			continue
		}
		switch typed := object.(type) {
		case *Tag:
			raw.Tags = append(raw.Tags, typed.ToJSON())
		case *Shape:
			raw.Shapes = append(raw.Shapes, typed.ToJSON())
		case *Track:
			raw.Tracks = append(raw.Tracks, typed.ToJSON())
		}
	}
	return raw
}

// Object returns an object by client id
func (c *Collection) Object(clientID int) (Annotation, bool) {
	object, ok := c.objects[clientID]
	return object, ok
}

// Get returns snapshots of objects visible on frame: its shapes and tags and tracks started at or before it
func (c *Collection) Get(frame int) ([]ObjectState, error) {
	states := make([]ObjectState, 0)
	for _, object := range c.ordered() {
		if object.Removed() {
			continue
		}
		switch typed := object.(type) {
		case *Track:
			if typed.frame > frame {
				continue
			}
		case *Shape:
			if typed.frame != frame {
				continue
			}
		case *Tag:
			if typed.frame != frame {
				continue
			}
		}
		state, err := object.Get(frame)
		if err != nil {
			return nil, errors.Wrapf(err, "object %d", object.ClientID())
		}
		states = append(states, state)
	}
	return states, nil
}

// Select returns the object whose boundary is nearest to (x, y) among objects hit on frame.
// Hidden and outside objects are never selected.
func (c *Collection) Select(frame int, x, y float64) (ObjectState, bool) {
	candidates := make(hitHeap, 0)
	for _, object := range c.ordered() {
		if object.Removed() {
			continue
		}
		var (
			distance float64
			ok       bool
		)
		switch typed := object.(type) {
		case *Shape:
			if typed.frame != frame {
				continue
			}
			distance, ok = typed.Distance(x, y)
		case *Track:
			if typed.frame > frame {
				continue
			}
			distance, ok = typed.Distance(frame, x, y)
		default:
			continue
		}
		if !ok {
			continue
		}
		state, err := object.Get(frame)
		if err != nil || state.Hidden || state.Outside {
			continue
		}
		candidates.Push(&hit{state: state, distance: distance})
	}
	if candidates.Len() == 0 {
		return ObjectState{}, false
	}
	return candidates.Pop().state, true
}

// creationChanges turns freshly built objects, elements included, visible through history
func creationChanges(objects []Annotation) ([]change, []int) {
	changes := make([]change, 0, len(objects))
	ids := make([]int, 0, len(objects))
	mark := func(object restorer, clientID int) {
		object.restore(fieldRemoved, true)
		changes = append(changes, change{target: object, field: fieldRemoved, before: true, after: false})
		ids = append(ids, clientID)
	}
	for _, object := range objects {
		mark(object, object.ClientID())
		switch typed := object.(type) {
		case *Shape:
			for _, element := range typed.elements {
				mark(element, element.clientID)
			}
		case *Track:
			for _, element := range typed.elements {
				mark(element, element.clientID)
			}
		}
	}
	return changes, ids
}

// register stores new objects and records their creation as one history entry
func (c *Collection) register(action HistoryAction, frame int, objects []Annotation) []int {
	changes, ids := creationChanges(objects)
	for _, object := range objects {
		c.objects[object.ClientID()] = object
	}
	c.inj.History.do(action, ids, frame, changes...)
	for _, ch := range changes {
		ch.target.restore(ch.field, ch.after)
	}
	created := make([]int, 0, len(objects))
	for _, object := range objects {
		created = append(created, object.ClientID())
	}
	return created
}

// Add creates objects from snapshots and returns their client ids. Nothing is created when
// any snapshot is invalid. Undo of the creation soft-removes the objects.
func (c *Collection) Add(states ...ObjectState) ([]int, error) {
	objects := make([]Annotation, 0, len(states))
	frame := 0
	for i, state := range states {
		object, err := c.fromState(state)
		if err != nil {
			return nil, errors.Wrapf(err, "object #%d", i)
		}
		objects = append(objects, object)
		frame = state.Frame
	}
	if len(objects) == 0 {
		return nil, nil
	}
	return c.register(ActionCreatedObjects, frame, objects), nil
}

func validateStateAttributes(label *Label, attributes map[int]string) error {
	for id, value := range attributes {
		spec, ok := label.Attribute(id)
		if !ok {
			return newArgumentError("attribute %d does not belong to label %q", id, label.Name)
		}
		if !ValidateAttributeValue(value, spec) {
			return newArgumentError("value %q is invalid for attribute %q", value, spec.Name)
		}
	}
	return nil
}

func rawAttributesOf(attributes map[int]string) []RawAttribute {
	out := make([]RawAttribute, 0, len(attributes))
	for _, id := range slices.Sorted(maps.Keys(attributes)) {
		out = append(out, RawAttribute{SpecID: id, Value: attributes[id]})
	}
	return out
}

// stateToRawShape converts a snapshot to a shape payload, elements included
func stateToRawShape(state ObjectState) RawShapeData {
	raw := RawShapeData{
		Type:         state.ShapeType,
		Frame:        state.Frame,
		Group:        state.Group,
		Source:       state.Source,
		Occluded:     state.Occluded,
		Outside:      state.Outside,
		ZOrder:       state.ZOrder,
		Rotation:     rawRotation(state.ShapeType, state.Rotation),
		Descriptions: append([]string(nil), state.Descriptions...),
		Attributes:   rawAttributesOf(state.Attributes),
	}
	if state.Label != nil {
		raw.LabelID = state.Label.ID
	}
	if state.ShapeType != ShapeSkeleton {
		raw.Points = copyFloats(state.Points)
	}
	for _, element := range state.Elements {
		elementRaw := stateToRawShape(element)
		elementRaw.Frame = state.Frame
		raw.Elements = append(raw.Elements, elementRaw)
	}
	return raw
}

func (c *Collection) fromState(state ObjectState) (Annotation, error) {
	if state.Label == nil {
		return nil, newArgumentError("new object requires a label")
	}
	label, ok := c.inj.Labels.Label(state.Label.ID)
	if !ok {
		return nil, newArgumentError("label %d is unknown", state.Label.ID)
	}
	if err := validateStateAttributes(label, state.Attributes); err != nil {
		return nil, err
	}
	if state.Source == "" {
		state.Source = SourceManual
	}
	switch state.ObjectType {
	case ObjectTag:
		return TagFromRaw(RawTagData{
			Frame:      state.Frame,
			LabelID:    label.ID,
			Group:      state.Group,
			Source:     state.Source,
			Attributes: rawAttributesOf(state.Attributes),
		}, c.NextClientID(), c.inj)
	case ObjectShape, ObjectTrack:
	default:
		return nil, newArgumentError("object type %q is unknown", state.ObjectType)
	}
	if !state.ShapeType.Valid() {
		return nil, newArgumentError("shape type %q is unknown", state.ShapeType)
	}
	rawShape := stateToRawShape(state)
	if state.ShapeType != ShapeSkeleton {
		width, height, known := c.inj.frameSize(state.Frame)
		if err := CheckNumberOfPoints(state.ShapeType, state.Points); err != nil {
			return nil, err
		}
		if known && state.ShapeType == ShapeMask {
			if err := checkMaskFrame(state.Points, width, height); err != nil {
				return nil, err
			}
		}
		fitted := copyFloats(state.Points)
		if known {
			fitted = fitPoints(state.ShapeType, state.Points, state.Rotation, width, height)
		}
		if !CheckShapeArea(state.ShapeType, fitted) {
			return nil, newArgumentError("%s is too small to be created", state.ShapeType)
		}
		rawShape.Points = fitted
	}
	if state.ObjectType == ObjectShape {
		return ShapeFromRaw(rawShape, c.NextClientID(), c.inj)
	}
	return TrackFromRaw(c.trackFromRawShape(rawShape), c.NextClientID(), c.inj)
}

// trackFromRawShape makes a single-keyframe track payload of a shape payload. Unmutable values
// stay on the track, mutable ones go to the keyframe.
func (c *Collection) trackFromRawShape(shape RawShapeData) RawTrackData {
	label, ok := c.inj.Labels.Label(shape.LabelID)
	values := make(map[int]string, len(shape.Attributes))
	for _, attr := range shape.Attributes {
		values[attr.SpecID] = attr.Value
	}
	var unmutable, mutable []RawAttribute
	if ok {
		unmutable = rawAttributesOf(splitAttributes(label, values, false))
		mutable = rawAttributesOf(splitAttributes(label, values, true))
	}
	track := RawTrackData{
		Frame:      shape.Frame,
		LabelID:    shape.LabelID,
		Group:      shape.Group,
		Source:     shape.Source,
		Attributes: unmutable,
		Shapes: []RawTrackedShape{{
			Type:       shape.Type,
			Frame:      shape.Frame,
			Occluded:   shape.Occluded,
			Outside:    shape.Outside,
			ZOrder:     shape.ZOrder,
			Rotation:   shape.Rotation,
			Points:     shape.Points,
			Attributes: mutable,
		}},
	}
	for _, element := range shape.Elements {
		track.Elements = append(track.Elements, c.trackFromRawShape(element))
	}
	return track
}

// Propagate copies the object on frame to the next count frames as new shapes. Deleted frames are
// skipped, as are frames where a rectangle of the same label already overlaps the copy by the IoU threshold.
func (c *Collection) Propagate(clientID, frame, count int) ([]int, error) {
	object, ok := c.objects[clientID]
	if !ok || object.Removed() {
		return nil, newArgumentError("object %d does not exist", clientID)
	}
	if object.ObjectType() == ObjectTag {
		return nil, newArgumentError("tag %d can not be propagated", clientID)
	}
	if count <= 0 {
		return nil, newArgumentError("propagation count must be positive, got %d", count)
	}
	source, err := object.Get(frame)
	if err != nil {
		return nil, err
	}
	copies := make([]Annotation, 0, count)
	for target := frame + 1; target <= frame+count; target++ {
		if c.inj.isDeleted(target) || c.overlapped(source, target) {
			continue
		}
		raw := stateToRawShape(source)
		raw.Frame = target
		for i := range raw.Elements {
			raw.Elements[i].Frame = target
		}
		shape, err := ShapeFromRaw(raw, c.NextClientID(), c.inj)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", target)
		}
		copies = append(copies, shape)
	}
	if len(copies) == 0 {
		return nil, nil
	}
	return c.register(ActionPropagatedObject, frame, copies), nil
}

func (c *Collection) overlapped(source ObjectState, frame int) bool {
	if source.ShapeType != ShapeRectangle {
		return false
	}
	box := NewRectFromPoints(source.Points)
	states, err := c.Get(frame)
	if err != nil {
		return false
	}
	for _, state := range states {
		if state.ShapeType != ShapeRectangle || state.Outside || state.Label.ID != source.Label.ID {
			continue
		}
		if IoU(box, NewRectFromPoints(state.Points)) >= c.iouThreshold {
			return true
		}
	}
	return false
}

// Interpolate lists per-frame shapes on frames start..stop: shapes as they are and tracks expanded
// on every frame they are inside the image. Deleted frames are skipped.
func (c *Collection) Interpolate(start, stop int) ([]RawShapeData, error) {
	out := make([]RawShapeData, 0)
	for frame := start; frame <= stop; frame++ {
		if c.inj.isDeleted(frame) {
			continue
		}
		states, err := c.Get(frame)
		if err != nil {
			return nil, err
		}
		for _, state := range states {
			if state.ObjectType == ObjectTag || state.Outside {
				continue
			}
			raw := stateToRawShape(state)
			if id, ok := state.Object().ServerID(); ok && state.ObjectType == ObjectShape {
				raw.ID = &id
			}
			raw.ClientID = state.ClientID
			out = append(out, raw)
		}
	}
	return out, nil
}

// Save sends the payload to the proxy and takes server ids from the response. Local state
// and history are kept as they are when the proxy fails.
func (c *Collection) Save(ctx context.Context, proxy ServerProxy, jobID string) error {
	payload := c.Export()
	saved, err := proxy.SaveAnnotations(ctx, jobID, payload)
	if err != nil {
		c.inj.Logger.Error().Err(err).Str("job", jobID).Msg("annotations were not saved")
		return errors.Wrapf(err, "save annotations of job %s", jobID)
	}
	for _, data := range saved.Tags {
		if tag, ok := c.objects[data.ClientID].(*Tag); ok {
			tag.UpdateServerID(data)
		}
	}
	for _, data := range saved.Shapes {
		if shape, ok := c.objects[data.ClientID].(*Shape); ok {
			shape.UpdateServerID(data)
		}
	}
	for _, data := range saved.Tracks {
		if track, ok := c.objects[data.ClientID].(*Track); ok {
			track.UpdateServerID(data)
		}
	}
	c.version = saved.Version
	c.inj.Logger.Info().Str("job", jobID).Int("version", c.version).Msg("annotations saved")
	return nil
}

// Load replaces every object and the history with annotations fetched from the proxy
func (c *Collection) Load(ctx context.Context, proxy ServerProxy, jobID string) error {
	raw, err := proxy.GetAnnotations(ctx, jobID)
	if err != nil {
		c.inj.Logger.Error().Err(err).Str("job", jobID).Msg("annotations were not loaded")
		return errors.Wrapf(err, "load annotations of job %s", jobID)
	}
	previous := c.objects
	c.objects = make(map[int]Annotation)
	if err := c.Import(raw); err != nil {
		c.objects = previous
		return errors.Wrapf(err, "import annotations of job %s", jobID)
	}
	c.inj.History.Clear()
	return nil
}

// Undo reverts up to count latest history entries
func (c *Collection) Undo(count int) []HistoryEntry {
	return c.inj.History.Undo(count)
}

// Redo re-applies up to count undone history entries
func (c *Collection) Redo(count int) []HistoryEntry {
	return c.inj.History.Redo(count)
}

// History lists recorded entries
func (c *Collection) History() HistoryState {
	return c.inj.History.Get()
}

// Ledger exposes the history for grouping edits with Freeze or Batch
func (c *Collection) Ledger() *History {
	return c.inj.History
}
