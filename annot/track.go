package annot

import (
	"maps"
	"math"
	"slices"
	"time"
)

// keyframe is the stored state of a track on one frame. Attributes hold mutable overrides only.
type keyframe struct {
	serverID   *int
	points     []float64
	rotation   float64
	occluded   bool
	outside    bool
	zOrder     int
	attributes map[int]string
}

func (k keyframe) clone() keyframe {
	out := k
	out.points = copyFloats(k.points)
	out.attributes = copyAttributes(k.attributes)
	return out
}

// position drops identity and attributes, leaving geometry and flags
func (k keyframe) position() keyframe {
	return keyframe{
		points:   copyFloats(k.points),
		rotation: k.rotation,
		occluded: k.occluded,
		outside:  k.outside,
		zOrder:   k.zOrder,
	}
}

// Track is one object spanning many frames. Frames between keyframes are interpolated.
type Track struct {
	annotation
	shapeType ShapeType
	// shapes is replaced, never mutated, when keyframes change
	shapes   map[int]keyframe
	elements []*Track
}

func newTrack(data RawTrackData, shapeType ShapeType, clientID int, label *Label, inj *Injection) *Track {
	track := &Track{
		annotation: newAnnotation(clientID, data.ID, label, data.Frame, data.Group, data.Source, inj),
		shapeType:  shapeType,
		shapes:     make(map[int]keyframe, len(data.Shapes)),
	}
	for id, value := range attributesFromRaw(data.Attributes) {
		track.attributes[id] = value
	}
	for _, shape := range data.Shapes {
		k := keyframe{
			points:     copyFloats(shape.Points),
			occluded:   shape.Occluded,
			outside:    shape.Outside,
			zOrder:     shape.ZOrder,
			attributes: attributesFromRaw(shape.Attributes),
		}
		if shape.ID != nil {
			id := *shape.ID
			k.serverID = &id
		}
		if shape.Rotation != nil {
			k.rotation = normalizeAngle(*shape.Rotation)
		}
		track.shapes[shape.Frame] = k
	}
	if frames := track.frames(); len(frames) > 0 {
		track.frame = frames[0]
		first := track.shapes[frames[0]]
		for _, spec := range label.Attributes {
			if _, ok := first.attributes[spec.ID]; spec.Mutable && !ok {
				first.attributes[spec.ID] = track.attributes[spec.ID]
			}
		}
	}
	track.self = track
	return track
}

// ObjectType implements Annotation
func (t *Track) ObjectType() ObjectType {
	return ObjectTrack
}

// ShapeType returns geometry variant
func (t *Track) ShapeType() ShapeType {
	return t.shapeType
}

// Elements returns skeleton elements
func (t *Track) Elements() []*Track {
	return t.elements
}

// Keyframes returns sorted keyframe numbers
func (t *Track) Keyframes() []int {
	return t.frames()
}

func (t *Track) frames() []int {
	return slices.Sorted(maps.Keys(t.shapes))
}

func (t *Track) restore(field StateField, value any) {
	if t.restoreCommon(field, value) {
		return
	}
	if field == fieldKeyframes {
		t.shapes = value.(map[int]keyframe)
		if frames := t.frames(); len(frames) > 0 {
			t.frame = frames[0]
		}
		t.updated = time.Now()
	}
}

// boundedKeyframes finds the nearest keyframes at or before and at or after target, skipping
// deleted frames. An exact match is both bounds.
func (t *Track) boundedKeyframes(target int) KeyframeBounds {
	bounds := KeyframeBounds{First: math.MaxInt, Last: math.MinInt}
	for frame := range t.shapes {
		if t.inj.isDeleted(frame) {
			continue
		}
		bounds.First = min(bounds.First, frame)
		bounds.Last = max(bounds.Last, frame)
		if frame <= target && (bounds.Prev == nil || frame > *bounds.Prev) {
			prev := frame
			bounds.Prev = &prev
		}
		if frame >= target && (bounds.Next == nil || frame < *bounds.Next) {
			next := frame
			bounds.Next = &next
		}
	}
	if bounds.Prev == nil && bounds.Next == nil {
		bounds.First, bounds.Last = 0, 0
	}
	return bounds
}

// getPosition resolves geometry on target from its bounding keyframes. Frames before the
// first keyframe are outside, frames after the last one repeat it.
func (t *Track) getPosition(target int, prev, next *int) (keyframe, error) {
	switch {
	case prev != nil && next != nil && *prev != *next:
		offset := float64(target-*prev) / float64(*next-*prev)
		return interpolatePosition(t.shapeType, t.shapes[*prev], t.shapes[*next], offset), nil
	case prev != nil:
		return t.shapes[*prev].position(), nil
	case next != nil:
		position := t.shapes[*next].position()
		position.outside = true
		return position, nil
	}
	return keyframe{}, newDataError("track %d has no keyframes to resolve frame %d", t.clientID, target)
}

func (t *Track) position(frame int) (keyframe, KeyframeBounds, error) {
	bounds := t.boundedKeyframes(frame)
	position, err := t.getPosition(frame, bounds.Prev, bounds.Next)
	return position, bounds, err
}

// getAttributes overlays mutable overrides of keyframes up to frame on track attributes
func (t *Track) getAttributes(frame int) map[int]string {
	result := copyAttributes(t.attributes)
	for _, keyframeNumber := range t.frames() {
		if keyframeNumber > frame {
			break
		}
		for id, value := range t.shapes[keyframeNumber].attributes {
			if spec, ok := t.label.Attribute(id); ok && spec.Mutable {
				result[id] = value
			}
		}
	}
	return result
}

// Get implements Annotation
func (t *Track) Get(frame int) (ObjectState, error) {
	if t.shapeType == ShapeSkeleton {
		return t.getSkeleton(frame)
	}
	position, bounds, err := t.position(frame)
	if err != nil {
		return ObjectState{}, err
	}
	state := t.baseState(ObjectTrack, frame)
	state.ShapeType = t.shapeType
	state.Attributes = t.getAttributes(frame)
	state.Points = position.points
	state.Rotation = position.rotation
	state.Occluded = position.occluded
	state.Outside = position.outside
	state.ZOrder = position.zOrder
	_, state.Keyframe = t.shapes[frame]
	state.Keyframes = &bounds
	state.object = t
	return state, nil
}

// Save implements Annotation
func (t *Track) Save(frame int, state ObjectState) (ObjectState, error) {
	if t.shapeType == ShapeSkeleton {
		return t.saveSkeleton(frame, state)
	}
	current, err := t.Get(frame)
	if err != nil {
		return ObjectState{}, err
	}
	if current.Lock && state.Lock {
		return current, nil
	}
	edit, err := t.prepare(frame, state)
	if err != nil {
		return ObjectState{}, err
	}
	if err := t.apply(frame, edit); err != nil {
		return ObjectState{}, err
	}
	return t.Get(frame)
}

// trackEdit is a validated candidate waiting to be applied
type trackEdit struct {
	state   ObjectState
	changed StateField
	points  []float64
}

// prepare validates the candidate without touching the track
func (t *Track) prepare(frame int, state ObjectState) (trackEdit, error) {
	changed := t.changedFields(state)
	if err := t.validateCommon(state, changed); err != nil {
		return trackEdit{}, err
	}
	edit := trackEdit{state: state, changed: changed}
	position, _, err := t.position(frame)
	if err != nil {
		return trackEdit{}, err
	}
	rotation := position.rotation
	if changed.Has(FieldRotation) {
		if math.IsNaN(state.Rotation) || math.IsInf(state.Rotation, 0) {
			return trackEdit{}, newArgumentError("rotation must be a finite number, got %v", state.Rotation)
		}
		rotation = state.Rotation
	}
	if changed.Has(FieldPoints) && t.shapeType != ShapeSkeleton {
		if err := CheckNumberOfPoints(t.shapeType, state.Points); err != nil {
			return trackEdit{}, err
		}
		if err := t.checkMask(t.shapeType, frame, state.Points); err != nil {
			return trackEdit{}, err
		}
		edit.points = t.fit(t.shapeType, frame, state.Points, rotation)
	}
	if changed.Has(FieldKeyframe) && !state.Keyframe {
		if _, ok := t.shapes[frame]; ok && len(t.shapes) == 1 {
			return trackEdit{}, newArgumentError("track %d can not lose its only keyframe %d, remove the object instead", t.clientID, frame)
		}
	}
	return edit, nil
}

// apply writes a prepared edit field by field
func (t *Track) apply(frame int, edit trackEdit) error {
	state, changed := edit.state, edit.changed
	current, err := t.Get(frame)
	if err != nil {
		return err
	}
	if changed.Has(FieldLabel) && state.Label.ID != t.label.ID {
		t.saveLabel(state.Label, frame)
	}
	if changed.Has(FieldAttributes) {
		if diff := changedAttributes(t.getAttributes(frame), state.Attributes); len(diff) > 0 {
			if err := t.saveAttributes(diff, frame); err != nil {
				return err
			}
		}
	}
	var updates []func() error
	if changed.Has(FieldRotation) {
		if rotation := normalizeAngle(state.Rotation); rotation != current.Rotation {
			updates = append(updates, func() error {
				return t.updateKeyframe(ActionChangedRotation, frame, true, func(k *keyframe) { k.rotation = rotation })
			})
		}
	}
	if edit.points != nil && !slices.Equal(edit.points, current.Points) {
		updates = append(updates, func() error {
			return t.updateKeyframe(ActionChangedPoints, frame, true, func(k *keyframe) { k.points = copyFloats(edit.points) })
		})
	}
	if changed.Has(FieldOccluded) && state.Occluded != current.Occluded {
		updates = append(updates, func() error {
			return t.updateKeyframe(ActionChangedOccluded, frame, true, func(k *keyframe) { k.occluded = state.Occluded })
		})
	}
	if changed.Has(FieldOutside) && state.Outside != current.Outside {
		updates = append(updates, func() error {
			return t.updateKeyframe(ActionChangedOutside, frame, true, func(k *keyframe) { k.outside = state.Outside })
		})
	}
	if changed.Has(FieldZOrder) && state.ZOrder != current.ZOrder {
		updates = append(updates, func() error {
			return t.updateKeyframe(ActionChangedZOrder, frame, false, func(k *keyframe) { k.zOrder = state.ZOrder })
		})
	}
	if changed.Has(FieldKeyframe) {
		updates = append(updates, func() error {
			return t.SaveKeyframe(frame, state.Keyframe)
		})
	}
	for _, update := range updates {
		if err := update(); err != nil {
			return err
		}
	}
	t.saveFlags(state, changed, frame)
	return nil
}

// keyframeAt returns a private copy of the keyframe on frame, built from the interpolated position when missing
func (t *Track) keyframeAt(frame int) (keyframe, error) {
	if k, ok := t.shapes[frame]; ok {
		return k.clone(), nil
	}
	position, _, err := t.position(frame)
	if err != nil {
		return keyframe{}, err
	}
	position.attributes = make(map[int]string)
	return position, nil
}

func (t *Track) keyframesChange(next map[int]keyframe) change {
	return change{target: t, field: fieldKeyframes, before: t.shapes, after: next}
}

// updateKeyframe edits the keyframe on frame, creating it when the frame is interpolated
func (t *Track) updateKeyframe(action HistoryAction, frame int, promote bool, update func(k *keyframe)) error {
	k, err := t.keyframeAt(frame)
	if err != nil {
		return err
	}
	update(&k)
	next := maps.Clone(t.shapes)
	next[frame] = k
	changes := []change{t.keyframesChange(next)}
	if promote {
		if source, ok := t.manualSourceChange(); ok {
			changes = append(changes, source)
		}
	}
	t.record(action, frame, changes...)
	return nil
}

// saveAttributes writes unmutable values on the track and mutable ones on the keyframe of frame
func (t *Track) saveAttributes(attributes map[int]string, frame int) error {
	unmutable := make(map[int]string)
	mutable := make(map[int]string)
	for id, value := range attributes {
		spec, ok := t.label.Attribute(id)
		if !ok {
			continue
		}
		if spec.Mutable {
			mutable[id] = value
		} else {
			unmutable[id] = value
		}
	}
	var changes []change
	if len(unmutable) > 0 {
		next := copyAttributes(t.attributes)
		maps.Copy(next, unmutable)
		changes = append(changes, change{target: t, field: FieldAttributes, before: t.attributes, after: next})
	}
	if len(mutable) > 0 {
		k, err := t.keyframeAt(frame)
		if err != nil {
			return err
		}
		maps.Copy(k.attributes, mutable)
		next := maps.Clone(t.shapes)
		next[frame] = k
		changes = append(changes, t.keyframesChange(next))
	}
	t.record(ActionChangedAttributes, frame, changes...)
	return nil
}

// saveLabel remaps track attributes and every keyframe override to the new label
func (t *Track) saveLabel(label *Label, frame int) {
	next := make(map[int]keyframe, len(t.shapes))
	for keyframeNumber, k := range t.shapes {
		k = k.clone()
		k.attributes = remapValues(k.attributes, t.label, label)
		next[keyframeNumber] = k
	}
	t.record(ActionChangedLabel, frame, t.labelChange(label), t.keyframesChange(next))
}

// SaveKeyframe makes frame a keyframe holding the current position, or turns it back into an
// interpolated frame. The only keyframe of a track can not be removed.
func (t *Track) SaveKeyframe(frame int, isKeyframe bool) error {
	_, exists := t.shapes[frame]
	if exists == isKeyframe {
		return nil
	}
	next := maps.Clone(t.shapes)
	if isKeyframe {
		k, err := t.keyframeAt(frame)
		if err != nil {
			return err
		}
		next[frame] = k
	} else {
		if len(t.shapes) == 1 {
			return newArgumentError("track %d can not lose its only keyframe %d, remove the object instead", t.clientID, frame)
		}
		delete(next, frame)
	}
	t.record(ActionChangedKeyframe, frame, t.keyframesChange(next))
	return nil
}

// Delete implements Annotation. Skeletons are removed together with their elements as one entry.
func (t *Track) Delete(frame int, force bool) bool {
	if t.shapeType != ShapeSkeleton || len(t.elements) == 0 {
		return t.annotation.Delete(frame, force)
	}
	if t.locked() && !force {
		return t.removed
	}
	if t.removed {
		return true
	}
	_ = t.history().Batch(ActionRemovedObject, t.groupIDs(), frame, func() error {
		for _, element := range t.elements {
			element.annotation.Delete(frame, true)
		}
		t.annotation.Delete(frame, true)
		return nil
	})
	return t.removed
}

func (t *Track) locked() bool {
	if t.shapeType != ShapeSkeleton || len(t.elements) == 0 {
		return t.lock
	}
	for _, element := range t.elements {
		if !element.lock {
			return false
		}
	}
	return true
}

func (t *Track) groupIDs() []int {
	ids := []int{t.clientID}
	for _, element := range t.elements {
		ids = append(ids, element.clientID)
	}
	return ids
}

// Distance hit-tests the track on frame. Outside positions are never hit.
func (t *Track) Distance(frame int, x, y float64) (float64, bool) {
	state, err := t.Get(frame)
	if err != nil || state.Outside {
		return 0, false
	}
	return Distance(t.shapeType, state.Points, x, y, state.Rotation)
}

// ClearServerID implements Annotation. Server ids are not part of history.
func (t *Track) ClearServerID() {
	t.annotation.ClearServerID()
	shapes := maps.Clone(t.shapes)
	for keyframeNumber, k := range shapes {
		k.serverID = nil
		shapes[keyframeNumber] = k
	}
	t.shapes = shapes
	for _, element := range t.elements {
		element.ClearServerID()
	}
}

func splitAttributes(label *Label, values map[int]string, mutable bool) map[int]string {
	out := make(map[int]string, len(values))
	for id, value := range values {
		if spec, ok := label.Attribute(id); ok && spec.Mutable == mutable {
			out[id] = value
		}
	}
	return out
}

// ToJSON returns the persisted form
func (t *Track) ToJSON() RawTrackData {
	raw := RawTrackData{
		ClientID:   t.clientID,
		Frame:      t.frame,
		LabelID:    t.label.ID,
		Group:      t.group,
		Source:     t.source,
		Attributes: rawAttributes(t.label, splitAttributes(t.label, t.attributes, false)),
		Shapes:     make([]RawTrackedShape, 0, len(t.shapes)),
	}
	if t.serverID != nil {
		id := *t.serverID
		raw.ID = &id
	}
	for _, keyframeNumber := range t.frames() {
		k := t.shapes[keyframeNumber]
		shape := RawTrackedShape{
			Type:       t.shapeType,
			Frame:      keyframeNumber,
			Occluded:   k.occluded,
			Outside:    k.outside,
			ZOrder:     k.zOrder,
			Rotation:   rawRotation(t.shapeType, k.rotation),
			Attributes: rawAttributes(t.label, splitAttributes(t.label, k.attributes, true)),
		}
		if t.shapeType != ShapeSkeleton {
			shape.Points = copyFloats(k.points)
		}
		if k.serverID != nil {
			id := *k.serverID
			shape.ID = &id
		}
		raw.Shapes = append(raw.Shapes, shape)
	}
	for _, element := range t.elements {
		elementRaw := element.ToJSON()
		elementRaw.Group = t.group
		elementRaw.Source = t.source
		raw.Elements = append(raw.Elements, elementRaw)
	}
	return raw
}

// UpdateServerID takes persisted ids from a server response. Keyframes are matched by frame,
// elements by label.
func (t *Track) UpdateServerID(raw RawTrackData) {
	t.setServerID(raw.ID)
	shapes := maps.Clone(t.shapes)
	for _, shape := range raw.Shapes {
		k, ok := shapes[shape.Frame]
		if !ok || shape.ID == nil {
			continue
		}
		id := *shape.ID
		k.serverID = &id
		shapes[shape.Frame] = k
	}
	t.shapes = shapes
	for _, elementRaw := range raw.Elements {
		for _, element := range t.elements {
			if element.label.ID == elementRaw.LabelID {
				element.UpdateServerID(elementRaw)
			}
		}
	}
}
