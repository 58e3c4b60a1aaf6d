package annot

import (
	"time"
)

// Annotation is the common surface of shapes, tracks and tags
type Annotation interface {
	ClientID() int
	ServerID() (int, bool)
	ParentID() (int, bool)
	ObjectType() ObjectType
	Label() *Label
	Removed() bool
	// Get materializes the object on frame
	Get(frame int) (ObjectState, error)
	// Save validates state, applies changed fields and returns the new snapshot
	Save(frame int, state ObjectState) (ObjectState, error)
	// Delete soft-removes the object unless it is locked and force is false. Returns removed state.
	Delete(frame int, force bool) bool
	ClearServerID()
	restorer
}

type labelValue struct {
	label      *Label
	attributes map[int]string
}

// annotation holds fields and mutation plumbing shared by every object
type annotation struct {
	clientID     int
	serverID     *int
	parentID     *int
	label        *Label
	group        int
	frame        int
	attributes   map[int]string
	descriptions []string
	color        string
	source       Source
	lock         bool
	hidden       bool
	pinned       bool
	removed      bool
	updated      time.Time
	readOnly     StateField

	inj *Injection
	// self is the concrete object, target of recorded changes
	self restorer
}

func newAnnotation(clientID int, serverID *int, label *Label, frame, group int, source Source, inj *Injection) annotation {
	if source == "" {
		source = SourceManual
	}
	a := annotation{
		clientID:   clientID,
		label:      label,
		group:      group,
		frame:      frame,
		attributes: label.Defaults(),
		color:      inj.colorFor(clientID),
		source:     source,
		updated:    time.Now(),
		inj:        inj,
	}
	a.setServerID(serverID)
	return a
}

// ClientID returns process-local id
func (a *annotation) ClientID() int {
	return a.clientID
}

// ServerID returns persisted id, ok is false until the object is saved
func (a *annotation) ServerID() (int, bool) {
	if a.serverID == nil {
		return 0, false
	}
	return *a.serverID, true
}

// ParentID returns the skeleton client id for skeleton elements
func (a *annotation) ParentID() (int, bool) {
	if a.parentID == nil {
		return 0, false
	}
	return *a.parentID, true
}

// Label returns current label
func (a *annotation) Label() *Label {
	return a.label
}

// Removed reports soft-deletion
func (a *annotation) Removed() bool {
	return a.removed
}

// Frame returns the object frame (first keyframe for tracks)
func (a *annotation) Frame() int {
	return a.frame
}

// ClearServerID forgets the persisted id, the object will be created again on next save
func (a *annotation) ClearServerID() {
	a.serverID = nil
}

func (a *annotation) setServerID(id *int) {
	if id == nil {
		return
	}
	value := *id
	a.serverID = &value
}

func (a *annotation) history() *History {
	return a.inj.History
}

// record stores changes in history and applies their after values
func (a *annotation) record(action HistoryAction, frame int, changes ...change) {
	a.recordFor(action, []int{a.clientID}, frame, changes...)
}

func (a *annotation) recordFor(action HistoryAction, clientIDs []int, frame int, changes ...change) {
	if len(changes) == 0 {
		return
	}
	a.history().do(action, clientIDs, frame, changes...)
	for _, c := range changes {
		c.target.restore(c.field, c.after)
	}
}

// restoreCommon applies a recorded value of a shared field; false means the field is not shared
func (a *annotation) restoreCommon(field StateField, value any) bool {
	switch field {
	case FieldLabel:
		v := value.(labelValue)
		a.label = v.label
		a.attributes = v.attributes
	case FieldAttributes:
		a.attributes = value.(map[int]string)
	case FieldDescriptions:
		a.descriptions = value.([]string)
	case FieldLock:
		a.lock = value.(bool)
	case FieldPinned:
		a.pinned = value.(bool)
	case FieldHidden:
		a.hidden = value.(bool)
	case FieldColor:
		a.color = value.(string)
	case FieldGroup:
		a.group = value.(int)
	case FieldSource:
		a.source = value.(Source)
	case fieldRemoved:
		a.removed = value.(bool)
		if a.removed {
			a.serverID = nil
		}
	default:
		return false
	}
	a.updated = time.Now()
	return true
}

func (a *annotation) target() restorer {
	return a.self
}

func (a *annotation) labelChange(label *Label) change {
	return change{
		target: a.target(),
		field:  FieldLabel,
		before: labelValue{label: a.label, attributes: a.attributes},
		after:  labelValue{label: label, attributes: remapAttributes(a.attributes, a.label, label)},
	}
}

func (a *annotation) saveLabel(label *Label, frame int) {
	a.record(ActionChangedLabel, frame, a.labelChange(label))
}

func (a *annotation) saveAttributes(attributes map[int]string, frame int) {
	next := copyAttributes(a.attributes)
	for id, value := range attributes {
		next[id] = value
	}
	a.record(ActionChangedAttributes, frame, change{target: a.target(), field: FieldAttributes, before: a.attributes, after: next})
}

func (a *annotation) saveDescriptions(descriptions []string, frame int) {
	a.record(ActionChangedDescriptions, frame, change{
		target: a.target(),
		field:  FieldDescriptions,
		before: a.descriptions,
		after:  append([]string(nil), descriptions...),
	})
}

func (a *annotation) saveLock(lock bool, frame int) {
	a.record(ActionChangedLock, frame, change{target: a.target(), field: FieldLock, before: a.lock, after: lock})
}

func (a *annotation) savePinned(pinned bool, frame int) {
	a.record(ActionChangedPinned, frame, change{target: a.target(), field: FieldPinned, before: a.pinned, after: pinned})
}

func (a *annotation) saveHidden(hidden bool, frame int) {
	a.record(ActionChangedHidden, frame, change{target: a.target(), field: FieldHidden, before: a.hidden, after: hidden})
}

func (a *annotation) saveColor(color string, frame int) {
	a.record(ActionChangedColor, frame, change{target: a.target(), field: FieldColor, before: a.color, after: color})
}

func (a *annotation) saveGroup(group int, frame int) {
	a.record(ActionChangedGroup, frame, change{target: a.target(), field: FieldGroup, before: a.group, after: group})
}

func (a *annotation) saveSource(source Source, frame int) {
	a.record(ActionChangedSource, frame, change{target: a.target(), field: FieldSource, before: a.source, after: source})
}

// manualSourceChange promotes source to manual after a geometry edit unless source is read-only
func (a *annotation) manualSourceChange() (change, bool) {
	if a.readOnly.Has(FieldSource) || a.source == SourceManual {
		return change{}, false
	}
	return change{target: a.target(), field: FieldSource, before: a.source, after: SourceManual}, true
}

// Delete implements Annotation
func (a *annotation) Delete(frame int, force bool) bool {
	if a.lock && !force {
		return a.removed
	}
	if !a.removed {
		a.record(ActionRemovedObject, frame, change{target: a.target(), field: fieldRemoved, before: false, after: true})
	}
	return a.removed
}

// changedFields drops read-only fields from the candidate mask
func (a *annotation) changedFields(state ObjectState) StateField {
	return state.Changed &^ a.readOnly
}

// validateCommon checks shared fields of a candidate. Nothing is mutated.
func (a *annotation) validateCommon(state ObjectState, changed StateField) error {
	label := a.label
	if changed.Has(FieldLabel) {
		if state.Label == nil {
			return newArgumentError("label of object %d can not be empty", a.clientID)
		}
		if a.inj.Labels != nil {
			if _, ok := a.inj.Labels.Label(state.Label.ID); !ok {
				return newArgumentError("label %d of object %d is unknown", state.Label.ID, a.clientID)
			}
		}
		if a.parentID != nil && state.Label.ID != a.label.ID {
			return newArgumentError("label of skeleton element %d can not be changed", a.clientID)
		}
		label = state.Label
	}
	if changed.Has(FieldAttributes) {
		for id, value := range state.Attributes {
			spec, ok := label.Attribute(id)
			if !ok {
				return newArgumentError("attribute %d does not belong to label %q", id, label.Name)
			}
			if !ValidateAttributeValue(value, spec) {
				return newArgumentError("value %q is invalid for attribute %q", value, spec.Name)
			}
		}
	}
	if changed.Has(FieldColor) && !ValidateColor(state.Color) {
		return newArgumentError("color %q is not a #rrggbb value", state.Color)
	}
	if changed.Has(FieldSource) && state.Source != SourceManual && state.Source != SourceAuto {
		return newArgumentError("source %q is unknown", state.Source)
	}
	if changed.Has(FieldGroup) && state.Group < 0 {
		return newArgumentError("group can not be negative, got %d", state.Group)
	}
	return nil
}

// changedAttributes returns only candidate attributes that differ from current
func changedAttributes(current, candidate map[int]string) map[int]string {
	diff := make(map[int]string)
	for id, value := range candidate {
		if old, ok := current[id]; !ok || old != value {
			diff[id] = value
		}
	}
	return diff
}

// saveLabelAndAttributes applies label first so that attributes are written against the new label
func (a *annotation) saveLabelAndAttributes(state ObjectState, changed StateField, frame int) {
	if changed.Has(FieldLabel) && state.Label.ID != a.label.ID {
		a.saveLabel(state.Label, frame)
	}
	if changed.Has(FieldAttributes) {
		if diff := changedAttributes(a.attributes, state.Attributes); len(diff) > 0 {
			a.saveAttributes(diff, frame)
		}
	}
}

// saveFlags applies shared fields that do not depend on frame semantics
func (a *annotation) saveFlags(state ObjectState, changed StateField, frame int) {
	if changed.Has(FieldDescriptions) {
		a.saveDescriptions(state.Descriptions, frame)
	}
	if changed.Has(FieldGroup) && state.Group != a.group {
		a.saveGroup(state.Group, frame)
	}
	if changed.Has(FieldLock) && state.Lock != a.lock {
		a.saveLock(state.Lock, frame)
	}
	if changed.Has(FieldPinned) && state.Pinned != a.pinned {
		a.savePinned(state.Pinned, frame)
	}
	if changed.Has(FieldColor) && state.Color != a.color {
		a.saveColor(state.Color, frame)
	}
	if changed.Has(FieldHidden) && state.Hidden != a.hidden {
		a.saveHidden(state.Hidden, frame)
	}
	if changed.Has(FieldSource) && state.Source != a.source {
		a.saveSource(state.Source, frame)
	}
}

// fit clamps points into the frame and returns nil when the result is degenerate or off the image
func (a *annotation) fit(shapeType ShapeType, frame int, points []float64, rotation float64) []float64 {
	fitted := copyFloats(points)
	width, height, known := a.inj.frameSize(frame)
	if known {
		fitted = fitPoints(shapeType, points, rotation, width, height)
	}
	dropped := !CheckShapeArea(shapeType, fitted)
	if known && shapeType != ShapeMask && checkOutside(fitted, width, height) {
		dropped = true
	}
	if dropped {
		a.inj.Logger.Debug().Int("client_id", a.clientID).Int("frame", frame).Str("shape_type", string(shapeType)).Msg("degenerate points dropped")
		return nil
	}
	return fitted
}

// checkMask rejects mask boxes outside the known frame
func (a *annotation) checkMask(shapeType ShapeType, frame int, points []float64) error {
	if shapeType != ShapeMask {
		return nil
	}
	width, height, known := a.inj.frameSize(frame)
	if !known {
		return nil
	}
	return checkMaskFrame(points, width, height)
}

// baseState fills shared snapshot fields
func (a *annotation) baseState(objectType ObjectType, frame int) ObjectState {
	state := ObjectState{
		ObjectType:   objectType,
		ClientID:     a.clientID,
		Label:        a.label,
		Group:        a.group,
		Frame:        frame,
		Attributes:   copyAttributes(a.attributes),
		Descriptions: append([]string(nil), a.descriptions...),
		Lock:         a.lock,
		Pinned:       a.pinned,
		Hidden:       a.hidden,
		Color:        a.color,
		Source:       a.source,
		UpdatedAt:    a.updated,
	}
	if a.serverID != nil {
		id := *a.serverID
		state.ServerID = &id
	}
	if a.parentID != nil {
		id := *a.parentID
		state.ParentID = &id
	}
	return state
}

// rawAttributes serializes attributes sorted by spec order of the label
func rawAttributes(label *Label, values map[int]string) []RawAttribute {
	out := make([]RawAttribute, 0, len(values))
	for _, spec := range label.Attributes {
		if value, ok := values[spec.ID]; ok {
			out = append(out, RawAttribute{SpecID: spec.ID, Value: value})
		}
	}
	return out
}
