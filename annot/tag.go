package annot

// Tag is a frame-scoped label without geometry
type Tag struct {
	annotation
}

func newTag(data RawTagData, clientID int, label *Label, inj *Injection) *Tag {
	tag := &Tag{
		annotation: newAnnotation(clientID, data.ID, label, data.Frame, data.Group, data.Source, inj),
	}
	for id, value := range attributesFromRaw(data.Attributes) {
		tag.attributes[id] = value
	}
	tag.self = tag
	return tag
}

// ObjectType implements Annotation
func (t *Tag) ObjectType() ObjectType {
	return ObjectTag
}

func (t *Tag) restore(field StateField, value any) {
	t.restoreCommon(field, value)
}

// Get implements Annotation
func (t *Tag) Get(frame int) (ObjectState, error) {
	if frame != t.frame {
		return ObjectState{}, newScriptingError("tag %d exists on frame %d, requested frame %d", t.clientID, t.frame, frame)
	}
	state := t.baseState(ObjectTag, t.frame)
	state.object = t
	return state, nil
}

// Save implements Annotation
func (t *Tag) Save(frame int, state ObjectState) (ObjectState, error) {
	if frame != t.frame {
		return ObjectState{}, newScriptingError("tag %d exists on frame %d, saved on frame %d", t.clientID, t.frame, frame)
	}
	if t.lock && state.Lock {
		return t.Get(frame)
	}
	changed := t.changedFields(state)
	if err := t.validateCommon(state, changed); err != nil {
		return ObjectState{}, err
	}
	t.saveLabelAndAttributes(state, changed, frame)
	t.saveFlags(state, changed, frame)
	return t.Get(frame)
}

// ToJSON returns the persisted form
func (t *Tag) ToJSON() RawTagData {
	raw := RawTagData{
		ClientID:   t.clientID,
		Frame:      t.frame,
		LabelID:    t.label.ID,
		Group:      t.group,
		Source:     t.source,
		Attributes: rawAttributes(t.label, t.attributes),
	}
	if t.serverID != nil {
		id := *t.serverID
		raw.ID = &id
	}
	return raw
}

// UpdateServerID takes the persisted id from a server response
func (t *Tag) UpdateServerID(raw RawTagData) {
	t.setServerID(raw.ID)
}
