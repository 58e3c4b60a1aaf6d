package annot

// AttributeSpec describes one attribute of a label
type AttributeSpec struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Mutable      bool          `json:"mutable"`
	InputType    AttributeType `json:"input_type"`
	DefaultValue string        `json:"default_value"`
	// Values are allowed values for radio/select/checkbox and [min, max, step] for number
	Values []string `json:"values"`
}

// Label is a named annotation class. Skeleton labels hold one sublabel per element.
type Label struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Type       string          `json:"type"`
	Attributes []AttributeSpec `json:"attributes"`
	Sublabels  []*Label        `json:"sublabels,omitempty"`
}

// Attribute returns the spec with the given id
func (l *Label) Attribute(id int) (AttributeSpec, bool) {
	for _, attr := range l.Attributes {
		if attr.ID == id {
			return attr, true
		}
	}
	return AttributeSpec{}, false
}

// AttributeByName returns the spec with the given name
func (l *Label) AttributeByName(name string) (AttributeSpec, bool) {
	for _, attr := range l.Attributes {
		if attr.Name == name {
			return attr, true
		}
	}
	return AttributeSpec{}, false
}

// Defaults returns attribute id -> default value for every attribute of the label
func (l *Label) Defaults() map[int]string {
	defaults := make(map[int]string, len(l.Attributes))
	for _, attr := range l.Attributes {
		defaults[attr.ID] = attr.DefaultValue
	}
	return defaults
}

// LabelLookup resolves label ids, sublabels included
type LabelLookup interface {
	Label(id int) (*Label, bool)
}

// LabelSet is a LabelLookup over a fixed list of labels
type LabelSet struct {
	labels []*Label
	byID   map[int]*Label
}

// NewLabelSet indexes labels and their sublabels by id
func NewLabelSet(labels ...*Label) *LabelSet {
	set := &LabelSet{
		labels: labels,
		byID:   make(map[int]*Label),
	}
	var index func(items []*Label)
	index = func(items []*Label) {
		for _, label := range items {
			set.byID[label.ID] = label
			index(label.Sublabels)
		}
	}
	index(labels)
	return set
}

// Label returns a label by id
func (s *LabelSet) Label(id int) (*Label, bool) {
	label, ok := s.byID[id]
	return label, ok
}

// Labels returns top-level labels
func (s *LabelSet) Labels() []*Label {
	return s.labels
}

// remapAttributes keeps values of attributes that exist (by name) in the new label and
// still validate there; everything else gets the new label defaults
func remapAttributes(current map[int]string, oldLabel, newLabel *Label) map[int]string {
	result := newLabel.Defaults()
	for id, value := range remapValues(current, oldLabel, newLabel) {
		result[id] = value
	}
	return result
}

// remapValues translates values to attribute ids of the new label, dropping what does not fit
func remapValues(current map[int]string, oldLabel, newLabel *Label) map[int]string {
	result := make(map[int]string, len(current))
	if oldLabel == nil || newLabel == nil {
		return result
	}
	for id, value := range current {
		oldSpec, ok := oldLabel.Attribute(id)
		if !ok {
			continue
		}
		newSpec, ok := newLabel.AttributeByName(oldSpec.Name)
		if !ok || newSpec.InputType != oldSpec.InputType {
			continue
		}
		if ValidateAttributeValue(value, newSpec) {
			result[newSpec.ID] = value
		}
	}
	return result
}
