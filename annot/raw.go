package annot

// RawAttribute is an attribute value on the wire
type RawAttribute struct {
	SpecID int    `json:"spec_id"`
	Value  string `json:"value"`
}

// RawShapeData is the persisted form of a shape. Skeletons carry elements instead of points.
type RawShapeData struct {
	ID           *int           `json:"id,omitempty"`
	ClientID     int            `json:"client_id,omitempty"`
	Type         ShapeType      `json:"type"`
	Frame        int            `json:"frame"`
	LabelID      int            `json:"label_id"`
	Group        int            `json:"group"`
	Source       Source         `json:"source"`
	Occluded     bool           `json:"occluded"`
	Outside      bool           `json:"outside"`
	ZOrder       int            `json:"z_order"`
	Rotation     *float64       `json:"rotation,omitempty"`
	Points       []float64      `json:"points,omitempty"`
	Descriptions []string       `json:"descriptions,omitempty"`
	Attributes   []RawAttribute `json:"attributes"`
	Elements     []RawShapeData `json:"elements,omitempty"`
}

// RawTrackedShape is one keyframe of a track. Attributes hold mutable values only.
type RawTrackedShape struct {
	ID         *int           `json:"id,omitempty"`
	Type       ShapeType      `json:"type"`
	Frame      int            `json:"frame"`
	Occluded   bool           `json:"occluded"`
	Outside    bool           `json:"outside"`
	ZOrder     int            `json:"z_order"`
	Rotation   *float64       `json:"rotation,omitempty"`
	Points     []float64      `json:"points,omitempty"`
	Attributes []RawAttribute `json:"attributes"`
}

// RawTrackData is the persisted form of a track. Attributes hold unmutable values only.
type RawTrackData struct {
	ID         *int              `json:"id,omitempty"`
	ClientID   int               `json:"client_id,omitempty"`
	Frame      int               `json:"frame"`
	LabelID    int               `json:"label_id"`
	Group      int               `json:"group"`
	Source     Source            `json:"source"`
	Attributes []RawAttribute    `json:"attributes"`
	Shapes     []RawTrackedShape `json:"shapes"`
	Elements   []RawTrackData    `json:"elements,omitempty"`
}

// RawTagData is the persisted form of a tag
type RawTagData struct {
	ID         *int           `json:"id,omitempty"`
	ClientID   int            `json:"client_id,omitempty"`
	Frame      int            `json:"frame"`
	LabelID    int            `json:"label_id"`
	Group      int            `json:"group"`
	Source     Source         `json:"source"`
	Attributes []RawAttribute `json:"attributes"`
}

// RawAnnotations is the whole annotation payload of a job
type RawAnnotations struct {
	Version int            `json:"version"`
	Tags    []RawTagData   `json:"tags"`
	Shapes  []RawShapeData `json:"shapes"`
	Tracks  []RawTrackData `json:"tracks"`
}

// rotationDefined reports whether rotation is serialized for the shape type
func rotationDefined(shapeType ShapeType) bool {
	return shapeType == ShapeRectangle || shapeType == ShapeEllipse
}

func rawRotation(shapeType ShapeType, rotation float64) *float64 {
	if !rotationDefined(shapeType) {
		return nil
	}
	value := rotation
	return &value
}

func attributesFromRaw(raw []RawAttribute) map[int]string {
	out := make(map[int]string, len(raw))
	for _, attr := range raw {
		out[attr.SpecID] = attr.Value
	}
	return out
}
