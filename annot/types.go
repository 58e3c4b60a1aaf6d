package annot

// ShapeType is a geometry variant of a shape or a track
type ShapeType string

const (
	ShapeRectangle ShapeType = "rectangle" // (xtl, ytl, xbr, ybr)
	ShapePolygon   ShapeType = "polygon"   // (x0, y0, ..., xn, yn)
	ShapePolyline  ShapeType = "polyline"  // (x0, y0, ..., xn, yn)
	ShapePoints    ShapeType = "points"    // (x0, y0, ..., xn, yn)
	ShapeEllipse   ShapeType = "ellipse"   // (cx, cy, rightX, topY)
	ShapeCuboid    ShapeType = "cuboid"    // (x0, y0, ..., x7, y7)
	ShapeMask      ShapeType = "mask"      // (rle..., left, top, right, bottom)
	ShapeSkeleton  ShapeType = "skeleton"  // geometry lives in elements
)

// Valid reports whether t is a known shape type
func (t ShapeType) Valid() bool {
	switch t {
	case ShapeRectangle, ShapePolygon, ShapePolyline, ShapePoints, ShapeEllipse, ShapeCuboid, ShapeMask, ShapeSkeleton:
		return true
	}
	return false
}

// ObjectType tells shapes, tracks and tags apart
type ObjectType string

const (
	ObjectShape ObjectType = "shape"
	ObjectTrack ObjectType = "track"
	ObjectTag   ObjectType = "tag"
)

// Source is the provenance of an object
type Source string

const (
	SourceManual Source = "manual"
	SourceAuto   Source = "auto"
)

// HistoryAction names the kind of a recorded mutation
type HistoryAction string

const (
	ActionChangedLabel        HistoryAction = "Changed label"
	ActionChangedAttributes   HistoryAction = "Changed attributes"
	ActionChangedPoints       HistoryAction = "Changed points"
	ActionChangedRotation     HistoryAction = "Changed rotation"
	ActionChangedOutside      HistoryAction = "Changed outside"
	ActionChangedOccluded     HistoryAction = "Changed occluded"
	ActionChangedZOrder       HistoryAction = "Changed z-order"
	ActionChangedKeyframe     HistoryAction = "Changed keyframe"
	ActionChangedLock         HistoryAction = "Changed lock"
	ActionChangedPinned       HistoryAction = "Changed pinned"
	ActionChangedColor        HistoryAction = "Changed color"
	ActionChangedHidden       HistoryAction = "Changed hidden"
	ActionChangedGroup        HistoryAction = "Changed group"
	ActionChangedDescriptions HistoryAction = "Changed descriptions"
	ActionChangedSource       HistoryAction = "Changed source"
	ActionCreatedObjects      HistoryAction = "Created objects"
	ActionRemovedObject       HistoryAction = "Removed object"
	ActionPropagatedObject    HistoryAction = "Propagated object"
	ActionRemovedPixels       HistoryAction = "Removed underlying pixels"
)

// AttributeType is the input type of an attribute spec
type AttributeType string

const (
	AttributeCheckbox AttributeType = "checkbox"
	AttributeRadio    AttributeType = "radio"
	AttributeNumber   AttributeType = "number"
	AttributeText     AttributeType = "text"
	AttributeSelect   AttributeType = "select"
)

// UndefinedAttributeValue is accepted by select attributes in addition to their values
const UndefinedAttributeValue = "__undefined__"
