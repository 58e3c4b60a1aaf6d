package annot

import (
	"slices"

	"github.com/pkg/errors"
)

func lookupLabel(inj *Injection, id int) (*Label, error) {
	if inj.Labels == nil {
		return nil, newDataError("no labels to resolve label %d", id)
	}
	label, ok := inj.Labels.Label(id)
	if !ok {
		return nil, newDataError("label %d is unknown", id)
	}
	return label, nil
}

func lookupSublabel(parent *Label, id int) (*Label, int, error) {
	idx := slices.IndexFunc(parent.Sublabels, func(sublabel *Label) bool { return sublabel.ID == id })
	if idx < 0 {
		return nil, 0, newDataError("label %d is not a sublabel of skeleton label %q", id, parent.Name)
	}
	return parent.Sublabels[idx], idx, nil
}

func (inj *Injection) nextClientID() int {
	if inj.IDs == nil {
		inj.IDs = &Counter{}
	}
	return inj.IDs.NextClientID()
}

// ShapeFromRaw builds a shape of the type named in data. Skeleton elements get their own client ids.
func ShapeFromRaw(data RawShapeData, clientID int, inj *Injection) (*Shape, error) {
	if !data.Type.Valid() {
		return nil, newDataError("unknown shape type %q", data.Type)
	}
	label, err := lookupLabel(inj, data.LabelID)
	if err != nil {
		return nil, err
	}
	if data.Type != ShapeSkeleton {
		if err := CheckNumberOfPoints(data.Type, data.Points); err != nil {
			return nil, err
		}
		return newShape(data, clientID, label, inj), nil
	}

	shape := newShape(data, clientID, label, inj)
	shape.points = nil
	shape.rotation = 0
	order := make([]int, 0, len(data.Elements))
	for _, elementData := range data.Elements {
		if elementData.Type == ShapeSkeleton || !elementData.Type.Valid() {
			return nil, newDataError("skeleton %d has element of type %q", clientID, elementData.Type)
		}
		sublabel, idx, err := lookupSublabel(label, elementData.LabelID)
		if err != nil {
			return nil, err
		}
		if err := CheckNumberOfPoints(elementData.Type, elementData.Points); err != nil {
			return nil, errors.Wrapf(err, "skeleton %d element %q", clientID, sublabel.Name)
		}
		elementData.Frame = data.Frame
		elementData.Group = data.Group
		elementData.ZOrder = data.ZOrder
		elementData.Source = shape.source
		elementData.Rotation = nil
		element := newShape(elementData, inj.nextClientID(), sublabel, inj)
		element.parentID = &shape.clientID
		element.readOnly = skeletonElementReadOnly
		shape.elements = append(shape.elements, element)
		order = append(order, idx)
	}
	sortElements(shape.elements, order)
	return shape, nil
}

// TrackFromRaw builds a track. A track without keyframes is a DataError.
func TrackFromRaw(data RawTrackData, clientID int, inj *Injection) (*Track, error) {
	if len(data.Shapes) == 0 {
		inj.Logger.Warn().Int("label_id", data.LabelID).Int("frame", data.Frame).Msg("track without shapes rejected")
		return nil, newDataError("track of label %d on frame %d has no shapes", data.LabelID, data.Frame)
	}
	shapeType := data.Shapes[0].Type
	if !shapeType.Valid() {
		return nil, newDataError("unknown track type %q", shapeType)
	}
	for _, shape := range data.Shapes {
		if shape.Type != shapeType {
			return nil, newDataError("track mixes %q and %q shapes", shapeType, shape.Type)
		}
		if shapeType == ShapeSkeleton {
			continue
		}
		if err := CheckNumberOfPoints(shapeType, shape.Points); err != nil {
			return nil, errors.Wrapf(err, "keyframe %d", shape.Frame)
		}
	}
	label, err := lookupLabel(inj, data.LabelID)
	if err != nil {
		return nil, err
	}
	track := newTrack(data, shapeType, clientID, label, inj)
	if shapeType != ShapeSkeleton {
		return track, nil
	}

	order := make([]int, 0, len(data.Elements))
	for _, elementData := range data.Elements {
		sublabel, idx, err := lookupSublabel(label, elementData.LabelID)
		if err != nil {
			return nil, err
		}
		elementData.Group = data.Group
		elementData.Source = track.source
		for i := range elementData.Shapes {
			elementData.Shapes[i].Rotation = nil
		}
		scoped := *inj
		scoped.Labels = NewLabelSet(sublabel)
		element, err := TrackFromRaw(elementData, inj.nextClientID(), &scoped)
		if err != nil {
			return nil, errors.Wrapf(err, "skeleton %d element %q", clientID, sublabel.Name)
		}
		if element.shapeType == ShapeSkeleton {
			return nil, newDataError("skeleton %d has a nested skeleton element", clientID)
		}
		element.inj = inj
		element.parentID = &track.clientID
		element.readOnly = skeletonElementReadOnly
		track.elements = append(track.elements, element)
		order = append(order, idx)
	}
	sortElements(track.elements, order)
	return track, nil
}

// TagFromRaw builds a tag
func TagFromRaw(data RawTagData, clientID int, inj *Injection) (*Tag, error) {
	label, err := lookupLabel(inj, data.LabelID)
	if err != nil {
		return nil, err
	}
	return newTag(data, clientID, label, inj), nil
}

// sortElements orders elements the way their sublabels are ordered in the skeleton label
func sortElements[T any](elements []T, order []int) {
	idx := make([]int, len(elements))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return order[a] - order[b] })
	sorted := make([]T, len(elements))
	for i, j := range idx {
		sorted[i] = elements[j]
	}
	copy(elements, sorted)
}
