package store

import "github.com/LdDl/annot-go/annot"

// idAllocator hands out server ids of one job. Ids are unique across tags, shapes, tracks,
// skeleton elements and keyframes.
type idAllocator struct {
	last int
}

func (a *idAllocator) next() *int {
	a.last++
	id := a.last
	return &id
}

func (a *idAllocator) see(id *int) {
	if id != nil && *id > a.last {
		a.last = *id
	}
}

func (a *idAllocator) ensure(id **int) {
	if *id == nil {
		*id = a.next()
	}
}

// observe moves the counter past every id already present in data
func (a *idAllocator) observe(data annot.RawAnnotations) {
	for _, tag := range data.Tags {
		a.see(tag.ID)
	}
	var shapes func(items []annot.RawShapeData)
	shapes = func(items []annot.RawShapeData) {
		for _, shape := range items {
			a.see(shape.ID)
			shapes(shape.Elements)
		}
	}
	shapes(data.Shapes)
	var tracks func(items []annot.RawTrackData)
	tracks = func(items []annot.RawTrackData) {
		for _, track := range items {
			a.see(track.ID)
			for _, shape := range track.Shapes {
				a.see(shape.ID)
			}
			tracks(track.Elements)
		}
	}
	tracks(data.Tracks)
}

// assign gives ids to everything in data that has none
func (a *idAllocator) assign(data *annot.RawAnnotations) {
	for i := range data.Tags {
		a.ensure(&data.Tags[i].ID)
	}
	var shapes func(items []annot.RawShapeData)
	shapes = func(items []annot.RawShapeData) {
		for i := range items {
			a.ensure(&items[i].ID)
			shapes(items[i].Elements)
		}
	}
	shapes(data.Shapes)
	var tracks func(items []annot.RawTrackData)
	tracks = func(items []annot.RawTrackData) {
		for i := range items {
			a.ensure(&items[i].ID)
			for j := range items[i].Shapes {
				a.ensure(&items[i].Shapes[j].ID)
			}
			tracks(items[i].Elements)
		}
	}
	tracks(data.Tracks)
}
