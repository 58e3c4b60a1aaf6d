package annot

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// FrameProvider gives frame metadata needed by the models
type FrameProvider interface {
	// FrameSize returns image size of the frame, ok is false when unknown
	FrameSize(frame int) (width, height float64, ok bool)
	// IsDeleted reports whether the frame is excluded from the job
	IsDeleted(frame int) bool
}

// FrameSize is an image size
type FrameSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Frames is a FrameProvider with a default size, optional per-frame sizes and deleted frames
type Frames struct {
	Default FrameSize
	Sizes   map[int]FrameSize
	Deleted map[int]bool
}

// FrameSize implements FrameProvider
func (f *Frames) FrameSize(frame int) (float64, float64, bool) {
	if size, ok := f.Sizes[frame]; ok {
		return size.Width, size.Height, true
	}
	if f.Default.Width > 0 && f.Default.Height > 0 {
		return f.Default.Width, f.Default.Height, true
	}
	return 0, 0, false
}

// IsDeleted implements FrameProvider
func (f *Frames) IsDeleted(frame int) bool {
	return f.Deleted[frame]
}

// ClientIDAllocator hands out process-local object ids
type ClientIDAllocator interface {
	NextClientID() int
}

// MaskSource lists masks living on a frame
type MaskSource interface {
	MasksOnFrame(frame int) []*Shape
}

// Counter is a ClientIDAllocator starting from 1
type Counter struct {
	last atomic.Int64
}

// NextClientID implements ClientIDAllocator
func (c *Counter) NextClientID() int {
	return int(c.last.Add(1))
}

// Observe makes sure future ids are greater than id
func (c *Counter) Observe(id int) {
	for {
		current := c.last.Load()
		if int64(id) <= current || c.last.CompareAndSwap(current, int64(id)) {
			return
		}
	}
}

// Injection carries the collaborators shared by every object of a job
type Injection struct {
	Labels  LabelLookup
	Frames  FrameProvider
	History *History
	IDs     ClientIDAllocator
	Masks   MaskSource
	// Palette is indexed by client id modulo its size to pick default colors
	Palette []string
	// RemoveUnderlyingPixels erases pixels of other masks on the frame when a mask is drawn
	RemoveUnderlyingPixels bool
	Logger                 zerolog.Logger
}

// NewInjection returns injection with a fresh history, id counter and default palette
func NewInjection(labels LabelLookup, frames FrameProvider) *Injection {
	logger := zerolog.Nop()
	return &Injection{
		Labels:  labels,
		Frames:  frames,
		History: NewHistory(logger),
		IDs:     &Counter{},
		Palette: DefaultPalette(),
		Logger:  logger,
	}
}

// DefaultPalette returns the stock object colors
func DefaultPalette() []string {
	return []string{
		"#33ddff", "#fa3253", "#34d1b7", "#ff007c", "#ff6037", "#ddff33",
		"#24b353", "#b83df5", "#66ff66", "#32b7fa", "#ffcc33", "#83e070",
		"#fafa37", "#5986b3", "#8c78f0", "#ff6a4d", "#f078f0", "#2a7dd1",
		"#b25050", "#cc3366", "#cc9933", "#aaf0d1", "#ff00cc", "#3df53d",
		"#fa32b7", "#3d3df5", "#733380", "#f0c0d0", "#a1a1ff", "#b3b3b3",
	}
}

func (inj *Injection) colorFor(clientID int) string {
	if len(inj.Palette) == 0 {
		return "#b3b3b3"
	}
	return inj.Palette[clientID%len(inj.Palette)]
}

func (inj *Injection) frameSize(frame int) (float64, float64, bool) {
	if inj.Frames == nil {
		return 0, 0, false
	}
	return inj.Frames.FrameSize(frame)
}

func (inj *Injection) isDeleted(frame int) bool {
	return inj.Frames != nil && inj.Frames.IsDeleted(frame)
}
