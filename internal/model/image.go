package model

import "image"

// ImageStatus is the resolution state of one image.
type ImageStatus int

const (
	ImagePending ImageStatus = iota
	ImageLoaded
	ImageFailed
)

func (s ImageStatus) String() string {
	switch s {
	case ImageLoaded:
		return "loaded"
	case ImageFailed:
		return "failed"
	default:
		return "pending"
	}
}

// ImageSource records where a loaded image came from.
type ImageSource int

const (
	FromUnknown ImageSource = iota
	FromCache
	FromNetwork
	FromAlternate
)

func (s ImageSource) String() string {
	switch s {
	case FromCache:
		return "cache-hit"
	case FromNetwork:
		return "network"
	case FromAlternate:
		return "alternate"
	default:
		return "unknown"
	}
}

// ResolvedImage is a snapshot of one image's resolution.
// Image is nil unless Status is ImageLoaded.
type ResolvedImage struct {
	Key    string // normalized absolute URL
	Image  image.Image
	Status ImageStatus
	Source ImageSource
	Width  int // natural dimensions, 0 when unknown
	Height int
	Err    error // failure reason when Status is ImageFailed
}

// Loaded reports whether the image can be drawn.
func (r ResolvedImage) Loaded() bool {
	return r.Status == ImageLoaded && r.Image != nil
}
