package export

// Host is the messaging platform embedding the heatmap.
// A nil Host means the export runs standalone.
type Host interface {
	// UserID returns the current user's identifier, if the host provides one.
	UserID() (string, bool)
}

// HapticHost is a Host that can give haptic feedback.
type HapticHost interface {
	Host
	Haptic()
}

// StaticHost is a Host with a fixed user identifier.
type StaticHost struct {
	ID string
}

// UserID implements Host.
func (h StaticHost) UserID() (string, bool) {
	return h.ID, h.ID != ""
}
