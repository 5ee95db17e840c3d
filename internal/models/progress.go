package models

// Progress is a learner's local position in an activity.
type Progress struct {
	Current int                    `json:"current"`
	Done    map[string]bool        `json:"done"`
	Uploads map[string][]MediaItem `json:"uploads"`
}

// NewProgress returns the initial progress.
func NewProgress() Progress {
	return Progress{Current: 0, Done: map[string]bool{}, Uploads: map[string][]MediaItem{}}
}
