package domain

// Track is an opaque metadata record for a playable item, supplied by the
// external catalog service. Beyond the id nothing here is validated or
// interpreted by this subsystem. Immutable once appended to a queue.
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	AlbumArt   string `json:"album_art"`
	DurationMs int    `json:"duration_ms"`
	AddedBy    uint   `json:"added_by"`
}
