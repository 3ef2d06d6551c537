package persist

import "time"

// LatLong is a coordinate pair in degrees.
type LatLong struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Post represents a single piece of content. Location is optional; posts
// without one never contribute to the location signal.
type Post struct {
	ID        DBID      `json:"id"`
	AuthorID  DBID      `json:"author_id"`
	Location  *LatLong  `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
