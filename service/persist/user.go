package persist

import "time"

// Profile represents the public account data the suggestions engine needs
// about a user. Everything else about an account lives with the services that
// own the account.
type Profile struct {
	ID        DBID      `json:"id"`
	Username  string    `json:"username"`
	Location  *LatLong  `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
