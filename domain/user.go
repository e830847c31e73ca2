package domain

// Profile identifies a registered user. Profiles live in memory only
// and do not survive a restart.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
}
