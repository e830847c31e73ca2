package domain

// Group is a named, persisted set of members. Membership is fixed at
// creation time; the member list always contains the creator and holds
// no duplicates.
type Group struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Contains reports whether userID is a member.
func (g Group) Contains(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
