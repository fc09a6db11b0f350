package domain

// User the denormalized user projection owned by the auth service. Cached
// here, never authoritative.
type User struct {
	ID        string `json:"_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}
