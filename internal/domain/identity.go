package domain

// Identity is the verified caller returned by the session collaborator.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"name,omitempty"`
}
