package entities

// Message is a single role-tagged entry in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles used in outgoing requests.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)
