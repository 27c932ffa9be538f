package model

type Role string

const (
	RoleClient     Role = "CLIENT"
	RoleConsultant Role = "CONSULTANT"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleConsultant
}

// Identity is the authenticated caller as supplied by the bearer token.
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
