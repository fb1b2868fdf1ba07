package domain

const RoleAdmin = "admin"

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	Subject  string   `json:"sub"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
