package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Session holds the credentials issued by the API on login.
type Session struct {
	AccountID    string
	AccessToken  string
	RefreshToken string
	Role         Role
}

// Complete reports whether every session field is present.
func (s Session) Complete() bool {
	return s.AccountID != "" && s.AccessToken != "" && s.RefreshToken != "" && s.Role != ""
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
