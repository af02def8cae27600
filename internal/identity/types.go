package identity

import (
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
)

// User is the acting identity snapshot consumed by record creation.
// Points accumulate through the prospector lead-classification flow.
type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      enums.Role `json:"role"`
	AvatarURL string     `json:"avatarUrl,omitempty"`
	Points    int        `json:"points"`
}

// Account pairs a user with its password hash inside the directory.
type Account struct {
	User         User
	PasswordHash string
}

// DemoAccount is the login-screen listing exposed in dev environments.
type DemoAccount struct {
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  enums.Role `json:"role"`
}
