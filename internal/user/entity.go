package user

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/kazz187/taskdash/internal/role"
)

type User struct {
	ID        string    `yaml:"id" json:"id" bson:"_id"`
	Name      string    `yaml:"name" json:"name" bson:"name"`
	Email     string    `yaml:"email" json:"email" bson:"email"`
	Role      role.Role `yaml:"role" json:"role" bson:"role"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at" bson:"updated_at"`
}

// NormalizeEmail lower-cases the address so uniqueness ignores case.
func NormalizeEmail(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", fmt.Errorf("email %q is not a valid address", s)
	}
	return s, nil
}

func (u *User) SearchFields() []string {
	return []string{u.Name, u.Email}
}
