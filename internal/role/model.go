package role

import (
	"strings"
	"time"
)

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type RoleRq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NormalizeName is applied before every save and lookup so "Admin " and
// "admin" are the same role.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
