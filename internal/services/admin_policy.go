package services

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/models"
)

// AdminPolicy grants admin rights by stored role or by a configured email list.
type AdminPolicy struct {
	emails map[string]bool
}

func NewAdminPolicy(csv string) AdminPolicy {
	emails := make(map[string]bool)
	for _, e := range strings.Split(csv, ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			emails[e] = true
		}
	}
	return AdminPolicy{emails: emails}
}

func (p AdminPolicy) IsAdmin(u *models.User) bool {
	if u == nil {
		return false
	}
	return u.Role == models.RoleAdmin || p.emails[strings.ToLower(u.Email)]
}
