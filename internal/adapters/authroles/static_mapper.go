// Package authroles maps identity-provider groups to application roles.
package authroles

import (
	"strings"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
)

// StaticRoleMapper grants RoleAdmin to members of AdminGroup. Everyone else
// who reached the IdP is a learner; guests never come through SSO.
// Group names compare case-insensitively.
type StaticRoleMapper struct {
	AdminGroup string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	want := strings.TrimSpace(m.AdminGroup)
	if want == "" {
		return domainauth.RoleUser
	}
	for _, g := range groups {
		if strings.EqualFold(strings.TrimSpace(g), want) {
			return domainauth.RoleAdmin
		}
	}
	return domainauth.RoleUser
}
