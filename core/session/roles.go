package session

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Roles
const (
	RoleParroco    = "parroco"    // parish priest
	RoleSecretaria = "secretaria" // parish secretary
	RoleFeligres   = "feligres"   // parishioner
)

var (
	// StaffRoles may manage sacrament records and read accounting reports.
	StaffRoles = []string{RoleParroco, RoleSecretaria}

	knownRoles = map[string]bool{RoleParroco: true, RoleSecretaria: true, RoleFeligres: true}
)

// IsRole reports whether role (in any case or accentuation) is a known role.
func IsRole(role string) bool {
	return knownRoles[NormalizeRole(role)]
}

// NormalizeRole lowers the role name and strips its diacritics: "Feligrés" -> "feligres".
func NormalizeRole(role string) string {
	return fold(strings.TrimSpace(role))
}

func foldPath(path string) string {
	return fold(path)
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// HasAnyRole reports whether role is one of roles. An empty roles list allows any known role.
func HasAnyRole(role string, roles []string) bool {
	role = NormalizeRole(role)
	if len(roles) == 0 {
		return IsRole(role)
	}
	for _, r := range roles {
		if NormalizeRole(r) == role {
			return true
		}
	}
	return false
}

// DashboardPath is the landing page of a role.
func DashboardPath(role string) string {
	role = NormalizeRole(role)
	if !IsRole(role) {
		return "/"
	}
	return "/dashboard/" + role
}
