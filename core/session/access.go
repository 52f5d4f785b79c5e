package session

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed access.yaml
var defaultRules []byte

// Decision is the outcome of checking a request path against the AccessRules.
type Decision int

const (
	Allow Decision = iota
	Login          // no session: send the user to /login
	Home           // session without the required role: send the user to /
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Login:
		return "login"
	case Home:
		return "home"
	}
	return "unknown"
}

type (
	GuardedPrefix struct {
		Prefix string   `yaml:"prefix"`
		Roles  []string `yaml:"roles"`
	}

	// AccessRules is the static path table enforced before routing.
	AccessRules struct {
		Public struct {
			Exact    []string `yaml:"exact"`
			Prefixes []string `yaml:"prefixes"`
		} `yaml:"public"`
		Guarded []GuardedPrefix `yaml:"guarded"`

		exact map[string]bool
	}
)

// DefaultAccessRules returns the built-in table.
func DefaultAccessRules() *AccessRules {
	rules, err := ParseAccessRules(defaultRules)
	if err != nil {
		panic(err) // embedded document
	}
	return rules
}

// ParseAccessRules parses a YAML access table.
func ParseAccessRules(doc []byte) (*AccessRules, error) {
	rules := new(AccessRules)
	if err := yaml.Unmarshal(doc, rules); err != nil {
		return nil, errors.Wrap(err, "parsing access rules")
	}
	rules.exact = make(map[string]bool, len(rules.Public.Exact))
	for _, p := range rules.Public.Exact {
		rules.exact[p] = true
	}
	for i, g := range rules.Guarded {
		if !strings.HasPrefix(g.Prefix, "/") {
			return nil, errors.Errorf("guarded prefix %q must start with /", g.Prefix)
		}
		rules.Guarded[i].Prefix = foldPath(g.Prefix)
		for j, r := range g.Roles {
			if !IsRole(r) {
				return nil, errors.Errorf("guarded prefix %q: unknown role %q", g.Prefix, r)
			}
			rules.Guarded[i].Roles[j] = NormalizeRole(r)
		}
	}
	// longest prefix first so nested prefixes win
	sort.SliceStable(rules.Guarded, func(i, j int) bool {
		return len(rules.Guarded[i].Prefix) > len(rules.Guarded[j].Prefix)
	})
	return rules, nil
}

// IsPublic reports whether path bypasses the session check.
func (r *AccessRules) IsPublic(path string) bool {
	if r.exact[path] {
		return true
	}
	for _, p := range r.Public.Prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// AllowedRoles returns the roles allowed under path, or nil when no guarded prefix matches.
// Paths are compared case and accent insensitively: /dashboard/Párroco is guarded like /dashboard/parroco.
func (r *AccessRules) AllowedRoles(path string) []string {
	path = foldPath(path)
	for _, g := range r.Guarded {
		if path == g.Prefix || strings.HasPrefix(path, g.Prefix+"/") {
			return g.Roles
		}
	}
	return nil
}

// Decide checks a request path against the session cookies' values.
func (r *AccessRules) Decide(path, token, role string) Decision {
	if r.IsPublic(path) {
		return Allow
	}
	if token == "" {
		return Login
	}
	if roles := r.AllowedRoles(path); roles != nil && !HasAnyRole(role, roles) {
		return Home
	}
	return Allow
}
