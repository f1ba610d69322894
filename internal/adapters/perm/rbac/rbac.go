// Package rbac answers permission checks from static role grants loaded
// at startup. Projects are keyed by slug.
package rbac

import (
	"context"

	"langsync/internal/domain"
	"langsync/internal/ports"
)

// Grants is the role assignment table.
type Grants struct {
	// DefaultAdd lets every named user start translations anywhere.
	DefaultAdd bool
	// Admins and Translators map project slug to user names.
	Admins      map[string][]string
	Translators map[string][]string
}

type Checker struct {
	grants Grants
}

var _ ports.PermissionChecker = (*Checker)(nil)

func New(g Grants) *Checker {
	if g.Admins == nil {
		g.Admins = map[string][]string{}
	}
	if g.Translators == nil {
		g.Translators = map[string][]string{}
	}
	return &Checker{grants: g}
}

func (c *Checker) CanAddTranslation(ctx context.Context, user domain.User, project *domain.Project) (bool, error) {
	if user.Name == "" {
		return false, nil
	}
	if user.Superuser || contains(c.grants.Admins[project.Slug], user.Name) {
		return true, nil
	}
	if c.grants.DefaultAdd {
		return true, nil
	}
	return contains(c.grants.Translators[project.Slug], user.Name), nil
}

func (c *Checker) IsProjectAdmin(ctx context.Context, user domain.User, project *domain.Project) (bool, error) {
	if user.Name == "" {
		return false, nil
	}
	return user.Superuser || contains(c.grants.Admins[project.Slug], user.Name), nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
