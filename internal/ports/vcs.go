package ports

import (
	"context"

	"langsync/internal/domain"
)

// WorkingTree gives access to the checkout a component's files live in.
type WorkingTree interface {
	// Dir returns the absolute directory of the component checkout.
	Dir(c *domain.Component) (string, error)
	// Revision identifies the current state of the checkout.
	Revision(c *domain.Component) (string, error)
	// CommitPending records pending changes to the given paths under a
	// message. Paths are relative to the checkout directory.
	CommitPending(ctx context.Context, c *domain.Component, message string, paths ...string) error
}
