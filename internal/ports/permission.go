package ports

import (
	"context"

	"langsync/internal/domain"
)

// PermissionChecker answers authorization questions for admission.
type PermissionChecker interface {
	// CanAddTranslation reports whether user may start a new translation
	// in the project.
	CanAddTranslation(ctx context.Context, user domain.User, project *domain.Project) (bool, error)
	// IsProjectAdmin reports whether user administers the project.
	IsProjectAdmin(ctx context.Context, user domain.User, project *domain.Project) (bool, error)
}
