// Package ports declares the interfaces between the use cases and the
// adapters that back them. Repository lookups return nil without error
// when the row does not exist.
package ports

import (
	"context"

	"langsync/internal/domain"
)

type ProjectRepository interface {
	Create(ctx context.Context, p *domain.Project) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id int64) error
}

type ComponentRepository interface {
	Create(ctx context.Context, c *domain.Component) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Component, error)
	GetBySlug(ctx context.Context, projectID int64, slug string) (*domain.Component, error)
	ListByProject(ctx context.Context, projectID int64) ([]*domain.Component, error)
	List(ctx context.Context) ([]*domain.Component, error)
	Update(ctx context.Context, c *domain.Component) error
	Delete(ctx context.Context, id int64) error
}

type TranslationRepository interface {
	Create(ctx context.Context, t *domain.Translation) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Translation, error)
	GetByLanguage(ctx context.Context, componentID, languageID int64) (*domain.Translation, error)
	ListByComponent(ctx context.Context, componentID int64) ([]*domain.Translation, error)
	Update(ctx context.Context, t *domain.Translation) error
	Delete(ctx context.Context, id int64) error
	// ApplyChanges inserts creates and deletes removeIDs in one
	// transaction, so a rescan never leaves the component half updated.
	ApplyChanges(ctx context.Context, componentID int64, creates []*domain.Translation, removeIDs []int64) error
}

type LanguageRepository interface {
	// Seed inserts the given languages, skipping codes already present.
	Seed(ctx context.Context, langs []*domain.Language) error
	List(ctx context.Context) ([]*domain.Language, error)
	GetByCode(ctx context.Context, code string) (*domain.Language, error)
}

type JobRepository interface {
	Create(ctx context.Context, j *domain.Job) (int64, error)
	Update(ctx context.Context, j *domain.Job) error
	GetByPublicID(ctx context.Context, publicID string) (*domain.Job, error)
	List(ctx context.Context, limit int) ([]*domain.Job, error)
	AppendLog(ctx context.Context, jobID int64, level, message string) error
	Logs(ctx context.Context, jobID int64) ([]*domain.JobLog, error)
}
