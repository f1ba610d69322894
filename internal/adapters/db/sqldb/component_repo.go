package sqldb

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"langsync/internal/domain"
)

type ComponentRepo struct{ *Repo }

func NewComponentRepo(db *sql.DB) *ComponentRepo { return &ComponentRepo{NewRepo(db)} }

const componentCols = "id, project_id, slug, name, repo_path, file_mask, template, new_base, format, new_lang, code_style, language_regex, created_at, updated_at"

func (r *ComponentRepo) Create(ctx context.Context, c *domain.Component) (int64, error) {
	now := time.Now().UTC()
	q := r.SQ.Insert("components").
		Columns("project_id", "slug", "name", "repo_path", "file_mask", "template", "new_base", "format", "new_lang", "code_style", "language_regex", "created_at", "updated_at").
		Values(c.ProjectID, c.Slug, c.Name, c.RepoPath, c.FileMask, c.Template, c.NewBase, c.Format, string(c.NewLang), string(c.CodeStyle), c.LanguageRegex, now.Format(time.RFC3339), now.Format(time.RFC3339))
	sqlStr, args, _ := q.ToSql()
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return id, nil
}

func (r *ComponentRepo) GetByID(ctx context.Context, id int64) (*domain.Component, error) {
	return r.get(ctx, sq.Eq{"id": id})
}

func (r *ComponentRepo) GetBySlug(ctx context.Context, projectID int64, slug string) (*domain.Component, error) {
	return r.get(ctx, sq.Eq{"project_id": projectID, "slug": slug})
}

func (r *ComponentRepo) get(ctx context.Context, where sq.Eq) (*domain.Component, error) {
	q := r.SQ.Select(componentCols).From("components").Where(where).Limit(1)
	sqlStr, args, _ := q.ToSql()
	c, err := scanComponent(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *ComponentRepo) ListByProject(ctx context.Context, projectID int64) ([]*domain.Component, error) {
	return r.list(ctx, sq.Eq{"project_id": projectID})
}

func (r *ComponentRepo) List(ctx context.Context) ([]*domain.Component, error) {
	return r.list(ctx, nil)
}

func (r *ComponentRepo) list(ctx context.Context, where sq.Eq) ([]*domain.Component, error) {
	q := r.SQ.Select(componentCols).From("components").OrderBy("project_id", "slug")
	if where != nil {
		q = q.Where(where)
	}
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ComponentRepo) Update(ctx context.Context, c *domain.Component) error {
	now := time.Now().UTC()
	q := r.SQ.Update("components").
		Set("slug", c.Slug).
		Set("name", c.Name).
		Set("repo_path", c.RepoPath).
		Set("file_mask", c.FileMask).
		Set("template", c.Template).
		Set("new_base", c.NewBase).
		Set("format", c.Format).
		Set("new_lang", string(c.NewLang)).
		Set("code_style", string(c.CodeStyle)).
		Set("language_regex", c.LanguageRegex).
		Set("updated_at", now.Format(time.RFC3339)).
		Where(sq.Eq{"id": c.ID})
	sqlStr, args, _ := q.ToSql()
	if _, err := r.DB.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	c.UpdatedAt = now
	return nil
}

func (r *ComponentRepo) Delete(ctx context.Context, id int64) error {
	q := r.SQ.Delete("components").Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

func scanComponent(row rowScanner) (*domain.Component, error) {
	var c domain.Component
	var newLang, codeStyle, created, updated string
	if err := row.Scan(&c.ID, &c.ProjectID, &c.Slug, &c.Name, &c.RepoPath, &c.FileMask, &c.Template, &c.NewBase, &c.Format, &newLang, &codeStyle, &c.LanguageRegex, &created, &updated); err != nil {
		return nil, err
	}
	c.NewLang = domain.NewLangMode(newLang)
	c.CodeStyle = domain.CodeStyle(codeStyle)
	c.CreatedAt, _ = time.Parse(time.RFC3339, created)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &c, nil
}
