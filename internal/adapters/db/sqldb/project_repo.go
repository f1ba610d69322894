package sqldb

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"langsync/internal/domain"
)

type ProjectRepo struct{ *Repo }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{NewRepo(db)} }

const projectCols = "id, slug, name, instructions, created_at, updated_at"

func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) (int64, error) {
	now := time.Now().UTC()
	q := r.SQ.Insert("projects").Columns("slug", "name", "instructions", "created_at", "updated_at").
		Values(p.Slug, p.Name, p.Instructions, now.Format(time.RFC3339), now.Format(time.RFC3339))
	sqlStr, args, _ := q.ToSql()
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return id, nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	return r.get(ctx, sq.Eq{"id": id})
}

func (r *ProjectRepo) GetBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	return r.get(ctx, sq.Eq{"slug": slug})
}

func (r *ProjectRepo) get(ctx context.Context, where sq.Eq) (*domain.Project, error) {
	q := r.SQ.Select(projectCols).From("projects").Where(where).Limit(1)
	sqlStr, args, _ := q.ToSql()
	p, err := scanProject(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *ProjectRepo) List(ctx context.Context) ([]*domain.Project, error) {
	q := r.SQ.Select(projectCols).From("projects").OrderBy("slug")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	now := time.Now().UTC()
	q := r.SQ.Update("projects").
		Set("slug", p.Slug).
		Set("name", p.Name).
		Set("instructions", p.Instructions).
		Set("updated_at", now.Format(time.RFC3339)).
		Where(sq.Eq{"id": p.ID})
	sqlStr, args, _ := q.ToSql()
	if _, err := r.DB.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	p.UpdatedAt = now
	return nil
}

func (r *ProjectRepo) Delete(ctx context.Context, id int64) error {
	q := r.SQ.Delete("projects").Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var created, updated string
	if err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Instructions, &created, &updated); err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &p, nil
}
