package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"langsync/internal/domain"
)

type TranslationRepo struct{ *Repo }

func NewTranslationRepo(db *sql.DB) *TranslationRepo { return &TranslationRepo{NewRepo(db)} }

const translationCols = "id, component_id, language_id, language_code, filename, revision, created_at, updated_at"

func (r *TranslationRepo) Create(ctx context.Context, t *domain.Translation) (int64, error) {
	now := time.Now().UTC()
	q := r.SQ.Insert("translations").
		Columns("component_id", "language_id", "language_code", "filename", "revision", "created_at", "updated_at").
		Values(t.ComponentID, t.LanguageID, t.LanguageCode, t.Filename, t.Revision, now.Format(time.RFC3339), now.Format(time.RFC3339))
	sqlStr, args, _ := q.ToSql()
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now
	return id, nil
}

func (r *TranslationRepo) GetByID(ctx context.Context, id int64) (*domain.Translation, error) {
	return r.get(ctx, sq.Eq{"id": id})
}

func (r *TranslationRepo) GetByLanguage(ctx context.Context, componentID, languageID int64) (*domain.Translation, error) {
	return r.get(ctx, sq.Eq{"component_id": componentID, "language_id": languageID})
}

func (r *TranslationRepo) get(ctx context.Context, where sq.Eq) (*domain.Translation, error) {
	q := r.SQ.Select(translationCols).From("translations").Where(where).Limit(1)
	sqlStr, args, _ := q.ToSql()
	t, err := scanTranslation(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *TranslationRepo) ListByComponent(ctx context.Context, componentID int64) ([]*domain.Translation, error) {
	q := r.SQ.Select(translationCols).From("translations").
		Where(sq.Eq{"component_id": componentID}).OrderBy("language_code")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Translation
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TranslationRepo) Update(ctx context.Context, t *domain.Translation) error {
	now := time.Now().UTC()
	q := r.SQ.Update("translations").
		Set("filename", t.Filename).
		Set("revision", t.Revision).
		Set("updated_at", now.Format(time.RFC3339)).
		Where(sq.Eq{"id": t.ID})
	sqlStr, args, _ := q.ToSql()
	if _, err := r.DB.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	t.UpdatedAt = now
	return nil
}

func (r *TranslationRepo) Delete(ctx context.Context, id int64) error {
	q := r.SQ.Delete("translations").Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

// ApplyChanges inserts and deletes in one transaction. Either the whole
// rescan result lands or none of it does.
func (r *TranslationRepo) ApplyChanges(ctx context.Context, componentID int64, creates []*domain.Translation, removeIDs []int64) error {
	if len(creates) == 0 && len(removeIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		for _, t := range creates {
			q := r.SQ.Insert("translations").
				Columns("component_id", "language_id", "language_code", "filename", "revision", "created_at", "updated_at").
				Values(componentID, t.LanguageID, t.LanguageCode, t.Filename, t.Revision, now.Format(time.RFC3339), now.Format(time.RFC3339))
			sqlStr, args, _ := q.ToSql()
			res, err := tx.ExecContext(ctx, sqlStr, args...)
			if err != nil {
				return fmt.Errorf("insert translation %s: %w", t.LanguageCode, err)
			}
			id, _ := res.LastInsertId()
			t.ID = id
			t.ComponentID = componentID
			t.CreatedAt = now
			t.UpdatedAt = now
		}
		if len(removeIDs) > 0 {
			q := r.SQ.Delete("translations").Where(sq.Eq{"id": removeIDs, "component_id": componentID})
			sqlStr, args, _ := q.ToSql()
			if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
				return fmt.Errorf("delete translations: %w", err)
			}
		}
		return nil
	})
}

func scanTranslation(row rowScanner) (*domain.Translation, error) {
	var t domain.Translation
	var created, updated string
	if err := row.Scan(&t.ID, &t.ComponentID, &t.LanguageID, &t.LanguageCode, &t.Filename, &t.Revision, &created, &updated); err != nil {
		return nil, err
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, created)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &t, nil
}
