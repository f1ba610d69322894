package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"langsync/internal/domain"
)

type LanguageRepo struct{ *Repo }

func NewLanguageRepo(db *sql.DB) *LanguageRepo { return &LanguageRepo{NewRepo(db)} }

const languageCols = "id, code, name, plural, direction"

// Seed inserts the given languages, skipping codes already present, and
// backfills the IDs of the passed entries either way.
func (r *LanguageRepo) Seed(ctx context.Context, langs []*domain.Language) error {
	err := WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		existing := map[string]bool{}
		sqlStr, args, _ := r.SQ.Select("code").From("languages").ToSql()
		rows, err := tx.QueryContext(ctx, sqlStr, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var code string
			if err := rows.Scan(&code); err != nil {
				return err
			}
			existing[code] = true
		}
		if err := rows.Err(); err != nil {
			return err
		}
		for _, l := range langs {
			if existing[l.Code] {
				continue
			}
			q := r.SQ.Insert("languages").Columns("code", "name", "plural", "direction").
				Values(l.Code, l.Name, l.Plural, l.Direction)
			sqlStr, args, _ := q.ToSql()
			if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
				return fmt.Errorf("seed language %s: %w", l.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, l := range langs {
		got, err := r.GetByCode(ctx, l.Code)
		if err != nil {
			return err
		}
		if got != nil {
			l.ID = got.ID
		}
	}
	return nil
}

func (r *LanguageRepo) List(ctx context.Context) ([]*domain.Language, error) {
	q := r.SQ.Select(languageCols).From("languages").OrderBy("code")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Language
	for rows.Next() {
		var l domain.Language
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.Plural, &l.Direction); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *LanguageRepo) GetByCode(ctx context.Context, code string) (*domain.Language, error) {
	q := r.SQ.Select(languageCols).From("languages").Where(sq.Eq{"code": code}).Limit(1)
	sqlStr, args, _ := q.ToSql()
	var l domain.Language
	err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&l.ID, &l.Code, &l.Name, &l.Plural, &l.Direction)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}
