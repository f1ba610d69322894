package sqldb

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"langsync/internal/domain"
)

type JobRepo struct{ *Repo }

func NewJobRepo(db *sql.DB) *JobRepo { return &JobRepo{NewRepo(db)} }

const jobCols = "id, public_id, type, status, component_id, params_json, result_json, error, progress, total, created_at, updated_at"

func (r *JobRepo) Create(ctx context.Context, j *domain.Job) (int64, error) {
	now := time.Now().UTC()
	q := r.SQ.Insert("jobs").
		Columns("public_id", "type", "status", "component_id", "params_json", "result_json", "error", "progress", "total", "created_at", "updated_at").
		Values(j.PublicID, j.Type, j.Status, j.ComponentID, j.ParamsRaw, j.ResultRaw, j.Error, j.Progress, j.Total, now.Format(time.RFC3339), now.Format(time.RFC3339))
	sqlStr, args, _ := q.ToSql()
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	j.ID = id
	j.CreatedAt = now
	j.UpdatedAt = now
	return id, nil
}

func (r *JobRepo) Update(ctx context.Context, j *domain.Job) error {
	now := time.Now().UTC()
	q := r.SQ.Update("jobs").
		Set("status", j.Status).
		Set("result_json", j.ResultRaw).
		Set("error", j.Error).
		Set("progress", j.Progress).
		Set("total", j.Total).
		Set("updated_at", now.Format(time.RFC3339)).
		Where(sq.Eq{"id": j.ID})
	sqlStr, args, _ := q.ToSql()
	if _, err := r.DB.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	j.UpdatedAt = now
	return nil
}

func (r *JobRepo) GetByPublicID(ctx context.Context, publicID string) (*domain.Job, error) {
	q := r.SQ.Select(jobCols).From("jobs").Where(sq.Eq{"public_id": publicID}).Limit(1)
	sqlStr, args, _ := q.ToSql()
	j, err := scanJob(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

func (r *JobRepo) List(ctx context.Context, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.SQ.Select(jobCols).From("jobs").OrderBy("id DESC").Limit(uint64(limit))
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *JobRepo) AppendLog(ctx context.Context, jobID int64, level, message string) error {
	q := r.SQ.Insert("job_logs").Columns("job_id", "ts", "level", "message").
		Values(jobID, time.Now().UTC().Format(time.RFC3339), level, message)
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *JobRepo) Logs(ctx context.Context, jobID int64) ([]*domain.JobLog, error) {
	q := r.SQ.Select("id, job_id, ts, level, message").From("job_logs").
		Where(sq.Eq{"job_id": jobID}).OrderBy("id")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.JobLog
	for rows.Next() {
		var l domain.JobLog
		var ts string
		if err := rows.Scan(&l.ID, &l.JobID, &ts, &l.Level, &l.Message); err != nil {
			return nil, err
		}
		l.Time, _ = time.Parse(time.RFC3339, ts)
		out = append(out, &l)
	}
	return out, rows.Err()
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var j domain.Job
	var comp sql.NullInt64
	var created, updated string
	if err := row.Scan(&j.ID, &j.PublicID, &j.Type, &j.Status, &comp, &j.ParamsRaw, &j.ResultRaw, &j.Error, &j.Progress, &j.Total, &created, &updated); err != nil {
		return nil, err
	}
	if comp.Valid {
		v := comp.Int64
		j.ComponentID = &v
	}
	j.CreatedAt, _ = time.Parse(time.RFC3339, created)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &j, nil
}
