// Package jobs runs rescans in the background and tracks them as
// persisted job records that survive a restart.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"langsync/internal/domain"
	"langsync/internal/ports"
	"langsync/internal/usecase/reconcile"
)

type Deps struct {
	Jobs       ports.JobRepository
	Components ports.ComponentRepository
}

type Runner struct {
	d      Deps
	rec    *reconcile.Service
	mu     sync.Mutex
	active map[int64]context.CancelFunc
	em     ports.EventEmitter
}

func NewRunner(d Deps, rec *reconcile.Service) *Runner {
	return &Runner{d: d, rec: rec, active: map[int64]context.CancelFunc{}}
}

func (r *Runner) SetEmitter(em ports.EventEmitter) { r.em = em }

type ReconcileParams struct {
	ComponentID int64 `json:"component_id"`
}

// componentResult is one component's slice of a reconcile_all result.
type componentResult struct {
	Component string `json:"component"`
	Created   int    `json:"created"`
	Removed   int    `json:"removed"`
	Unchanged int    `json:"unchanged"`
	Skipped   int    `json:"skipped"`
	Conflicts int    `json:"conflicts"`
	Error     string `json:"error,omitempty"`
}

// StartReconcile queues a background rescan of one component and returns
// the job record to poll.
func (r *Runner) StartReconcile(ctx context.Context, componentID int64) (*domain.Job, error) {
	c, err := r.d.Components.GetByID(ctx, componentID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("component %d: %w", componentID, reconcile.ErrComponentNotFound)
	}
	paramsJSON, _ := json.Marshal(ReconcileParams{ComponentID: componentID})
	job := &domain.Job{
		PublicID:    uuid.NewString(),
		Type:        "reconcile",
		Status:      "queued",
		ComponentID: &componentID,
		ParamsRaw:   string(paramsJSON),
		Total:       1,
	}
	if _, err := r.d.Jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	r.emit("job.started", map[string]any{"job_id": job.PublicID, "type": job.Type, "component_id": componentID})
	r.log(context.Background(), job.ID, "info", fmt.Sprintf("job started: component=%s", c.Slug))

	// Jobs outlive the request they were started from.
	cctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.active[job.ID] = cancel
	r.mu.Unlock()
	go r.runReconcile(cctx, job, componentID)
	return job, nil
}

func (r *Runner) runReconcile(ctx context.Context, job *domain.Job, componentID int64) {
	defer r.release(job.ID)
	r.setStatus(ctx, job, "running")

	report, err := r.rec.Reconcile(ctx, componentID)
	if err != nil {
		r.fail(ctx, job, err)
		return
	}
	resultJSON, _ := json.Marshal(report)
	job.Status = "done"
	job.ResultRaw = string(resultJSON)
	job.Progress = 1
	_ = r.d.Jobs.Update(ctx, job)
	r.log(ctx, job.ID, "info", fmt.Sprintf("rescan finished: created=%d removed=%d unchanged=%d skipped=%d conflicts=%d",
		len(report.Created), len(report.Removed), report.Unchanged, len(report.Skipped), len(report.Conflicts)))
	r.emit("job.finished", map[string]any{"job_id": job.PublicID, "status": job.Status})
}

// StartReconcileAll queues a rescan over every component, continuing past
// per-component failures.
func (r *Runner) StartReconcileAll(ctx context.Context) (*domain.Job, error) {
	comps, err := r.d.Components.List(ctx)
	if err != nil {
		return nil, err
	}
	job := &domain.Job{
		PublicID:  uuid.NewString(),
		Type:      "reconcile_all",
		Status:    "queued",
		ParamsRaw: "{}",
		Total:     len(comps),
	}
	if _, err := r.d.Jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	r.emit("job.started", map[string]any{"job_id": job.PublicID, "type": job.Type, "total": len(comps)})
	r.log(context.Background(), job.ID, "info", fmt.Sprintf("job started: components=%d", len(comps)))

	cctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.active[job.ID] = cancel
	r.mu.Unlock()
	go r.runReconcileAll(cctx, job, comps)
	return job, nil
}

func (r *Runner) runReconcileAll(ctx context.Context, job *domain.Job, comps []*domain.Component) {
	defer r.release(job.ID)
	r.setStatus(ctx, job, "running")

	results := make([]componentResult, 0, len(comps))
	for _, c := range comps {
		select {
		case <-ctx.Done():
			job.Status = "canceled"
			_ = r.d.Jobs.Update(context.Background(), job)
			r.emit("job.finished", map[string]any{"job_id": job.PublicID, "status": job.Status})
			return
		default:
		}
		res := componentResult{Component: c.Slug}
		report, err := r.rec.Reconcile(ctx, c.ID)
		if err != nil {
			res.Error = err.Error()
			r.log(ctx, job.ID, "error", fmt.Sprintf("%s: %v", c.Slug, err))
		} else {
			res.Created = len(report.Created)
			res.Removed = len(report.Removed)
			res.Unchanged = report.Unchanged
			res.Skipped = len(report.Skipped)
			res.Conflicts = len(report.Conflicts)
			r.log(ctx, job.ID, "info", fmt.Sprintf("%s: created=%d removed=%d unchanged=%d", c.Slug, res.Created, res.Removed, res.Unchanged))
		}
		results = append(results, res)
		job.Progress++
		_ = r.d.Jobs.Update(ctx, job)
		r.emit("job.progress", map[string]any{"job_id": job.PublicID, "done": job.Progress, "total": job.Total})
	}
	resultJSON, _ := json.Marshal(results)
	job.Status = "done"
	job.ResultRaw = string(resultJSON)
	_ = r.d.Jobs.Update(ctx, job)
	r.emit("job.finished", map[string]any{"job_id": job.PublicID, "status": job.Status})
}

// Cancel stops a running job. It reports false when the job is not
// active, including jobs that already finished.
func (r *Runner) Cancel(jobID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.active[jobID]; ok {
		cancel()
		delete(r.active, jobID)
		return true
	}
	return false
}

func (r *Runner) fail(ctx context.Context, job *domain.Job, err error) {
	if errors.Is(err, context.Canceled) {
		job.Status = "canceled"
	} else {
		job.Status = "failed"
		job.Error = err.Error()
		r.log(ctx, job.ID, "error", err.Error())
	}
	_ = r.d.Jobs.Update(context.Background(), job)
	r.emit("job.finished", map[string]any{"job_id": job.PublicID, "status": job.Status, "error": job.Error})
}

func (r *Runner) setStatus(ctx context.Context, job *domain.Job, status string) {
	job.Status = status
	_ = r.d.Jobs.Update(ctx, job)
	r.emit("job.progress", map[string]any{"job_id": job.PublicID, "done": job.Progress, "total": job.Total, "status": status})
}

func (r *Runner) release(id int64) {
	r.mu.Lock()
	delete(r.active, id)
	r.mu.Unlock()
}

func (r *Runner) log(ctx context.Context, jobID int64, level, message string) {
	_ = r.d.Jobs.AppendLog(ctx, jobID, level, message)
	r.emit("job.log", map[string]any{"job_id": jobID, "level": level, "message": message, "ts": time.Now().UTC().Format(time.RFC3339)})
}

func (r *Runner) emit(name string, payload any) {
	if r.em != nil {
		r.em.Emit(name, payload)
	}
}
