package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"langsync/internal/adapters/db/sqldb"
	"langsync/internal/adapters/format/jsonflat"
	"langsync/internal/adapters/format/registry"
	"langsync/internal/adapters/vcs/localdir"
	"langsync/internal/domain"
	"langsync/internal/lang"
	"langsync/internal/usecase/reconcile"
)

type testEnv struct {
	runner     *Runner
	jobs       *sqldb.JobRepo
	components *sqldb.ComponentRepo
	project    *domain.Project
	root       string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqldb.Init("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	data, err := lang.Builtin()
	if err != nil {
		t.Fatalf("builtin languages: %v", err)
	}
	if err := sqldb.NewLanguageRepo(db).Seed(context.Background(), data.Languages); err != nil {
		t.Fatalf("seed languages: %v", err)
	}

	formats := registry.New()
	formats.Register(jsonflat.New())

	root := t.TempDir()
	tree, err := localdir.New(root)
	if err != nil {
		t.Fatalf("open tree: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	env := &testEnv{
		jobs:       sqldb.NewJobRepo(db),
		components: sqldb.NewComponentRepo(db),
		root:       root,
	}
	projects := sqldb.NewProjectRepo(db)
	env.project = &domain.Project{Slug: "website", Name: "Website"}
	if _, err := projects.Create(context.Background(), env.project); err != nil {
		t.Fatalf("create project: %v", err)
	}

	rec := reconcile.NewService(reconcile.Deps{
		Log:          log,
		Projects:     projects,
		Components:   env.components,
		Translations: sqldb.NewTranslationRepo(db),
		Catalog:      lang.NewCatalog(data.Languages, data.Aliases, data.DefaultRegions),
		Resolver:     lang.NewResolver(data.Tables()),
		Formats:      formats,
		Tree:         tree,
	})
	env.runner = NewRunner(Deps{Jobs: env.jobs, Components: env.components}, rec)
	return env
}

func (e *testEnv) addComponent(t *testing.T, slug string, files map[string]string) *domain.Component {
	t.Helper()
	c := &domain.Component{
		ProjectID: e.project.ID,
		Slug:      slug,
		Name:      slug,
		RepoPath:  slug,
		FileMask:  "locales/*.json",
		Format:    "json",
		NewLang:   domain.NewLangAdd,
	}
	if _, err := e.components.Create(context.Background(), c); err != nil {
		t.Fatalf("create component: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(e.root, c.RepoPath), 0o755); err != nil {
		t.Fatal(err)
	}
	for rel, body := range files {
		path := filepath.Join(e.root, c.RepoPath, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return c
}

func waitForJob(t *testing.T, repo *sqldb.JobRepo, publicID string) *domain.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := repo.GetByPublicID(context.Background(), publicID)
		if err != nil {
			t.Fatalf("poll job: %v", err)
		}
		if j != nil {
			switch j.Status {
			case "done", "failed", "canceled":
				return j
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return nil
}

func TestRunnerReconcileJob(t *testing.T) {
	env := newTestEnv(t)
	c := env.addComponent(t, "app", map[string]string{"locales/cs.json": `{"hello": "ahoj"}`})

	job, err := env.runner.StartReconcile(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if job.PublicID == "" || job.Type != "reconcile" {
		t.Fatalf("job = %+v", job)
	}

	finished := waitForJob(t, env.jobs, job.PublicID)
	if finished.Status != "done" {
		t.Fatalf("status = %s, error = %s", finished.Status, finished.Error)
	}
	var report domain.ReconcileReport
	if err := json.Unmarshal([]byte(finished.ResultRaw), &report); err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(report.Created) != 1 || report.Created[0].LanguageCode != "cs" {
		t.Errorf("report = %+v, want one cs creation", report)
	}

	logs, err := env.jobs.Logs(context.Background(), finished.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) == 0 {
		t.Error("no job logs recorded")
	}
}

func TestRunnerReconcileJobFailure(t *testing.T) {
	env := newTestEnv(t)
	c := env.addComponent(t, "app", nil)
	if err := os.RemoveAll(filepath.Join(env.root, c.RepoPath)); err != nil {
		t.Fatal(err)
	}

	job, err := env.runner.StartReconcile(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	finished := waitForJob(t, env.jobs, job.PublicID)
	if finished.Status != "failed" || finished.Error == "" {
		t.Fatalf("status = %s, error = %q, want failed with message", finished.Status, finished.Error)
	}
}

func TestRunnerReconcileAll(t *testing.T) {
	env := newTestEnv(t)
	env.addComponent(t, "app", map[string]string{"locales/cs.json": `{}`})
	env.addComponent(t, "docs", map[string]string{"locales/de.json": `{}`})

	job, err := env.runner.StartReconcileAll(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	finished := waitForJob(t, env.jobs, job.PublicID)
	if finished.Status != "done" || finished.Progress != 2 {
		t.Fatalf("status = %s progress = %d, want done 2", finished.Status, finished.Progress)
	}
	var results []componentResult
	if err := json.Unmarshal([]byte(finished.ResultRaw), &results); err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	for _, res := range results {
		if res.Created != 1 || res.Error != "" {
			t.Errorf("result %s = %+v, want one creation", res.Component, res)
		}
	}
}

func TestRunnerStartUnknownComponent(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.runner.StartReconcile(context.Background(), 4242)
	if !errors.Is(err, reconcile.ErrComponentNotFound) {
		t.Fatalf("expected ErrComponentNotFound, got %v", err)
	}
}

func TestRunnerCancelUnknownJob(t *testing.T) {
	env := newTestEnv(t)
	if env.runner.Cancel(987) {
		t.Error("Cancel reported true for a job that never ran")
	}
}
