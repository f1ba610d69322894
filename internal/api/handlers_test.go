package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"langsync/internal/adapters/db/sqldb"
	"langsync/internal/adapters/format/androidres"
	"langsync/internal/adapters/format/gettext"
	"langsync/internal/adapters/format/jsonflat"
	"langsync/internal/adapters/format/registry"
	"langsync/internal/adapters/notify"
	"langsync/internal/adapters/perm/rbac"
	"langsync/internal/adapters/vcs/localdir"
	"langsync/internal/domain"
	"langsync/internal/lang"
	"langsync/internal/usecase/admission"
	"langsync/internal/usecase/jobs"
	"langsync/internal/usecase/reconcile"
)

type testEnv struct {
	srv        *httptest.Server
	projects   *sqldb.ProjectRepo
	components *sqldb.ComponentRepo
	root       string
	project    *domain.Project
}

// newTestEnv wires the full stack against sqlite in memory and a temp
// checkout root, then serves it over a real listener. Users known to
// the grants: nika translates on website, lena administers it, root is
// a configured superuser.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqldb.Init("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	data, err := lang.Builtin()
	if err != nil {
		t.Fatalf("load languages: %v", err)
	}
	langRepo := sqldb.NewLanguageRepo(db)
	if err := langRepo.Seed(ctx, data.Languages); err != nil {
		t.Fatalf("seed languages: %v", err)
	}
	catalog := lang.NewCatalog(data.Languages, data.Aliases, data.DefaultRegions)
	resolver := lang.NewResolver(data.Tables())

	formats := registry.New()
	formats.Register(jsonflat.New())
	formats.Register(gettext.New())
	formats.Register(androidres.New())

	root := t.TempDir()
	tree, err := localdir.New(root)
	if err != nil {
		t.Fatalf("open tree: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	projects := sqldb.NewProjectRepo(db)
	components := sqldb.NewComponentRepo(db)
	translations := sqldb.NewTranslationRepo(db)
	jobsRepo := sqldb.NewJobRepo(db)

	hub := NewHub(log)
	notifier := notify.NewLogNotifier(log)

	rec := reconcile.NewService(reconcile.Deps{
		Log:          log,
		Projects:     projects,
		Components:   components,
		Translations: translations,
		Catalog:      catalog,
		Resolver:     resolver,
		Formats:      formats,
		Tree:         tree,
		Notifier:     notifier,
		Emitter:      hub,
	})
	perms := rbac.New(rbac.Grants{
		Admins:      map[string][]string{"website": {"lena"}},
		Translators: map[string][]string{"website": {"nika"}},
	})
	adm := admission.NewService(admission.Deps{
		Log:        log,
		Perms:      perms,
		Catalog:    catalog,
		Reconciler: rec,
		Notifier:   notifier,
		Emitter:    hub,
	})
	runner := jobs.NewRunner(jobs.Deps{Jobs: jobsRepo, Components: components}, rec)
	runner.SetEmitter(hub)

	handler := NewHandler(HandlerDeps{
		Log:          log,
		Projects:     projects,
		Components:   components,
		Translations: translations,
		Jobs:         jobsRepo,
		Catalog:      catalog,
		Resolver:     resolver,
		Formats:      formats,
		Reconciler:   rec,
		Admissions:   adm,
		Runner:       runner,
	})
	server := NewServer(Config{Addr: "127.0.0.1:0", Superusers: []string{"root"}}, handler, hub, log)
	srv := httptest.NewServer(server.httpServer.Handler)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)

	project := &domain.Project{Slug: "website", Name: "Website", Instructions: "https://translate.example.com/start"}
	if _, err := projects.Create(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}

	return &testEnv{srv: srv, projects: projects, components: components, root: root, project: project}
}

// addComponent seeds a json component with its checkout directory in
// place, bypassing the API so handler tests start from a known state.
func (e *testEnv) addComponent(t *testing.T, slug string, mutate func(*domain.Component)) *domain.Component {
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
	if mutate != nil {
		mutate(c)
	}
	if _, err := e.components.Create(context.Background(), c); err != nil {
		t.Fatalf("create component: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(e.root, c.RepoPath), 0o755); err != nil {
		t.Fatalf("make checkout: %v", err)
	}
	return c
}

func (e *testEnv) writeFile(t *testing.T, rel, body string) {
	t.Helper()
	full := filepath.Join(e.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, actor string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if actor != "" {
		req.Header.Set("X-Actor", actor)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func wantStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, want, body)
	}
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/healthz", nil, "")
	wantStatus(t, resp, http.StatusOK)
	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["status"] != "ok" {
		t.Fatalf("status = %q, want ok", body["status"])
	}
}

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/projects", map[string]string{"slug": "docs"}, "")
	wantStatus(t, resp, http.StatusCreated)
	var created domain.Project
	decodeJSON(t, resp, &created)
	if created.ID == 0 || created.Name != "docs" {
		t.Fatalf("created = %+v", created)
	}

	resp = env.do(t, http.MethodPost, "/api/v1/projects", map[string]string{"slug": "docs"}, "")
	wantStatus(t, resp, http.StatusConflict)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/v1/projects", map[string]string{"slug": "Bad Slug"}, "")
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/v1/projects", nil, "")
	wantStatus(t, resp, http.StatusOK)
	var list struct {
		Projects []*domain.Project `json:"projects"`
	}
	decodeJSON(t, resp, &list)
	if len(list.Projects) != 2 {
		t.Fatalf("projects = %d, want 2", len(list.Projects))
	}

	resp = env.do(t, http.MethodDelete, "/api/v1/projects/docs", nil, "")
	wantStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/v1/projects/docs", nil, "")
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestComponentCreateAndValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{
			name:   "valid",
			body:   map[string]string{"slug": "app", "file_mask": "locales/*.json", "format": "json"},
			status: http.StatusCreated,
		},
		{
			name:   "duplicate",
			body:   map[string]string{"slug": "app", "file_mask": "locales/*.json", "format": "json"},
			status: http.StatusConflict,
		},
		{
			name:   "mask without star",
			body:   map[string]string{"slug": "x1", "file_mask": "locales/cs.json", "format": "json"},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown format",
			body:   map[string]string{"slug": "x2", "file_mask": "locales/*.json", "format": "qt"},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown new_lang mode",
			body:   map[string]string{"slug": "x3", "file_mask": "locales/*.json", "format": "json", "new_lang": "vote"},
			status: http.StatusBadRequest,
		},
		{
			name:   "broken language_regex",
			body:   map[string]string{"slug": "x4", "file_mask": "locales/*.json", "format": "json", "language_regex": "("},
			status: http.StatusBadRequest,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/v1/projects/website/components", tc.body, "")
			wantStatus(t, resp, tc.status)
			resp.Body.Close()
		})
	}

	resp := env.do(t, http.MethodGet, "/api/v1/components/website/app", nil, "")
	wantStatus(t, resp, http.StatusOK)
	var detail struct {
		Component *domain.Component `json:"component"`
	}
	decodeJSON(t, resp, &detail)
	if detail.Component.RepoPath != "website/app" {
		t.Fatalf("repo_path = %q, want website/app", detail.Component.RepoPath)
	}
	if detail.Component.NewLang != domain.NewLangAdd {
		t.Fatalf("new_lang = %q, want add", detail.Component.NewLang)
	}
}

func TestAdmitEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.addComponent(t, "app", nil)

	resp := env.do(t, http.MethodPost, "/api/v1/components/website/app/languages",
		map[string]any{"langs": []string{"cs", "xx"}}, "nika")
	wantStatus(t, resp, http.StatusOK)
	var body struct {
		Decisions []domain.Decision `json:"decisions"`
	}
	decodeJSON(t, resp, &body)
	if len(body.Decisions) != 2 {
		t.Fatalf("decisions = %d, want 2", len(body.Decisions))
	}
	if body.Decisions[0].Verdict != domain.VerdictApproved {
		t.Fatalf("cs verdict = %q, want approved", body.Decisions[0].Verdict)
	}
	if body.Decisions[1].Reason != domain.ReasonUnknownLanguage {
		t.Fatalf("xx reason = %q, want unknown_language", body.Decisions[1].Reason)
	}
	if _, err := os.Stat(filepath.Join(env.root, "app", "locales", "cs.json")); err != nil {
		t.Fatalf("expected cs.json on disk: %v", err)
	}
}

func TestAdmitAnonymousDenied(t *testing.T) {
	env := newTestEnv(t)
	env.addComponent(t, "app", nil)

	resp := env.do(t, http.MethodPost, "/api/v1/components/website/app/languages",
		map[string]any{"langs": []string{"cs"}}, "")
	wantStatus(t, resp, http.StatusOK)
	var body struct {
		Decisions []domain.Decision `json:"decisions"`
	}
	decodeJSON(t, resp, &body)
	if body.Decisions[0].Reason != domain.ReasonNoPermission {
		t.Fatalf("reason = %q, want no_permission", body.Decisions[0].Reason)
	}
}

func TestAdmitConfiguredSuperuser(t *testing.T) {
	env := newTestEnv(t)
	env.addComponent(t, "app", func(c *domain.Component) { c.NewLang = domain.NewLangNone })

	// root is listed in the server superusers, no header needed.
	resp := env.do(t, http.MethodPost, "/api/v1/components/website/app/languages",
		map[string]any{"langs": []string{"de"}}, "root")
	wantStatus(t, resp, http.StatusOK)
	var body struct {
		Decisions []domain.Decision `json:"decisions"`
	}
	decodeJSON(t, resp, &body)
	if body.Decisions[0].Verdict != domain.VerdictApproved {
		t.Fatalf("verdict = %q, want approved", body.Decisions[0].Verdict)
	}
}

func TestAdmitSuperuserHeader(t *testing.T) {
	env := newTestEnv(t)
	env.addComponent(t, "app", func(c *domain.Component) { c.NewLang = domain.NewLangNone })

	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/api/v1/components/website/app/languages",
		strings.NewReader(`{"langs": ["de"]}`))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("X-Actor", "drifter")
	req.Header.Set("X-Superuser", "1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	wantStatus(t, resp, http.StatusOK)
	var body struct {
		Decisions []domain.Decision `json:"decisions"`
	}
	decodeJSON(t, resp, &body)
	if body.Decisions[0].Verdict != domain.VerdictApproved {
		t.Fatalf("verdict = %q, want approved", body.Decisions[0].Verdict)
	}
}

func TestReconcileSync(t *testing.T) {
	env := newTestEnv(t)
	env.addComponent(t, "app", nil)
	env.writeFile(t, "app/locales/cs.json", `{"hello": "ahoj"}`)
	env.writeFile(t, "app/locales/de.json", `{"hello": "hallo"}`)

	resp := env.do(t, http.MethodPost, "/api/v1/components/website/app/reconcile", nil, "")
	wantStatus(t, resp, http.StatusOK)
	var report domain.ReconcileReport
	decodeJSON(t, resp, &report)
	if len(report.Created) != 2 {
		t.Fatalf("created = %d, want 2", len(report.Created))
	}

	resp = env.do(t, http.MethodGet, "/api/v1/components/website/app/translations", nil, "")
	wantStatus(t, resp, http.StatusOK)
	var list struct {
		Translations []*domain.Translation `json:"translations"`
	}
	decodeJSON(t, resp, &list)
	if len(list.Translations) != 2 {
		t.Fatalf("translations = %d, want 2", len(list.Translations))
	}
}

func TestReconcileMissingCheckout(t *testing.T) {
	env := newTestEnv(t)
	c := env.addComponent(t, "app", nil)
	if err := os.RemoveAll(filepath.Join(env.root, c.RepoPath)); err != nil {
		t.Fatalf("remove checkout: %v", err)
	}

	resp := env.do(t, http.MethodPost, "/api/v1/components/website/app/reconcile", nil, "")
	wantStatus(t, resp, http.StatusServiceUnavailable)
	resp.Body.Close()
}

func TestReconcileAsyncAndJobRoutes(t *testing.T) {
	env := newTestEnv(t)
	env.addComponent(t, "app", nil)
	env.writeFile(t, "app/locales/cs.json", `{"hello": "ahoj"}`)

	resp := env.do(t, http.MethodPost, "/api/v1/components/website/app/reconcile?async=1", nil, "")
	wantStatus(t, resp, http.StatusAccepted)
	var job domain.Job
	decodeJSON(t, resp, &job)
	if job.PublicID == "" {
		t.Fatal("expected a job id")
	}

	final := env.waitJob(t, job.PublicID)
	if final.Status != "done" {
		t.Fatalf("status = %q, want done (error %q)", final.Status, final.Error)
	}
	var report domain.ReconcileReport
	if err := json.Unmarshal([]byte(final.ResultRaw), &report); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(report.Created) != 1 {
		t.Fatalf("created = %d, want 1", len(report.Created))
	}

	resp = env.do(t, http.MethodGet, "/api/v1/jobs/"+job.PublicID+"/logs", nil, "")
	wantStatus(t, resp, http.StatusOK)
	var logs struct {
		Logs []*domain.JobLog `json:"logs"`
	}
	decodeJSON(t, resp, &logs)
	if len(logs.Logs) == 0 {
		t.Fatal("expected job logs")
	}

	resp = env.do(t, http.MethodGet, "/api/v1/jobs", nil, "")
	wantStatus(t, resp, http.StatusOK)
	var jobsList struct {
		Jobs []*domain.Job `json:"jobs"`
	}
	decodeJSON(t, resp, &jobsList)
	if len(jobsList.Jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobsList.Jobs))
	}
}

func (e *testEnv) waitJob(t *testing.T, publicID string) *domain.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp := e.do(t, http.MethodGet, "/api/v1/jobs/"+publicID, nil, "")
		wantStatus(t, resp, http.StatusOK)
		var j domain.Job
		decodeJSON(t, resp, &j)
		if jobTerminal(j.Status) {
			return &j
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", publicID)
	return nil
}

func TestJobEventsStream(t *testing.T) {
	env := newTestEnv(t)
	env.addComponent(t, "app", nil)
	env.writeFile(t, "app/locales/cs.json", `{}`)

	resp := env.do(t, http.MethodPost, "/api/v1/components/website/app/reconcile?async=1", nil, "")
	wantStatus(t, resp, http.StatusAccepted)
	var job domain.Job
	decodeJSON(t, resp, &job)
	env.waitJob(t, job.PublicID)

	// The job is terminal, so the stream sends one frame and closes.
	resp = env.do(t, http.MethodGet, "/api/v1/jobs/"+job.PublicID+"/events", nil, "")
	wantStatus(t, resp, http.StatusOK)
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	var frames []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
			frames = append(frames, strings.TrimPrefix(line, "data: "))
		}
	}
	if len(frames) == 0 {
		t.Fatal("expected at least one SSE frame")
	}
	var last domain.Job
	if err := json.Unmarshal([]byte(frames[len(frames)-1]), &last); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if !jobTerminal(last.Status) {
		t.Fatalf("last frame status = %q, want terminal", last.Status)
	}
}

func TestResolveLanguage(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/languages/resolve?code=czech&style=posix_long", nil, "")
	wantStatus(t, resp, http.StatusOK)
	var body struct {
		Language *domain.Language `json:"language"`
		FileCode string           `json:"file_code"`
	}
	decodeJSON(t, resp, &body)
	if body.Language.Code != "cs" || body.FileCode != "cs_CZ" {
		t.Fatalf("resolved %s/%s, want cs/cs_CZ", body.Language.Code, body.FileCode)
	}

	resp = env.do(t, http.MethodGet, "/api/v1/languages/resolve?code=xx", nil, "")
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/v1/languages/resolve?code=cs&style=camel", nil, "")
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestRemoveTranslationEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.addComponent(t, "app", nil)
	env.writeFile(t, "app/locales/cs.json", `{}`)
	env.writeFile(t, "app/locales/de.json", `{}`)
	resp := env.do(t, http.MethodPost, "/api/v1/components/website/app/reconcile", nil, "")
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.do(t, http.MethodDelete, "/api/v1/components/website/app/translations/cs", nil, "lena")
	wantStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()
	if _, err := os.Stat(filepath.Join(env.root, "app", "locales", "cs.json")); !os.IsNotExist(err) {
		t.Fatalf("cs.json should be gone, stat err %v", err)
	}

	resp = env.do(t, http.MethodDelete, "/api/v1/components/website/app/translations/de?keep_file=1", nil, "lena")
	wantStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()
	if _, err := os.Stat(filepath.Join(env.root, "app", "locales", "de.json")); err != nil {
		t.Fatalf("de.json should stay: %v", err)
	}

	resp = env.do(t, http.MethodDelete, "/api/v1/components/website/app/translations/fr", nil, "lena")
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestWebsocketEvents(t *testing.T) {
	env := newTestEnv(t)
	env.addComponent(t, "app", nil)

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/api/v1/events"
	conn, wsResp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	if wsResp != nil && wsResp.Body != nil {
		wsResp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	resp := env.do(t, http.MethodPost, "/api/v1/components/website/app/languages",
		map[string]any{"langs": []string{"cs"}}, "nika")
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var frame struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Event != domain.EventLanguageAdded {
		t.Fatalf("event = %q, want %s", frame.Event, domain.EventLanguageAdded)
	}
}

func TestUnknownRouteAndMethods(t *testing.T) {
	env := newTestEnv(t)
	env.addComponent(t, "app", nil)

	resp := env.do(t, http.MethodGet, "/api/v1/nope", nil, "")
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	resp = env.do(t, http.MethodDelete, "/api/v1/components/website/app/reconcile", nil, "")
	wantStatus(t, resp, http.StatusMethodNotAllowed)
	resp.Body.Close()

	resp = env.do(t, http.MethodPut, "/api/v1/jobs", nil, "")
	wantStatus(t, resp, http.StatusMethodNotAllowed)
	resp.Body.Close()
}
