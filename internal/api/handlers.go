package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"langsync/internal/adapters/format/registry"
	"langsync/internal/domain"
	"langsync/internal/lang"
	"langsync/internal/ports"
	"langsync/internal/usecase/admission"
	"langsync/internal/usecase/jobs"
	"langsync/internal/usecase/reconcile"
)

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)

type HandlerDeps struct {
	Log          *logrus.Logger
	Projects     ports.ProjectRepository
	Components   ports.ComponentRepository
	Translations ports.TranslationRepository
	Jobs         ports.JobRepository
	Catalog      *lang.Catalog
	Resolver     *lang.Resolver
	Formats      *registry.Registry
	Reconciler   *reconcile.Service
	Admissions   *admission.Service
	Runner       *jobs.Runner
}

// Handler routes every /api/v1 request except the websocket event hub.
type Handler struct {
	d HandlerDeps
}

func NewHandler(d HandlerDeps) *Handler {
	return &Handler{d: d}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := strings.TrimPrefix(r.URL.Path, "/api/v1")
	p = strings.Trim(p, "/")

	switch {
	case p == "languages":
		h.handleLanguages(w, r)
	case p == "languages/resolve":
		h.handleResolveLanguage(w, r)
	case p == "formats":
		h.handleFormats(w, r)
	case p == "projects":
		h.handleProjects(w, r)
	case strings.HasPrefix(p, "projects/"):
		h.handleProjectSubtree(w, r, strings.TrimPrefix(p, "projects/"))
	case strings.HasPrefix(p, "components/"):
		h.handleComponentSubtree(w, r, strings.TrimPrefix(p, "components/"))
	case p == "jobs":
		h.handleJobs(w, r)
	case strings.HasPrefix(p, "jobs/"):
		h.handleJobSubtree(w, r, strings.TrimPrefix(p, "jobs/"))
	case p == "reconcile":
		h.handleReconcileAll(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"languages": h.d.Catalog.Languages()})
}

// handleResolveLanguage maps an arbitrary incoming code to a known
// language and the file code a given style would produce for it.
func (h *Handler) handleResolveLanguage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing code parameter")
		return
	}
	style, ok := domain.ParseCodeStyle(r.URL.Query().Get("style"))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown code style %q", r.URL.Query().Get("style")))
		return
	}
	lng, ok := h.d.Catalog.Normalize(code)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no language matches %q", code))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"code":      code,
		"language":  lng,
		"file_code": h.d.Resolver.Resolve(lng.Code, style),
	})
}

func (h *Handler) handleFormats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"formats": h.d.Formats.Formats()})
}

func (h *Handler) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		projects, err := h.d.Projects.List(r.Context())
		if err != nil {
			h.serverError(w, "list projects", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
	case http.MethodPost:
		var req struct {
			Slug         string `json:"slug"`
			Name         string `json:"name"`
			Instructions string `json:"instructions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !slugRe.MatchString(req.Slug) {
			writeError(w, http.StatusBadRequest, "invalid project slug")
			return
		}
		if req.Name == "" {
			req.Name = req.Slug
		}
		existing, err := h.d.Projects.GetBySlug(r.Context(), req.Slug)
		if err != nil {
			h.serverError(w, "load project", err)
			return
		}
		if existing != nil {
			writeError(w, http.StatusConflict, fmt.Sprintf("project %q already exists", req.Slug))
			return
		}
		project := &domain.Project{Slug: req.Slug, Name: req.Name, Instructions: req.Instructions}
		if _, err := h.d.Projects.Create(r.Context(), project); err != nil {
			h.serverError(w, "create project", err)
			return
		}
		writeJSON(w, http.StatusCreated, project)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleProjectSubtree(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.SplitN(rest, "/", 2)
	project, ok := h.loadProject(w, r, parts[0])
	if !ok {
		return
	}
	if len(parts) == 1 {
		h.handleProject(w, r, project)
		return
	}
	if parts[1] == "components" {
		h.handleProjectComponents(w, r, project)
		return
	}
	writeError(w, http.StatusNotFound, "not found")
}

func (h *Handler) handleProject(w http.ResponseWriter, r *http.Request, project *domain.Project) {
	switch r.Method {
	case http.MethodGet:
		components, err := h.d.Components.ListByProject(r.Context(), project.ID)
		if err != nil {
			h.serverError(w, "list components", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"project": project, "components": components})
	case http.MethodPut:
		var req struct {
			Name         string `json:"name"`
			Instructions string `json:"instructions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Name != "" {
			project.Name = req.Name
		}
		project.Instructions = req.Instructions
		if err := h.d.Projects.Update(r.Context(), project); err != nil {
			h.serverError(w, "update project", err)
			return
		}
		writeJSON(w, http.StatusOK, project)
	case http.MethodDelete:
		// Components and translations go with the project via FK cascade.
		if err := h.d.Projects.Delete(r.Context(), project.ID); err != nil {
			h.serverError(w, "delete project", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleProjectComponents(w http.ResponseWriter, r *http.Request, project *domain.Project) {
	switch r.Method {
	case http.MethodGet:
		components, err := h.d.Components.ListByProject(r.Context(), project.ID)
		if err != nil {
			h.serverError(w, "list components", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"components": components})
	case http.MethodPost:
		var req componentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		c := req.component(project)
		if msg := h.validateComponent(c); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		existing, err := h.d.Components.GetBySlug(r.Context(), project.ID, c.Slug)
		if err != nil {
			h.serverError(w, "load component", err)
			return
		}
		if existing != nil {
			writeError(w, http.StatusConflict, fmt.Sprintf("component %q already exists", c.Slug))
			return
		}
		if _, err := h.d.Components.Create(r.Context(), c); err != nil {
			h.serverError(w, "create component", err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type componentRequest struct {
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	RepoPath      string `json:"repo_path"`
	FileMask      string `json:"file_mask"`
	Template      string `json:"template"`
	NewBase       string `json:"new_base"`
	Format        string `json:"format"`
	NewLang       string `json:"new_lang"`
	CodeStyle     string `json:"code_style"`
	LanguageRegex string `json:"language_regex"`
}

func (req componentRequest) component(project *domain.Project) *domain.Component {
	name := req.Name
	if name == "" {
		name = req.Slug
	}
	repoPath := req.RepoPath
	if repoPath == "" {
		repoPath = path.Join(project.Slug, req.Slug)
	}
	newLang := req.NewLang
	if newLang == "" {
		newLang = string(domain.NewLangAdd)
	}
	return &domain.Component{
		ProjectID:     project.ID,
		Slug:          req.Slug,
		Name:          name,
		RepoPath:      repoPath,
		FileMask:      req.FileMask,
		Template:      req.Template,
		NewBase:       req.NewBase,
		Format:        req.Format,
		NewLang:       domain.NewLangMode(newLang),
		CodeStyle:     domain.CodeStyle(req.CodeStyle),
		LanguageRegex: req.LanguageRegex,
	}
}

// validateComponent returns a problem description, empty when c is fine.
func (h *Handler) validateComponent(c *domain.Component) string {
	if !slugRe.MatchString(c.Slug) {
		return "invalid component slug"
	}
	if _, _, err := reconcile.SplitMask(c.FileMask); err != nil {
		return fmt.Sprintf("invalid file_mask: %v", err)
	}
	if _, ok := h.d.Formats.Get(c.Format); !ok {
		return fmt.Sprintf("unknown format %q", c.Format)
	}
	if _, ok := domain.ParseNewLangMode(string(c.NewLang)); !ok {
		return fmt.Sprintf("unknown new_lang mode %q", c.NewLang)
	}
	if _, ok := domain.ParseCodeStyle(string(c.CodeStyle)); !ok {
		return fmt.Sprintf("unknown code_style %q", c.CodeStyle)
	}
	if c.LanguageRegex != "" {
		if _, err := regexp.Compile(c.LanguageRegex); err != nil {
			return fmt.Sprintf("invalid language_regex: %v", err)
		}
	}
	return ""
}

func (h *Handler) handleComponentSubtree(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	project, ok := h.loadProject(w, r, parts[0])
	if !ok {
		return
	}
	component, err := h.d.Components.GetBySlug(r.Context(), project.ID, parts[1])
	if err != nil {
		h.serverError(w, "load component", err)
		return
	}
	if component == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("component %q not found", parts[1]))
		return
	}

	op := ""
	if len(parts) == 3 {
		op = parts[2]
	}
	switch {
	case op == "":
		h.handleComponent(w, r, project, component)
	case op == "languages" && r.Method == http.MethodPost:
		h.handleAdmit(w, r, project, component)
	case op == "reconcile" && r.Method == http.MethodPost:
		h.handleReconcile(w, r, component)
	case op == "translations" && r.Method == http.MethodGet:
		h.handleTranslations(w, r, component)
	case op == "stats" && r.Method == http.MethodGet:
		h.handleStats(w, r, component)
	case strings.HasPrefix(op, "translations/") && r.Method == http.MethodDelete:
		h.handleRemoveTranslation(w, r, component, strings.TrimPrefix(op, "translations/"))
	case op == "languages" || op == "reconcile" || op == "translations" || op == "stats" || strings.HasPrefix(op, "translations/"):
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) handleComponent(w http.ResponseWriter, r *http.Request, project *domain.Project, component *domain.Component) {
	switch r.Method {
	case http.MethodGet:
		translations, err := h.d.Translations.ListByComponent(r.Context(), component.ID)
		if err != nil {
			h.serverError(w, "list translations", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"component": component, "translations": translations})
	case http.MethodPut:
		var req componentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Slug = component.Slug
		updated := req.component(project)
		updated.ID = component.ID
		updated.CreatedAt = component.CreatedAt
		if msg := h.validateComponent(updated); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		if err := h.d.Components.Update(r.Context(), updated); err != nil {
			h.serverError(w, "update component", err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		// Removes the entity and its translations, files stay on disk.
		if err := h.d.Components.Delete(r.Context(), component.ID); err != nil {
			h.serverError(w, "delete component", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleAdmit runs the new-language gate for each requested code. The
// outcome travels per code in the decisions list, so the response is
// 200 even when every single code was turned down.
func (h *Handler) handleAdmit(w http.ResponseWriter, r *http.Request, project *domain.Project, component *domain.Component) {
	var req struct {
		Langs []string `json:"langs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Langs) == 0 {
		writeError(w, http.StatusBadRequest, "no languages requested")
		return
	}
	decisions := h.d.Admissions.AdmitBatch(r.Context(), project, component, req.Langs, requestUser(r))
	writeJSON(w, http.StatusOK, map[string]any{"decisions": decisions})
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request, component *domain.Component) {
	if r.URL.Query().Get("async") == "1" {
		job, err := h.d.Runner.StartReconcile(r.Context(), component.ID)
		if err != nil {
			h.serverError(w, "start rescan", err)
			return
		}
		writeJSON(w, http.StatusAccepted, job)
		return
	}
	report, err := h.d.Reconciler.Reconcile(r.Context(), component.ID)
	if err != nil {
		var accessErr *reconcile.RepositoryAccessError
		if errors.As(err, &accessErr) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.serverError(w, "rescan", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleTranslations(w http.ResponseWriter, r *http.Request, component *domain.Component) {
	translations, err := h.d.Translations.ListByComponent(r.Context(), component.ID)
	if err != nil {
		h.serverError(w, "list translations", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"translations": translations})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request, component *domain.Component) {
	stats, err := h.d.Reconciler.Stats(r.Context(), component.ID)
	if err != nil {
		h.serverError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (h *Handler) handleRemoveTranslation(w http.ResponseWriter, r *http.Request, component *domain.Component, code string) {
	translations, err := h.d.Translations.ListByComponent(r.Context(), component.ID)
	if err != nil {
		h.serverError(w, "list translations", err)
		return
	}
	var target *domain.Translation
	for _, t := range translations {
		if t.LanguageCode == code {
			target = t
			break
		}
	}
	if target == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no translation for code %q", code))
		return
	}
	deleteFile := r.URL.Query().Get("keep_file") != "1"
	if err := h.d.Reconciler.RemoveTranslation(r.Context(), target.ID, deleteFile, requestUser(r).Name); err != nil {
		if errors.Is(err, reconcile.ErrTranslationNotFound) {
			writeError(w, http.StatusNotFound, "translation not found")
			return
		}
		h.serverError(w, "remove translation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	list, err := h.d.Jobs.List(r.Context(), limit)
	if err != nil {
		h.serverError(w, "list jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": list})
}

func (h *Handler) handleJobSubtree(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.SplitN(rest, "/", 2)
	job, err := h.d.Jobs.GetByPublicID(r.Context(), parts[0])
	if err != nil {
		h.serverError(w, "load job", err)
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	op := ""
	if len(parts) == 2 {
		op = parts[1]
	}
	switch {
	case op == "" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, job)
	case op == "logs" && r.Method == http.MethodGet:
		logs, err := h.d.Jobs.Logs(r.Context(), job.ID)
		if err != nil {
			h.serverError(w, "load job logs", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
	case op == "events" && r.Method == http.MethodGet:
		h.handleJobEvents(w, r, job)
	case op == "cancel" && r.Method == http.MethodPost:
		if !h.d.Runner.Cancel(job.ID) {
			writeError(w, http.StatusConflict, "job is not running")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "canceling"})
	case op == "" || op == "logs" || op == "events" || op == "cancel":
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) handleReconcileAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	job, err := h.d.Runner.StartReconcileAll(r.Context())
	if err != nil {
		h.serverError(w, "start rescan", err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (h *Handler) loadProject(w http.ResponseWriter, r *http.Request, slug string) (*domain.Project, bool) {
	project, err := h.d.Projects.GetBySlug(r.Context(), slug)
	if err != nil {
		h.serverError(w, "load project", err)
		return nil, false
	}
	if project == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("project %q not found", slug))
		return nil, false
	}
	return project, true
}

func (h *Handler) serverError(w http.ResponseWriter, action string, err error) {
	h.d.Log.WithError(err).Errorf("%s failed", action)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
