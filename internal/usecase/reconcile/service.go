// Package reconcile aligns a component's translation entities with the
// files present in its working tree, and carries the create and remove
// primitives the admission path builds on.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"langsync/internal/adapters/format/registry"
	"langsync/internal/domain"
	"langsync/internal/lang"
	"langsync/internal/ports"
)

var (
	ErrComponentNotFound   = errors.New("component not found")
	ErrTranslationNotFound = errors.New("translation not found")
	ErrDuplicateLanguage   = errors.New("translation already exists for language")
	ErrUnknownFormat       = errors.New("unknown file format")
)

// InstantiationError reports a failed attempt to write a new translation
// file. The admission path turns it into a decision instead of failing
// the whole batch.
type InstantiationError struct {
	Path string
	Err  error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("instantiate %s: %v", e.Path, e.Err)
}

func (e *InstantiationError) Unwrap() error { return e.Err }

type Deps struct {
	Log          *logrus.Logger
	Projects     ports.ProjectRepository
	Components   ports.ComponentRepository
	Translations ports.TranslationRepository
	Catalog      *lang.Catalog
	Resolver     *lang.Resolver
	Formats      *registry.Registry
	Tree         ports.WorkingTree
	Notifier     ports.Notifier
	Emitter      ports.EventEmitter
}

type Service struct {
	log          *logrus.Logger
	projects     ports.ProjectRepository
	components   ports.ComponentRepository
	translations ports.TranslationRepository
	catalog      *lang.Catalog
	resolver     *lang.Resolver
	formats      *registry.Registry
	tree         ports.WorkingTree
	notifier     ports.Notifier
	emitter      ports.EventEmitter
	locks        *componentLocks
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		log:          log,
		projects:     d.Projects,
		components:   d.Components,
		translations: d.Translations,
		catalog:      d.Catalog,
		resolver:     d.Resolver,
		formats:      d.Formats,
		tree:         d.Tree,
		notifier:     d.Notifier,
		emitter:      d.Emitter,
		locks:        newComponentLocks(),
	}
}

// Reconcile aligns the component's translations with the files on disk:
// new files become translations, translations whose file disappeared are
// removed. Creations and removals are computed from one discovery
// snapshot and applied in one transaction.
func (s *Service) Reconcile(ctx context.Context, componentID int64) (*domain.ReconcileReport, error) {
	unlock := s.locks.lock(componentID)
	defer unlock()

	start := time.Now()
	report, err := s.reconcileLocked(ctx, componentID)
	rescanDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		rescansTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	rescansTotal.WithLabelValues("ok").Inc()
	return report, nil
}

func (s *Service) reconcileLocked(ctx context.Context, componentID int64) (*domain.ReconcileReport, error) {
	c, err := s.components.GetByID(ctx, componentID)
	if err != nil {
		return nil, fmt.Errorf("load component: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("component %d: %w", componentID, ErrComponentNotFound)
	}
	if _, ok := s.formats.Get(c.Format); !ok {
		return nil, fmt.Errorf("component %s: %w: %s", c.Slug, ErrUnknownFormat, c.Format)
	}
	dir, err := s.tree.Dir(c)
	if err != nil {
		return nil, err
	}
	// Flush pending tree edits before reading, or they would look like
	// missing files.
	if err := s.tree.CommitPending(ctx, c, "pending changes before rescan"); err != nil {
		return nil, fmt.Errorf("flush working tree: %w", err)
	}
	discovered, err := DiscoverFiles(dir, c.FileMask)
	if err != nil {
		return nil, err
	}
	revision, err := s.tree.Revision(c)
	if err != nil {
		return nil, fmt.Errorf("read tree revision: %w", err)
	}
	existing, err := s.translations.ListByComponent(ctx, componentID)
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}

	// Template and new-base files are sources, never translations.
	kept := discovered[:0]
	for _, d := range discovered {
		if (c.Template != "" && d.Path == c.Template) || (c.NewBase != "" && d.Path == c.NewBase) {
			continue
		}
		kept = append(kept, d)
	}
	discovered = kept

	report := &domain.ReconcileReport{}
	byCode := make(map[string]*domain.Translation, len(existing))
	for _, e := range existing {
		byCode[e.LanguageCode] = e
	}
	onDisk := make(map[string]bool, len(discovered))
	for _, d := range discovered {
		onDisk[d.Code] = true
	}

	// Surviving entities claim their language first, so a new file can
	// never double-book a language an entity already holds.
	claimed := map[int64]string{}
	var removeIDs []int64
	for _, e := range existing {
		if onDisk[e.LanguageCode] {
			report.Unchanged++
			claimed[e.LanguageID] = e.LanguageCode
			continue
		}
		removeIDs = append(removeIDs, e.ID)
		report.Removed = append(report.Removed, e)
	}

	var creates []*domain.Translation
	for _, d := range discovered {
		if _, ok := byCode[d.Code]; ok {
			continue
		}
		lng, ok := s.catalog.Normalize(d.Code)
		if !ok {
			unresolvableCodes.Inc()
			report.Skipped = append(report.Skipped, domain.SkippedCode{Code: d.Code, Path: d.Path, Reason: "no matching language"})
			s.log.WithFields(logrus.Fields{"component": c.Slug, "code": d.Code, "path": d.Path}).Warn("skipping file with unresolvable language code")
			continue
		}
		if prev, taken := claimed[lng.ID]; taken {
			report.Conflicts = append(report.Conflicts, domain.SkippedCode{Code: d.Code, Path: d.Path, Reason: fmt.Sprintf("language %s already bound to %s", lng.Code, prev)})
			s.log.WithFields(logrus.Fields{"component": c.Slug, "code": d.Code, "language": lng.Code, "winner": prev}).Warn("conflicting file for already bound language")
			continue
		}
		claimed[lng.ID] = d.Code
		t := &domain.Translation{ComponentID: c.ID, LanguageID: lng.ID, LanguageCode: d.Code, Filename: d.Path, Revision: revision}
		creates = append(creates, t)
		report.Created = append(report.Created, t)
	}

	if err := s.translations.ApplyChanges(ctx, c.ID, creates, removeIDs); err != nil {
		return nil, fmt.Errorf("apply changes: %w", err)
	}
	translationsCreated.Add(float64(len(creates)))
	translationsRemoved.Add(float64(len(removeIDs)))

	projectSlug := s.projectSlug(ctx, c)
	for _, e := range report.Removed {
		s.notify(ctx, domain.Event{
			Kind:      domain.EventTranslationRemoved,
			Project:   projectSlug,
			Component: c.Slug,
			Language:  e.LanguageCode,
			Message:   fmt.Sprintf("Translation %s removed from %s/%s", e.LanguageCode, projectSlug, c.Slug),
			Time:      time.Now().UTC(),
		})
	}
	if !report.Empty() {
		s.notify(ctx, domain.Event{
			Kind:      domain.EventReconcileCompleted,
			Project:   projectSlug,
			Component: c.Slug,
			Message:   fmt.Sprintf("Rescan of %s/%s: %d created, %d removed, %d unchanged", projectSlug, c.Slug, len(report.Created), len(report.Removed), report.Unchanged),
			Time:      time.Now().UTC(),
		})
	}
	s.emit(domain.EventReconcileCompleted, report)
	s.log.WithFields(logrus.Fields{
		"component": c.Slug,
		"created":   len(report.Created),
		"removed":   len(report.Removed),
		"unchanged": report.Unchanged,
		"skipped":   len(report.Skipped),
		"conflicts": len(report.Conflicts),
	}).Info("rescan finished")
	return report, nil
}

// CreateTranslation starts a new language on the component: resolve the
// file code, write the file, then create the entity. The file step runs
// first so a failure leaves no entity behind; if the entity insert fails
// a file written here is removed again.
func (s *Service) CreateTranslation(ctx context.Context, c *domain.Component, lng *domain.Language) (*domain.Translation, error) {
	unlock := s.locks.lock(c.ID)
	defer unlock()

	driver, ok := s.formats.Get(c.Format)
	if !ok {
		return nil, fmt.Errorf("component %s: %w: %s", c.Slug, ErrUnknownFormat, c.Format)
	}
	existing, err := s.translations.GetByLanguage(ctx, c.ID, lng.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing translation: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%s on %s: %w", lng.Code, c.Slug, ErrDuplicateLanguage)
	}

	style := c.CodeStyle
	if style == domain.StyleDefault {
		style = driver.DefaultCodeStyle()
	}
	fileCode := s.resolver.Resolve(lng.Code, style)

	filename, err := ExpandMask(c.FileMask, fileCode)
	if err != nil {
		return nil, err
	}
	dir, err := s.tree.Dir(c)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, filepath.FromSlash(filename))

	wroteFile := false
	if _, err := os.Stat(path); err != nil {
		basePath := ""
		if base := c.NewTranslationBase(); base != "" {
			basePath = filepath.Join(dir, filepath.FromSlash(base))
		}
		if err := driver.Init(basePath, path, fileCode); err != nil {
			return nil, &InstantiationError{Path: filename, Err: err}
		}
		wroteFile = true
	}

	revision, err := s.tree.Revision(c)
	if err != nil {
		revision = ""
	}
	t := &domain.Translation{ComponentID: c.ID, LanguageID: lng.ID, LanguageCode: fileCode, Filename: filename, Revision: revision}
	if _, err := s.translations.Create(ctx, t); err != nil {
		if wroteFile {
			_ = os.Remove(path)
		}
		return nil, fmt.Errorf("create translation entity: %w", err)
	}
	if err := s.tree.CommitPending(ctx, c, fmt.Sprintf("Added translation using %s", fileCode), filename); err != nil {
		s.log.WithError(err).WithField("component", c.Slug).Warn("post-add commit hook failed")
	}
	translationsCreated.Inc()
	return t, nil
}

// RemoveTranslation deletes the entity and, when deleteFile is set, the
// backing file. Keeping the file means a later rescan recreates the
// translation; removing it keeps the language gone.
func (s *Service) RemoveTranslation(ctx context.Context, translationID int64, deleteFile bool, actor string) error {
	t, err := s.translations.GetByID(ctx, translationID)
	if err != nil {
		return fmt.Errorf("load translation: %w", err)
	}
	if t == nil {
		return fmt.Errorf("translation %d: %w", translationID, ErrTranslationNotFound)
	}
	unlock := s.locks.lock(t.ComponentID)
	defer unlock()

	c, err := s.components.GetByID(ctx, t.ComponentID)
	if err != nil {
		return fmt.Errorf("load component: %w", err)
	}
	if c == nil {
		return fmt.Errorf("component %d: %w", t.ComponentID, ErrComponentNotFound)
	}
	if deleteFile {
		dir, err := s.tree.Dir(c)
		if err != nil {
			return err
		}
		if err := os.Remove(filepath.Join(dir, filepath.FromSlash(t.Filename))); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove translation file: %w", err)
		}
	}
	if err := s.translations.Delete(ctx, t.ID); err != nil {
		return fmt.Errorf("delete translation: %w", err)
	}
	if deleteFile {
		if err := s.tree.CommitPending(ctx, c, fmt.Sprintf("Removed translation %s", t.LanguageCode), t.Filename); err != nil {
			s.log.WithError(err).WithField("component", c.Slug).Warn("post-remove commit hook failed")
		}
	}
	translationsRemoved.Inc()
	projectSlug := s.projectSlug(ctx, c)
	s.notify(ctx, domain.Event{
		Kind:      domain.EventTranslationRemoved,
		Project:   projectSlug,
		Component: c.Slug,
		Language:  t.LanguageCode,
		Actor:     actor,
		Message:   fmt.Sprintf("Translation %s removed from %s/%s", t.LanguageCode, projectSlug, c.Slug),
		Time:      time.Now().UTC(),
	})
	s.emit(domain.EventTranslationRemoved, t)
	return nil
}

func (s *Service) projectSlug(ctx context.Context, c *domain.Component) string {
	p, err := s.projects.GetByID(ctx, c.ProjectID)
	if err != nil || p == nil {
		return ""
	}
	return p.Slug
}

func (s *Service) notify(ctx context.Context, e domain.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, e); err != nil {
		s.log.WithError(err).WithField("kind", e.Kind).Warn("notification failed")
	}
}

func (s *Service) emit(event string, payload any) {
	if s.emitter != nil {
		s.emitter.Emit(event, payload)
	}
}
