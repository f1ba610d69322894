// Package admission implements the policy gate in front of new-language
// creation. Every request comes back as a decision; policy failures are
// verdicts, not errors, so one bad language can never abort a batch.
package admission

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"langsync/internal/domain"
	"langsync/internal/lang"
	"langsync/internal/ports"
	"langsync/internal/usecase/reconcile"
)

type Deps struct {
	Log        *logrus.Logger
	Perms      ports.PermissionChecker
	Catalog    *lang.Catalog
	Reconciler *reconcile.Service
	Notifier   ports.Notifier
	Emitter    ports.EventEmitter
}

type Service struct {
	log        *logrus.Logger
	perms      ports.PermissionChecker
	catalog    *lang.Catalog
	reconciler *reconcile.Service
	notifier   ports.Notifier
	emitter    ports.EventEmitter
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		log:        log,
		perms:      d.Perms,
		catalog:    d.Catalog,
		reconciler: d.Reconciler,
		notifier:   d.Notifier,
		emitter:    d.Emitter,
	}
}

// Admit runs one language request through the gate. The checks run in a
// fixed order and the first failing one decides: permission, language
// resolution, disabled mode, language filter, then the component's mode.
func (s *Service) Admit(ctx context.Context, project *domain.Project, c *domain.Component, code string, user domain.User) domain.Decision {
	d := s.admit(ctx, project, c, code, user)
	admissionsTotal.WithLabelValues(string(d.Verdict)).Inc()
	s.log.WithFields(logrus.Fields{
		"project":   project.Slug,
		"component": c.Slug,
		"code":      code,
		"user":      user.Name,
		"verdict":   d.Verdict,
		"reason":    d.Reason,
	}).Info("admission decided")
	return d
}

// AdmitBatch processes the codes as independent admissions in order. A
// rejection never rolls back languages already approved in the same
// batch.
func (s *Service) AdmitBatch(ctx context.Context, project *domain.Project, c *domain.Component, codes []string, user domain.User) []domain.Decision {
	out := make([]domain.Decision, 0, len(codes))
	for _, code := range codes {
		out = append(out, s.Admit(ctx, project, c, code, user))
	}
	return out
}

func (s *Service) admit(ctx context.Context, project *domain.Project, c *domain.Component, code string, user domain.User) domain.Decision {
	elevated := s.elevated(ctx, user, project)
	if !elevated {
		allowed, err := s.perms.CanAddTranslation(ctx, user, project)
		if err != nil {
			s.log.WithError(err).WithField("user", user.Name).Warn("permission check failed, denying")
			allowed = false
		}
		if !allowed {
			return domain.Rejected(code, domain.ReasonNoPermission, "not allowed to add translations to this project")
		}
	}

	lng, ok := s.catalog.Normalize(code)
	if !ok {
		return domain.Rejected(code, domain.ReasonUnknownLanguage, fmt.Sprintf("no language matches %q", code))
	}

	// Project admins may add even on contact/none components. The
	// language filter below still applies to them.
	mode := c.NewLang
	if elevated && (mode == domain.NewLangContact || mode == domain.NewLangNone) {
		mode = domain.NewLangAdd
	}
	if mode == domain.NewLangNone {
		return domain.Rejected(code, domain.ReasonModeNone, "adding new translations is disabled for this component")
	}

	if c.LanguageRegex != "" {
		re, err := regexp.Compile(c.LanguageRegex)
		if err != nil {
			s.log.WithError(err).WithField("component", c.Slug).Warn("invalid language filter, denying")
			return domain.Rejected(code, domain.ReasonFiltered, "the component's language filter is invalid")
		}
		if !re.MatchString(lng.Code) {
			return domain.Rejected(code, domain.ReasonFiltered, fmt.Sprintf("language %s does not match the component filter", lng.Code))
		}
	}

	switch mode {
	case domain.NewLangContact:
		s.notify(ctx, domain.Event{
			Kind:      domain.EventLanguageRequested,
			Project:   project.Slug,
			Component: c.Slug,
			Language:  lng.Code,
			Actor:     user.Name,
			Message:   fmt.Sprintf("New language request in %s/%s", project.Slug, c.Slug),
			Time:      time.Now().UTC(),
		})
		return domain.Decision{Language: code, Verdict: domain.VerdictDeferred, Reason: domain.ReasonContact, Message: "request forwarded to the project admins"}
	case domain.NewLangURL:
		return domain.Decision{Language: code, Verdict: domain.VerdictRedirected, Reason: domain.ReasonURL, URL: project.Instructions, Message: "translations for this project are started elsewhere"}
	case domain.NewLangAdd:
		return s.approve(ctx, project, c, code, lng, user)
	default:
		return domain.Rejected(code, domain.ReasonModeNone, fmt.Sprintf("unsupported new language mode %q", c.NewLang))
	}
}

func (s *Service) approve(ctx context.Context, project *domain.Project, c *domain.Component, code string, lng *domain.Language, user domain.User) domain.Decision {
	tr, err := s.reconciler.CreateTranslation(ctx, c, lng)
	if err != nil {
		var instErr *reconcile.InstantiationError
		switch {
		case errors.Is(err, reconcile.ErrDuplicateLanguage):
			return domain.Rejected(code, domain.ReasonDuplicate, fmt.Sprintf("a translation for %s already exists", lng.Code))
		case errors.As(err, &instErr):
			return domain.Rejected(code, domain.ReasonInstantiationFailed, fmt.Sprintf("could not create translation file: %v", instErr.Err))
		default:
			s.log.WithError(err).WithFields(logrus.Fields{"component": c.Slug, "code": code}).Error("approved admission failed to create translation")
			return domain.Rejected(code, domain.ReasonInstantiationFailed, "could not create the translation")
		}
	}
	s.notify(ctx, domain.Event{
		Kind:      domain.EventLanguageAdded,
		Project:   project.Slug,
		Component: c.Slug,
		Language:  lng.Code,
		Actor:     user.Name,
		Message:   fmt.Sprintf("New language added to %s/%s", project.Slug, c.Slug),
		Time:      time.Now().UTC(),
	})
	s.emit(domain.EventLanguageAdded, tr)
	return domain.Decision{Language: code, Verdict: domain.VerdictApproved, Translation: tr}
}

func (s *Service) elevated(ctx context.Context, user domain.User, project *domain.Project) bool {
	if user.Superuser {
		return true
	}
	admin, err := s.perms.IsProjectAdmin(ctx, user, project)
	if err != nil {
		s.log.WithError(err).WithField("user", user.Name).Warn("admin check failed")
		return false
	}
	return admin
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
