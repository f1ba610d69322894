package reconcile

import (
	"context"
	"fmt"
	"path/filepath"
)

// TranslationStats counts a single translation file's units.
type TranslationStats struct {
	Total      int `json:"total"`
	Translated int `json:"translated"`
}

// Stats reads per-language unit counts straight from the files, keyed by
// the translation's file code. With a template the total comes from the
// template so untranslated keys missing from a file still count.
func (s *Service) Stats(ctx context.Context, componentID int64) (map[string]TranslationStats, error) {
	c, err := s.components.GetByID(ctx, componentID)
	if err != nil {
		return nil, fmt.Errorf("load component: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("component %d: %w", componentID, ErrComponentNotFound)
	}
	driver, ok := s.formats.Get(c.Format)
	if !ok {
		return nil, fmt.Errorf("component %s: %w: %s", c.Slug, ErrUnknownFormat, c.Format)
	}
	dir, err := s.tree.Dir(c)
	if err != nil {
		return nil, err
	}
	list, err := s.translations.ListByComponent(ctx, componentID)
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}

	templateTotal := -1
	if c.Template != "" {
		units, err := driver.Load(filepath.Join(dir, filepath.FromSlash(c.Template)))
		if err != nil {
			s.log.WithError(err).WithField("path", c.Template).Warn("stats: unreadable template")
		} else {
			templateTotal = len(units)
		}
	}

	out := make(map[string]TranslationStats, len(list))
	for _, t := range list {
		units, err := driver.Load(filepath.Join(dir, filepath.FromSlash(t.Filename)))
		if err != nil {
			s.log.WithError(err).WithField("path", t.Filename).Warn("stats: unreadable translation file")
			continue
		}
		st := TranslationStats{Total: len(units)}
		for _, u := range units {
			if u.Translated {
				st.Translated++
			}
		}
		if templateTotal >= 0 {
			st.Total = templateTotal
		}
		out[t.LanguageCode] = st
	}
	return out, nil
}
