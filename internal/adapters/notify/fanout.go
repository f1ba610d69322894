package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"langsync/internal/domain"
	"langsync/internal/ports"
)

// Fanout delivers each event to every configured sink. Delivery is best
// effort: a failing sink is logged and the rest still receive the event.
type Fanout struct {
	log   *logrus.Logger
	sinks []ports.Notifier
}

var _ ports.Notifier = (*Fanout)(nil)

func NewFanout(log *logrus.Logger, sinks ...ports.Notifier) *Fanout {
	return &Fanout{log: log, sinks: sinks}
}

func (f *Fanout) Notify(ctx context.Context, e domain.Event) error {
	for _, s := range f.sinks {
		if err := s.Notify(ctx, e); err != nil {
			f.log.WithError(err).WithField("kind", e.Kind).Warn("notification sink failed")
		}
	}
	return nil
}
