// Package notify holds the notification sinks events fan out to.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"langsync/internal/domain"
	"langsync/internal/ports"
)

// LogNotifier writes events to the structured log. It is always wired in,
// so every admission and rescan outcome is visible without any broker.
type LogNotifier struct {
	log *logrus.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(log *logrus.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) Notify(ctx context.Context, e domain.Event) error {
	n.log.WithFields(logrus.Fields{
		"kind":      e.Kind,
		"project":   e.Project,
		"component": e.Component,
		"language":  e.Language,
		"actor":     e.Actor,
	}).Info(e.Message)
	return nil
}
