package ports

import (
	"context"

	"langsync/internal/domain"
)

// Notifier delivers engine events to operators. Delivery failures are
// reported but never abort the operation that raised the event.
type Notifier interface {
	Notify(ctx context.Context, e domain.Event) error
}
