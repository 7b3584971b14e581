package overdue

import (
	"context"
	"errors"
	"log"

	"github.com/harrisonrobin/lifeos/pkg/model"
)

// Notifier delivers a reminder to the task owner. Delivery is best-effort:
// the engine logs a returned error and moves on.
type Notifier interface {
	Notify(ctx context.Context, r model.Reminder) error
}

// LogNotifier prints reminders through a standard logger.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Notify(ctx context.Context, r model.Reminder) error {
	l := n.Logger
	if l == nil {
		l = log.Default()
	}
	l.Printf("[%s] %s", r.UserID, r.Message)
	return nil
}

// Notifiers fans a reminder out to every notifier, joining their errors.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, r model.Reminder) error {
	var errs []error
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
