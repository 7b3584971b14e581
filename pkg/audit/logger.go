package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/model"
)

// Writer is the repository operation the logger depends on.
type Writer interface {
	InsertAuditLog(ctx context.Context, entry model.AuditLogEntry) error
}

// Logger records task state transitions. Writes are best-effort: a failure
// is logged and returned, and callers are free to discard it with `_ =`.
type Logger struct {
	w   Writer
	now func() time.Time
}

func New(w Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

// Log appends one entry for actor userID. previous and next are optional
// snapshots and are stored as JSON; pass nil to omit one.
func (l *Logger) Log(ctx context.Context, userID, taskID string, action model.AuditAction, previous, next any) error {
	if l == nil || l.w == nil {
		return fmt.Errorf("audit: logger is not configured")
	}

	entry := model.AuditLogEntry{
		TaskID:    taskID,
		UserID:    userID,
		Action:    action,
		CreatedAt: l.now(),
	}

	var err error
	if entry.PreviousState, err = snapshot(previous); err != nil {
		log.Printf("Warning: audit %s for task %q: encode previous state: %v", action, taskID, err)
		return err
	}
	if entry.NewState, err = snapshot(next); err != nil {
		log.Printf("Warning: audit %s for task %q: encode new state: %v", action, taskID, err)
		return err
	}

	if err := l.w.InsertAuditLog(ctx, entry); err != nil {
		log.Printf("Warning: audit %s for task %q not recorded: %v", action, taskID, err)
		return err
	}
	return nil
}

func snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}
