package taskwarrior

import (
	"context"
	"log"

	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/tasks"
)

// Source tags imported rows in the import ledger.
const Source = "taskwarrior"

type Creator interface {
	Create(ctx context.Context, userID string, d tasks.Draft) (model.Task, error)
}

// Ledger remembers which Taskwarrior UUIDs were already imported.
type Ledger interface {
	ImportedTaskID(ctx context.Context, userID, source, externalID string) (string, error)
	RecordImport(ctx context.Context, userID, source, externalID, taskID string) error
}

type ImportReport struct {
	Created    []model.Task
	Skipped    int
	Duplicates int
	Failed     int
}

// Import creates a LifeOS task for every open Taskwarrior task not seen
// before. Closed tasks are skipped; tasks that fail to map or validate are
// logged and counted. A nil ledger disables deduplication.
func Import(ctx context.Context, svc Creator, ledger Ledger, userID string, tws []Task) ImportReport {
	var report ImportReport
	for _, tw := range tws {
		if !tw.Importable() {
			report.Skipped++
			continue
		}
		if ledger != nil && tw.UUID != "" {
			existing, err := ledger.ImportedTaskID(ctx, userID, Source, tw.UUID)
			if err != nil {
				log.Printf("Warning: could not check taskwarrior task %s: %v", tw.UUID, err)
				report.Failed++
				continue
			}
			if existing != "" {
				report.Duplicates++
				continue
			}
		}

		draft, err := tw.ToDraft()
		if err != nil {
			log.Printf("Warning: skipping taskwarrior task %s: %v", tw.UUID, err)
			report.Failed++
			continue
		}
		created, err := svc.Create(ctx, userID, draft)
		if err != nil {
			log.Printf("Warning: could not import taskwarrior task %s: %v", tw.UUID, err)
			report.Failed++
			continue
		}
		report.Created = append(report.Created, created)

		if ledger != nil && tw.UUID != "" {
			if err := ledger.RecordImport(ctx, userID, Source, tw.UUID, created.ID); err != nil {
				log.Printf("Warning: taskwarrior task %s imported but not recorded: %v", tw.UUID, err)
			}
		}
	}
	return report
}
