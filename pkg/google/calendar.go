package google

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/harrisonrobin/lifeos/pkg/colors"
	"github.com/harrisonrobin/lifeos/pkg/index"
	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/roi"
)

// CalendarClient mirrors tasks onto one Google calendar.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
	colors     *colors.ColorCache
	weights    roi.Weights
	now        func() time.Time
}

func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex, cache *colors.ColorCache) *CalendarClient {
	return &CalendarClient{
		srv:        srv,
		calendarID: calendarID,
		index:      idx,
		colors:     cache,
		weights:    roi.DefaultWeights,
		now:        time.Now,
	}
}

func (c *CalendarClient) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// SetWeights changes the weights used for the ROI line in descriptions.
func (c *CalendarClient) SetWeights(w roi.Weights) {
	if w != nil {
		c.weights = w
	}
}

// SyncReport counts the outcome of SyncAll.
type SyncReport struct {
	Synced  int
	Removed int
	Skipped int
	Failed  int
}

// SyncAll mirrors each task, removing events for deleted or archived tasks.
// Failures are logged and counted; the pass continues.
func (c *CalendarClient) SyncAll(ctx context.Context, tasks []model.Task) SyncReport {
	var report SyncReport
	for _, task := range tasks {
		if task.IsDeleted || task.ArchivedAt != nil {
			if err := c.RemoveTask(ctx, task.ID); err != nil {
				log.Printf("Warning: could not remove event for task %s: %v", task.ID, err)
				report.Failed++
				continue
			}
			report.Removed++
			continue
		}
		if _, err := c.SyncTask(ctx, task); err != nil {
			if errors.Is(err, ErrNoDate) {
				report.Skipped++
				continue
			}
			log.Printf("Warning: could not sync task %s: %v", task.ID, err)
			report.Failed++
			continue
		}
		report.Synced++
	}
	return report
}

// SyncTask creates the event for task or patches the existing one.
func (c *CalendarClient) SyncTask(ctx context.Context, task model.Task) (*calendar.Event, error) {
	colorID := ""
	if c.colors != nil {
		colorID = c.colors.ColorFor(task)
	}
	event, err := TaskToEvent(task, colorID, c.weights, c.now())
	if err != nil {
		return nil, err
	}

	existing, err := c.findEvent(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("error searching for event: %w", err)
	}

	if existing != nil {
		patch, err := EventNeedsUpdate(existing, event)
		if err != nil {
			return nil, fmt.Errorf("could not compare task with its calendar event: %w", err)
		}
		if patch == nil {
			c.remember(task.ID, existing.Id)
			return existing, nil
		}
		updated, err := c.PatchEvent(ctx, existing.Id, patch)
		if err != nil {
			return nil, err
		}
		c.remember(task.ID, updated.Id)
		return updated, nil
	}

	created, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	c.remember(task.ID, created.Id)
	return created, nil
}

// RemoveTask deletes the event mirrored for taskID, if any.
func (c *CalendarClient) RemoveTask(ctx context.Context, taskID string) error {
	existing, err := c.findEvent(ctx, taskID)
	if err != nil {
		return err
	}
	if existing != nil {
		if err := c.DeleteEvent(ctx, existing.Id); err != nil && !gone(err) {
			return err
		}
	}
	if c.index != nil {
		c.index.Remove(taskID)
	}
	return nil
}

// Notify marks the task's event with the reminder. Tasks that were never
// mirrored are ignored.
func (c *CalendarClient) Notify(ctx context.Context, r model.Reminder) error {
	existing, err := c.findEvent(ctx, r.TaskID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	_, err = c.PatchEvent(ctx, existing.Id, ReminderPatch(r))
	return err
}

func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	return c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
}

// ListEvents fetches every event ending after timeMin, following pages.
func (c *CalendarClient) ListEvents(ctx context.Context, timeMin time.Time) ([]*calendar.Event, error) {
	var items []*calendar.Event
	err := c.srv.Events.List(c.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		Pages(ctx, func(page *calendar.Events) error {
			items = append(items, page.Items...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}
	return items, nil
}

// Prune deletes mirrored events after since whose task is not in keep.
// Events without a task id were not created by us and are left alone.
func (c *CalendarClient) Prune(ctx context.Context, since time.Time, keep map[string]bool) (int, error) {
	events, err := c.ListEvents(ctx, since)
	if err != nil {
		return 0, err
	}
	pruned := 0
	for _, event := range events {
		taskID, ok := TaskIDFromEvent(event)
		if !ok || keep[taskID] {
			continue
		}
		if err := c.DeleteEvent(ctx, event.Id); err != nil && !gone(err) {
			log.Printf("Warning: could not prune event %s for task %s: %v", event.Id, taskID, err)
			continue
		}
		if c.index != nil {
			c.index.Remove(taskID)
		}
		pruned++
	}
	return pruned, nil
}

// GetEventByTaskID searches the calendar for the event tagged with taskID.
func (c *CalendarClient) GetEventByTaskID(ctx context.Context, taskID string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", TaskIDProperty, taskID)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

// findEvent tries the local index first and falls back to searching.
func (c *CalendarClient) findEvent(ctx context.Context, taskID string) (*calendar.Event, error) {
	if c.index != nil {
		if eventID := c.index.Get(taskID); eventID != "" {
			event, err := c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
			if err == nil && event.Status != "cancelled" {
				return event, nil
			}
			c.index.Remove(taskID)
		}
	}
	return c.GetEventByTaskID(ctx, taskID)
}

func (c *CalendarClient) remember(taskID, eventID string) {
	if c.index != nil {
		c.index.Set(taskID, eventID)
	}
}

func gone(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
	}
	return false
}
