package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/harrisonrobin/lifeos/pkg/audit"
	"github.com/harrisonrobin/lifeos/pkg/config"
	"github.com/harrisonrobin/lifeos/pkg/model"
	"github.com/harrisonrobin/lifeos/pkg/roi"
	"github.com/harrisonrobin/lifeos/pkg/store"
	"github.com/harrisonrobin/lifeos/pkg/tasks"
)

// app is the set of collaborators a command works with. It is built per
// invocation and closed when the command returns.
type app struct {
	cfg     *config.Config
	store   *store.Store
	audit   *audit.Logger
	tasks   *tasks.Service
	loc     *time.Location
	userID  string
	now     func() time.Time
	closeDB func()
}

func (o *options) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.calendar != "" {
		cfg.Calendar = o.calendar
	}
	if o.userID != "" {
		cfg.UserID = o.userID
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	return cfg, nil
}

func (o *options) saveConfig(cfg *config.Config) error {
	if o.configPath != "" {
		return config.SaveTo(o.configPath, cfg)
	}
	return config.Save(cfg)
}

func (o *options) open() (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		if dbPath, err = store.ResolveDBPath(); err != nil {
			return nil, err
		}
	}
	st, closeDB, err := store.OpenStore(dbPath)
	if err != nil {
		return nil, err
	}
	st.SetClock(o.now)

	auditor := audit.New(st)
	svc := tasks.NewService(st, auditor)
	svc.SetClock(o.now)

	return &app{
		cfg:     cfg,
		store:   st,
		audit:   auditor,
		tasks:   svc,
		loc:     loc,
		userID:  cfg.UserID,
		now:     o.now,
		closeDB: closeDB,
	}, nil
}

func (a *app) Close() {
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *app) weights(ctx context.Context) roi.Weights {
	settings, err := a.store.GetUserSettings(ctx, a.userID)
	if err != nil {
		return roi.DefaultWeights
	}
	return roi.Resolve(settings.ImpactWeights)
}

// withApp opens the app, runs fn and closes it.
func withApp(opts *options, fn func(ctx context.Context, a *app) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		a, err := opts.open()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, a)
	}
}

// lookup resolves a task reference or returns a readable error.
func (a *app) lookup(ctx context.Context, ref string) (model.Task, error) {
	task, err := a.tasks.Lookup(ctx, a.userID, ref)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s: %w", ref, err)
	}
	return task, nil
}
