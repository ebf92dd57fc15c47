package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/R3E-Network/complaint_client/internal/config"
	"github.com/R3E-Network/complaint_client/internal/httputil"
	"github.com/R3E-Network/complaint_client/internal/kvstore"
	"github.com/R3E-Network/complaint_client/internal/metrics"
	"github.com/R3E-Network/complaint_client/internal/session"
	"github.com/R3E-Network/complaint_client/pkg/logger"
	"github.com/R3E-Network/complaint_client/services/auth"
	"github.com/R3E-Network/complaint_client/services/complaints"
	"github.com/R3E-Network/complaint_client/services/notifications"
	"github.com/R3E-Network/complaint_client/services/users"
)

// Dependencies overrides collaborators normally built from configuration.
// Nil fields fall back to the configured implementation.
type Dependencies struct {
	Store  kvstore.Store
	Images complaints.ImageSource
}

// Application ties the services together around one session.
type Application struct {
	cfg     *config.Config
	log     *logger.Logger
	store   kvstore.Store
	metrics *metrics.Metrics

	Session *session.Session
	Client  *httputil.Client

	Auth          *auth.Service
	Complaints    *complaints.Service
	Notifications *notifications.Service
	Users         *users.Service
}

// New builds a fully initialised application.
func New(cfg *config.Config, deps Dependencies, log *logger.Logger) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if log == nil {
		log = logger.NewDefault("app")
	}

	store := deps.Store
	if store == nil {
		var err error
		store, err = kvstore.New(cfg.KVStore())
		if err != nil {
			return nil, fmt.Errorf("build token store: %w", err)
		}
	}

	m := metrics.New()
	sess := session.New(store)

	httpCfg := cfg.HTTP()
	httpCfg.Metrics = m
	httpCfg.Logger = log
	client, err := httputil.New(httpCfg, sess)
	if err != nil {
		return nil, fmt.Errorf("build http client: %w", err)
	}

	return &Application{
		cfg:           cfg,
		log:           log,
		store:         store,
		metrics:       m,
		Session:       sess,
		Client:        client,
		Auth:          auth.New(client),
		Complaints:    complaints.New(client, deps.Images, log),
		Notifications: notifications.New(client),
		Users:         users.New(client),
	}, nil
}

// Metrics returns the client metrics.
func (a *Application) Metrics() *metrics.Metrics { return a.metrics }

// SignIn logs in and persists the returned token.
func (a *Application) SignIn(ctx context.Context, identifier, password string) (*auth.AuthResponse, error) {
	resp, err := a.Auth.Login(ctx, identifier, password)
	if err != nil {
		return nil, err
	}
	if err := a.Session.Save(ctx, resp.AccessToken); err != nil {
		return nil, err
	}
	a.log.WithContext(ctx).WithField("user_id", resp.User.ID).Info("signed in")
	return resp, nil
}

// SignUp registers and persists the returned token.
func (a *Application) SignUp(ctx context.Context, req auth.RegisterRequest) (*auth.AuthResponse, error) {
	resp, err := a.Auth.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := a.Session.Save(ctx, resp.AccessToken); err != nil {
		return nil, err
	}
	a.log.WithContext(ctx).WithField("user_id", resp.User.ID).Info("registered")
	return resp, nil
}

// SignOut revokes the token server-side and always erases it locally. The
// server error, if any, is returned after the local erase.
func (a *Application) SignOut(ctx context.Context) error {
	logoutErr := a.Auth.Logout(ctx)
	if logoutErr != nil {
		a.log.WithContext(ctx).WithError(logoutErr).Warn("server logout failed, clearing local session anyway")
	}
	clearErr := a.Session.Clear(ctx)
	return errors.Join(logoutErr, clearErr)
}

// Dashboard is the home screen data.
type Dashboard struct {
	Complaints []complaints.Complaint
	Stats      complaints.StatsResponse
}

// LoadDashboard fetches complaints and statistics concurrently. Either
// failure fails the whole load.
func (a *Application) LoadDashboard(ctx context.Context) (*Dashboard, error) {
	var (
		list  []complaints.Complaint
		stats *complaints.StatsResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = a.Complaints.GetComplaints(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = a.Complaints.GetComplaintStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Dashboard{Complaints: list}
	if stats != nil {
		out.Stats = *stats
	}
	return out, nil
}

// WatchNotifications polls for new unread notifications at the configured
// interval until ctx is done or a poll fails.
func (a *Application) WatchNotifications(ctx context.Context) (<-chan notifications.Notification, <-chan error) {
	w := notifications.NewWatcher(a.Notifications, notifications.WatcherConfig{
		Interval: a.cfg.WatchInterval,
		Metrics:  a.metrics,
		Logger:   a.log,
	})
	return w.Watch(ctx)
}

// Close releases the token store.
func (a *Application) Close() error {
	if closer, ok := a.store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
