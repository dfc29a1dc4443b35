// Package icomplain is the Go client for the iComplain campus facilities
// ticketing service. It bundles:
//   - Typed API transport (tickets, comments, feedback, notifications, auth,
//     dashboard) with normalized errors
//   - Reactive entity stores that reconcile server responses and socket
//     pushes into one observable collection per resource
//   - A real-time channel with bounded-backoff reconnection
//   - Pure derived views over ticket collections (filtering, grouping,
//     board columns)
//
// Basic usage:
//
//	app, err := icomplain.NewApp(icomplain.Options{BaseURL: "http://localhost:8000"})
//	if err != nil { ... }
//	defer app.Close()
//
//	app.Auth.Login(ctx, email, password, true)
//	app.Tickets.Load(ctx, client.ListOptions{Limit: 20})
//	app.Start(ctx) // open the realtime channel
package icomplain

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Polqt/iComplain/client"
	"github.com/Polqt/iComplain/internal/prefs"
	"github.com/Polqt/iComplain/realtime"
	"github.com/Polqt/iComplain/store"
)

// Version is the current client version
const Version = "1.0.0"

// Client is the raw API transport, usable on its own when no store-level
// state management is wanted.
type Client = client.Client

// Config configures the raw transport.
type Config = client.Config

// NewClient creates a bare API client without stores or realtime.
func NewClient(config *Config) *Client {
	return client.NewClient(config)
}

// Options configures an App. Only BaseURL is required.
type Options struct {
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	Logger         *zap.Logger
	PrefsPath      string        // empty for the platform default
	SearchDebounce time.Duration // zero for the default
	Realtime       bool          // open the socket in Start
	BackoffBase    time.Duration
	MaxBackoff     time.Duration
	MaxAttempts    int
}

// App wires the transport, stores and realtime channel into one unit with
// an explicit lifecycle: NewApp builds it, Start opens the socket, Close
// tears everything down.
type App struct {
	API           *client.Client
	Auth          *store.AuthStore
	Tickets       *store.TicketsStore
	Comments      *store.CommentsStore
	Feedback      *store.FeedbackStore
	Notifications *store.NotificationsStore
	Search        *store.SearchStore
	Channel       *realtime.Channel

	log      *zap.Logger
	realtime bool
}

// NewApp builds the full client stack.
func NewApp(opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	api := client.NewClient(&client.Config{
		BaseURL:   opts.BaseURL,
		UserAgent: opts.UserAgent,
		Timeout:   opts.Timeout,
		Logger:    log,
	})

	p := prefs.New(opts.PrefsPath, log)

	app := &App{
		API:           api,
		Auth:          store.NewAuthStore(api, p, log),
		Tickets:       store.NewTicketsStore(api, log),
		Comments:      store.NewCommentsStore(api, log),
		Feedback:      store.NewFeedbackStore(api, log),
		Notifications: store.NewNotificationsStore(api, log),
		Search:        store.NewSearchStore(api, p, opts.SearchDebounce, log),
		log:           log,
		realtime:      opts.Realtime,
	}

	socketURL, err := realtime.SocketURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	app.Channel = realtime.NewChannel(realtime.Config{
		URL:    socketURL,
		Logger: log,
		Stores: realtime.Stores{
			Tickets:       app.Tickets,
			Comments:      app.Comments,
			Notifications: app.Notifications,
		},
		BackoffBase: opts.BackoffBase,
		MaxBackoff:  opts.MaxBackoff,
		MaxAttempts: opts.MaxAttempts,
	})

	app.Search.LoadRecentSearches()
	return app, nil
}

// Start opens the realtime channel when enabled. Safe to call repeatedly.
func (a *App) Start(ctx context.Context) {
	if a.realtime {
		a.Channel.Connect(ctx)
	}
}

// Close shuts the realtime channel down. The HTTP transport holds no
// resources that outlive its requests.
func (a *App) Close() {
	a.Channel.Disconnect()
}
