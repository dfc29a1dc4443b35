package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	icomplain "github.com/Polqt/iComplain"
	"github.com/Polqt/iComplain/client"
	"github.com/Polqt/iComplain/internal/config"
	"github.com/Polqt/iComplain/realtime"
	"github.com/Polqt/iComplain/store"
	"github.com/Polqt/iComplain/types"
)

var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "icomplain",
	Short: "iComplain CLI - campus facilities ticketing client",
	Long: `iComplain Command Line Interface

A terminal client for the iComplain campus facilities ticketing service.
File and track maintenance tickets, follow comment threads, and watch
live updates pushed over the realtime channel.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
}

var (
	configPathFlag string
	baseURLFlag    string
	emailFlag      string
	passwordFlag   string
	rememberFlag   bool
	limitFlag      int
	offsetFlag     int
	communityFlag  bool
	statusFlag     string
	queryFlag      string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", ".", "Directory containing config.yaml")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "API origin (overrides config)")

	loginCmd.Flags().StringVar(&emailFlag, "email", "", "Account email (required)")
	loginCmd.Flags().StringVar(&passwordFlag, "password", "", "Account password (required)")
	loginCmd.Flags().BoolVar(&rememberFlag, "remember", false, "Remember the email for the next login")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("password")

	ticketsCmd.Flags().IntVar(&limitFlag, "limit", 20, "Page size")
	ticketsCmd.Flags().IntVar(&offsetFlag, "offset", 0, "Page offset")
	ticketsCmd.Flags().BoolVar(&communityFlag, "community", false, "Show the community board instead of your own tickets")
	ticketsCmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status (pending|in_progress|resolved|closed)")

	searchCmd.Flags().StringVar(&queryFlag, "query", "", "Search text (required)")
	searchCmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum results")
	searchCmd.MarkFlagRequired("query")

	watchCmd.Flags().StringVar(&emailFlag, "email", "", "Account email (required)")
	watchCmd.Flags().StringVar(&passwordFlag, "password", "", "Account password (required)")
	watchCmd.MarkFlagRequired("email")
	watchCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(ticketsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(watchCmd)
}

// newApp builds the client stack from config plus flag overrides.
func newApp(enableRealtime bool) (*icomplain.App, *zap.Logger, error) {
	if err := config.Load(configPathFlag); err != nil {
		return nil, nil, err
	}
	cfg := config.Get()

	log, err := cfg.Logging.BuildLogger()
	if err != nil {
		return nil, nil, err
	}

	baseURL := cfg.API.BaseURL
	if baseURLFlag != "" {
		baseURL = baseURLFlag
	}

	app, err := icomplain.NewApp(icomplain.Options{
		BaseURL:        baseURL,
		UserAgent:      cfg.API.UserAgent,
		Timeout:        cfg.API.Timeout,
		Logger:         log,
		PrefsPath:      cfg.Prefs.Path,
		SearchDebounce: cfg.Search.Debounce,
		Realtime:       enableRealtime && cfg.Realtime.Enabled,
		BackoffBase:    cfg.Realtime.BackoffBase,
		MaxBackoff:     cfg.Realtime.MaxBackoff,
		MaxAttempts:    cfg.Realtime.MaxAttempts,
	})
	if err != nil {
		return nil, nil, err
	}
	return app, log, nil
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify credentials against the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := newApp(false)
		if err != nil {
			return err
		}
		defer app.Close()

		user := app.Auth.Login(cmd.Context(), emailFlag, passwordFlag, rememberFlag)
		if user == nil {
			return fmt.Errorf("login failed: %s", app.Auth.Snapshot().Error)
		}
		fmt.Printf("Signed in as %s (%s)\n", user.Email, user.Role)
		return nil
	},
}

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "List tickets",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := newApp(false)
		if err != nil {
			return err
		}
		defer app.Close()

		opts := client.ListOptions{Limit: limitFlag, Offset: offsetFlag}
		if communityFlag {
			app.Tickets.LoadCommunity(cmd.Context(), opts)
		} else {
			app.Tickets.Load(cmd.Context(), opts)
		}

		st := app.Tickets.Snapshot()
		if st.Error != "" {
			return fmt.Errorf("%s", st.Error)
		}

		tickets := st.Tickets
		if statusFlag != "" {
			tickets = store.FilterByStatus(tickets, types.TicketStatus(statusFlag))
		}
		for _, t := range tickets {
			fmt.Printf("#%-5d %-12s %-10s %s\n", t.ID, t.Status, t.Priority.Name, t.Title)
		}
		fmt.Printf("%d of %d tickets\n", len(tickets), st.Total)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search tickets by free text",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := newApp(false)
		if err != nil {
			return err
		}
		defer app.Close()

		results, err := app.API.Tickets.Search(cmd.Context(), queryFlag, limitFlag)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("%-8s %s\n", r.Type, r.Title)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show your ticket activity feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := newApp(false)
		if err != nil {
			return err
		}
		defer app.Close()

		items, err := app.API.Tickets.History(cmd.Context())
		if err != nil {
			return err
		}
		for _, item := range items {
			fmt.Printf("%-20s %-10s %-15s %s\n", item.Timestamp, item.TicketID, item.Action, item.Title)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the admin dashboard summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := newApp(false)
		if err != nil {
			return err
		}
		defer app.Close()

		stats, err := app.API.Dashboard.GetStats(cmd.Context())
		if err != nil {
			return err
		}
		for _, m := range stats.Metrics {
			fmt.Printf("%-25s %8s  %s\n", m.Title, m.Value, m.Change)
		}
		for status, n := range stats.StatusBreakdown {
			fmt.Printf("  %-12s %d\n", status, n)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live ticket updates until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, log, err := newApp(true)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if user := app.Auth.Login(ctx, emailFlag, passwordFlag, false); user == nil {
			return fmt.Errorf("login failed: %s", app.Auth.Snapshot().Error)
		}

		app.Tickets.Load(ctx, client.ListOptions{Limit: limitFlag})
		unsubscribe := app.Tickets.Subscribe(func() {
			st := app.Tickets.Snapshot()
			fmt.Printf("tickets: %d in view, %d total\n", len(st.Tickets), st.Total)
		})
		defer unsubscribe()

		app.Channel.Subscribe(func(s realtime.State) {
			log.Info("channel state changed", zap.String("state", string(s)))
		})
		app.Start(ctx)

		<-ctx.Done()
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
