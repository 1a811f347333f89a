package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"agendacal/internal/auth"
	"agendacal/internal/calendar"
	appLog "agendacal/internal/log"
	"agendacal/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agenda site and API",
	Long: `Load every configured source, refresh them on the configured cron
schedule and serve the calendar over HTTP until SIGINT/SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config if set)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	listen := a.cfg.Listen
	if serveListen != "" {
		listen = serveListen
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := a.store.Refresh(ctx); err != nil {
		appLog.Warn("initial refresh incomplete", "err", err)
	}
	if err := a.store.Schedule(ctx, a.cfg.RefreshCron); err != nil {
		return err
	}
	defer a.store.Stop()

	var admin auth.Credentials
	if a.cfg.BasicAuth != nil {
		admin = auth.Credentials{Username: a.cfg.BasicAuth.Username, PasswordHash: a.cfg.BasicAuth.PasswordHash}
	}

	store := a.store
	srv, err := web.NewServer(web.Options{
		Listen: listen,
		Store:  store,
		Navigator: calendar.NewNavigator(calendar.NavigatorOptions{
			Location: a.loc,
			Builder:  a.builder,
			Events:   func() calendar.EventLookup { return store.Index() },
		}),
		Builder:  a.builder,
		Renderer: a.renderer,
		Location: a.loc,
		Admin:    admin,
	})
	if err != nil {
		return err
	}

	err = srv.ListenAndServe(ctx)
	appLog.Info("agendacal exiting")
	return err
}
