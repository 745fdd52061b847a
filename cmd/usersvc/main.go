package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"sandi/pkg/users"
)

func main() {
	_ = godotenv.Load()

	dbFlag := &cli.StringFlag{
		Name:    "db",
		Usage:   "badger directory; empty keeps data in memory",
		Value:   "data/users",
		EnvVars: []string{"USERSVC_DB"},
	}

	app := &cli.App{
		Name:  "usersvc",
		Usage: "Serve user records over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP server",
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "listen address",
						Value:   ":8000",
						EnvVars: []string{"USERSVC_ADDR"},
					},
				},
				Action: serveCommand,
			},
			{
				Name:   "seed",
				Usage:  "Insert the test user",
				Flags:  []cli.Flag{dbFlag},
				Action: seedCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.String("log-level"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Str("service", "usersvc").Logger()
}

func serveCommand(c *cli.Context) error {
	logger := newLogger(c)
	store, err := users.OpenBadger(c.String("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              c.String("addr"),
		Handler:           users.NewService(store, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func seedCommand(c *cli.Context) error {
	logger := newLogger(c)
	store, err := users.OpenBadger(c.String("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	u := users.User{ID: 1, Name: "Test User", Email: "testuser@example.com"}
	if err := store.Put(c.Context, u); err != nil {
		return err
	}
	logger.Info().Int("id", u.ID).Msg("seeded user")
	return nil
}
