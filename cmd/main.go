package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tombola/internal/config"
	"tombola/internal/handlers"
	"tombola/internal/services"
	"tombola/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/spf13/cobra"
)

type app struct {
	envFile string
	cfg     *config.Config
}

// infoWriter forwards info and warning lines to w. Errors already go to
// stderr through the logger itself.
type infoWriter struct {
	w io.Writer
}

func (iw infoWriter) Write(p []byte) (int, error) {
	if bytes.HasPrefix(p, []byte("ERROR: ")) || bytes.HasPrefix(p, []byte("FATAL: ")) {
		return len(p), nil
	}
	return iw.w.Write(p)
}

// initLogging sends every log line to stderr, keeping stdout for command
// output such as dump.
func initLogging() *logger.Logger {
	return logger.Init("tombola", false, false, infoWriter{w: os.Stderr})
}

func main() {
	lg := initLogging()

	err := newRootCmd().ExecuteContext(context.Background())
	if err != nil {
		logger.Errorf("%v", err)
	}
	lg.Close()

	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "tombola",
		Short:         "Draw a secret gift exchange and notify the players",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.envFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env", ".env", "dotenv file to load before the environment")

	root.AddCommand(
		a.drawCmd(),
		a.dumpCmd(),
		a.emailCmd(),
		a.smsCmd(),
		a.historyCmd(),
		a.serveCmd(),
	)
	return root
}

// openHistory opens the draw history when one is configured.
func (a *app) openHistory(ctx context.Context) (*store.HistoryStore, error) {
	if a.cfg.Server.HistoryDB == "" {
		return nil, nil
	}
	return store.OpenHistory(ctx, a.cfg.Server.HistoryDB)
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the games directory over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// 1. Initialize the Lottery Service
			var history services.History
			historyStore, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			if historyStore != nil {
				defer historyStore.Close()
				history = historyStore
			}
			lotteryService := services.NewLotteryService(
				store.NewGameStore(a.cfg.Server.GamesDir), history, a.cfg.Server.DrawAttempts)

			// 2. Set up the Gin router
			r := gin.Default()
			handlers.NewHTTPHandler(lotteryService).RegisterRoutes(r)

			// 3. Start the background janitor to clean up inactive sessions
			go func() {
				ticker := time.NewTicker(10 * time.Minute)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						lotteryService.CleanUpInactiveSessions(a.cfg.Server.SessionTTL)
					case <-ctx.Done():
						return
					}
				}
			}()

			// 4. Run the server
			srv := &http.Server{Addr: a.cfg.Server.Addr, Handler: r}
			errCh := make(chan error, 1)
			go func() {
				logger.Infof("Server starting on %s", a.cfg.Server.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Infof("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
