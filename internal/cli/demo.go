package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"merchant-desk/internal/server"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func (a *App) demoCommand() *cobra.Command {
	var seedPath string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Serve the HTTP API from in-memory stores",
		Long: "Serve the full HTTP API without PostgreSQL, Redis or Kafka. " +
			"Everything is kept in memory and lost on exit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stores := server.MemoryStores()
			if a.stores != nil {
				stores = *a.stores
			}

			if seedPath != "" {
				result, err := seedCatalog(ctx, stores, seedPath)
				if err != nil {
					return err
				}
				a.log.Info("Catalog seeded",
					zap.Int("categories", result.CategoriesCreated),
					zap.Int("products", result.ProductsCreated),
				)
			}

			cfg := *a.cfg
			if cfg.JWT.Secret == "" {
				cfg.JWT.Secret = uuid.NewString()
				a.log.Warn("JWT_SECRET not set, using a random secret for this run")
			}

			srv, err := server.NewServer(server.Deps{Config: &cfg, Logger: a.log, Stores: stores})
			if err != nil {
				return err
			}
			return serveUntilDone(ctx, srv, a.log)
		},
	}
	cmd.Flags().StringVar(&seedPath, "seed", "", "catalog seed file to load at startup")
	cmd.Flags().String("port", "", "listen port, overrides SERVER_PORT")
	viper.BindPFlag("SERVER_PORT", cmd.Flags().Lookup("port"))
	return cmd
}

func serveUntilDone(ctx context.Context, srv *server.Server, log *zap.Logger) error {
	errc := make(chan error, 1)
	go func() {
		log.Info("Demo server listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	return srv.Close()
}
