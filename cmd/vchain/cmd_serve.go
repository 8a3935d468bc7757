package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/vchain/internal/api"
	"github.com/persistorai/vchain/internal/config"
	"github.com/persistorai/vchain/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only status API and Prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.LoadRunParams(rf.paramsPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				p.Seeds = rf.seeds
			}

			// Seeds are optional here; requests may supply their own.
			pred, err := p.Predicate()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := openStore(ctx)
			defer s.Close() //nolint:errcheck // process is exiting.

			router := api.NewRouter(&api.RouterDeps{
				Log:     log,
				Store:   s,
				Planner: service.NewPlanner(s, log),
				Defaults: api.PlanDefaults{
					Collection: cfg.Collection,
					Predicate:  pred,
					Seeds:      p.Seeds,
					MaxDepth:   p.MaxDepth,
					MaxFetch:   p.MaxFetchPerRun,
				},
				Backend:     cfg.StoreBackend,
				CORSOrigins: cfg.CORSOrigins,
				Version:     config.Version,
			})

			srv := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           router,
				ReadHeaderTimeout: 5 * time.Second,
				WriteTimeout:      time.Minute,
				IdleTimeout:       2 * time.Minute,
			}

			errCh := make(chan error, 1)
			go func() {
				log.WithField("addr", srv.Addr).Info("status API listening")
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

			log.Info("shutting down status API")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&rf.paramsPath, "params", "", "YAML run parameter file for default seeds and selection")
	cmd.Flags().StringSliceVar(&rf.seeds, "seed", nil, "Default seed identifier (repeatable)")

	return cmd
}
