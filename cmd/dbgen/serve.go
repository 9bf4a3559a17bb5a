package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/logger"
	"github.com/koustreak/dbgen/internal/server"
)

func newServeCmd(rf *rootFlags) *cobra.Command {
	var addr, sinkName, root string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Browse generated files over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("sink") {
				cfg.Output.Sink = sinkName
			}
			if cmd.Flags().Changed("root") {
				cfg.Output.Root = root
			}

			ctx := cmd.Context()
			log := logger.New(cfg.LoggerConfig())
			files, err := openReader(ctx, cfg)
			if err != nil {
				return err
			}

			srv := server.New(files, log).HTTPServer(cfg.Server.Addr)
			return serve(ctx, srv, log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&sinkName, "sink", "", "fs or minio")
	cmd.Flags().StringVar(&root, "root", "", "root directory of the fs sink")
	return cmd
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, log *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errs.Wrap(errs.ErrKindConnectionFailed, "http server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errs.Wrap(errs.ErrKindTimeout, "http server shutdown", err)
	}
	return nil
}
