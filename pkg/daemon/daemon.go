// Package daemon hosts the alias store in a long-running process: it
// serializes store access, keeps local interfaces aliased and serves metrics.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/alias"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/config"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/metrics"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/nvstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// OpenStore creates the file storage described by cfg, locks its image and
// initializes an alias store on it. The caller owns the image until it
// closes the store. Opening an image another process holds fails with an
// error wrapping nvstore.ErrLocked.
func OpenStore(ctx context.Context, cfg *config.Config) (*alias.Store, alias.LoadStatus, error) {
	storage := nvstore.NewFileStorage(ctx, cfg.Storage.Path, cfg.RetryPolicy())
	if err := storage.Lock(cfg.Storage.LockTimeout.Duration); err != nil {
		return nil, alias.StatusLoaded, fmt.Errorf("failed to open alias store %s: %w", cfg.Storage.Path, err)
	}
	store := alias.New(storage,
		alias.WithCapacity(cfg.Capacity),
		alias.WithOffset(cfg.Storage.Offset),
		alias.WithObserver(metrics.Recorder{}),
	)
	status, err := store.Initialize()
	if err != nil {
		_ = store.Close()
		return nil, status, fmt.Errorf("failed to open alias store %s: %w", cfg.Storage.Path, err)
	}
	glog.Infof("Alias store %s %s (%d/%d entries)", cfg.Storage.Path, status, store.Len(), store.Cap())
	return store, status, nil
}

// Run opens the store and serves until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	store, _, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	host := NewHost(store)
	defer func() {
		if err := host.Close(); err != nil {
			glog.Warningf("Failed to release alias store: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	listener, err := net.Listen("tcp", cfg.Metrics.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Metrics.Address, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		glog.Infof("Serving metrics on %s", listener.Addr())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Sync.Enabled {
		syncer := NewSyncer(host, cfg.Sync.Interval.Duration)
		g.Go(func() error {
			syncer.Run(ctx)
			return nil
		})
	}

	err = g.Wait()
	glog.Infof("Alias daemon stopped (%d/%d entries)", host.Len(), host.Cap())
	return err
}
