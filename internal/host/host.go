// Package host runs a supervision run either in the foreground of a console
// or under the Windows service control manager, together with its optional
// metrics endpoint and control socket.
package host

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/verboten/internal/config"
	"github.com/turtacn/verboten/internal/control"
	"github.com/turtacn/verboten/internal/lifecycle"
	"github.com/turtacn/verboten/internal/monitor"
	"github.com/turtacn/verboten/internal/supervisor"
	"github.com/turtacn/verboten/pkg/logger"
)

// Options wires one run to its host.
type Options struct {
	Settings *config.Settings
	Log      logger.Logger
	// Spawner overrides how the child is started; nil starts real processes.
	Spawner supervisor.Spawner
}

type run struct {
	svc      *lifecycle.Service
	metrics  *monitor.Metrics
	registry *prometheus.Registry
	log      logger.Logger
	settings *config.Settings
}

func newRun(opts Options) *run {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	reg := prometheus.NewRegistry()
	m := monitor.NewMetrics(reg, log.With("component", "metrics"))
	svc := lifecycle.New(lifecycle.Options{
		Config:   opts.Settings.Child,
		Spawner:  opts.Spawner,
		Tick:     opts.Settings.Tick,
		Observer: m,
		Log:      log,
	})
	return &run{svc: svc, metrics: m, registry: reg, log: log, settings: opts.Settings}
}

// serveMetrics adds the metrics endpoint to g when one is configured.
func (r *run) serveMetrics(ctx context.Context, g *errgroup.Group, status monitor.StatusFunc) {
	addr := r.settings.MetricsAddr
	if addr == "" {
		return
	}
	g.Go(func() error {
		return monitor.Serve(ctx, addr, monitor.NewRouter(r.registry, status), r.log.With("component", "http"))
	})
}

// ConsoleReporter logs status reports and remembers the last one.
type ConsoleReporter struct {
	log     logger.Logger
	metrics *monitor.Metrics

	mu   sync.Mutex
	last lifecycle.Status
}

func NewConsoleReporter(log logger.Logger, m *monitor.Metrics) *ConsoleReporter {
	return &ConsoleReporter{log: log, metrics: m}
}

func (c *ConsoleReporter) Report(st lifecycle.Status) error {
	c.mu.Lock()
	c.last = st
	c.mu.Unlock()

	c.log.Info("Service status", "status", st.String(), "wait_hint", st.WaitHint.String())
	if c.metrics != nil {
		c.metrics.ObserveReport(st.State.String())
	}
	return nil
}

// Last returns the last reported status, or "" before the first report.
func (c *ConsoleReporter) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last.State == 0 {
		return ""
	}
	return c.last.String()
}

// RunConsole supervises the child in the foreground. Interrupt, SIGTERM or
// cancelling ctx deliver a stop control; so does a failing side server,
// whose error is then returned.
func RunConsole(ctx context.Context, opts Options) error {
	r := newRun(opts)
	rep := NewConsoleReporter(r.log, r.metrics)
	bridge := r.svc.Bridge()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return r.svc.Run(rep)
	})
	r.serveMetrics(gctx, g, rep.Last)
	if sock := r.settings.ControlSocket; sock != "" {
		g.Go(func() error {
			return control.NewServer(sock, bridge, r.log.With("component", "control")).Serve(gctx)
		})
	}
	g.Go(func() error {
		select {
		case sig := <-sigs:
			r.log.Info("Signal received, stopping", "signal", sig.String())
		case <-gctx.Done():
		}
		bridge.HandleControl(lifecycle.ControlStop)
		// No control source is left once the watcher gives up.
		bridge.Close()
		return nil
	})

	return g.Wait()
}

// Personal.AI order the ending
