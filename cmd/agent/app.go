package agent

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"driver-link/internal/general/config"
	"driver-link/internal/general/jwt"
	"driver-link/internal/general/logger"
	"driver-link/internal/general/orderapi"
	"driver-link/internal/general/position"
	"driver-link/internal/general/rabbitmq"
	"driver-link/internal/general/statestore"
	"driver-link/internal/general/wake"
	"driver-link/internal/general/websocket"
	"driver-link/internal/ports"
	"driver-link/internal/software/control/handler"
	"driver-link/internal/software/dispatch"
	supervisorservice "driver-link/internal/software/supervisor/service"
	"driver-link/internal/software/telemetry"
	tripservice "driver-link/internal/software/trip/service"

	"golang.org/x/sync/errgroup"
)

const (
	serviceName    = "driver-link-agent"
	resumeLockWait = 15 * time.Second
)

// Run starts the agent. It returns when a signal arrives, or right away when a resume
// trigger finds the driver offline or another agent already running.
func Run(ctx context.Context, configPath string, reason supervisorservice.Reason) error {
	// set up the logger with a static request ID for startup logs
	log := logger.New(serviceName)
	ctx = log.WithRequestID(ctx, "startup-001")

	// load configuration
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load configuration", err, map[string]any{"path": configPath})
		return err
	}

	// one agent per data directory; a resume may race the exit of the agent it replaces
	var lock *wake.InstanceLock
	if reason.Resuming() {
		lock, err = wake.WaitInstanceLock(ctx, cfg.Supervisor.DataDir, resumeLockWait, 250*time.Millisecond)
	} else {
		lock, err = wake.AcquireInstanceLock(cfg.Supervisor.DataDir)
	}
	if errors.Is(err, wake.ErrAlreadyRunning) {
		log.Info(ctx, "agent_already_running", "Another agent holds the instance lock", map[string]any{"reason": string(reason)})
		return nil
	}
	if err != nil {
		log.Error(ctx, "agent_lock_failed", "Failed to take the instance lock", err, nil)
		return err
	}
	defer lock.Release()

	// signals decide how the supervisor shuts down
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	// persisted flags
	store, err := statestore.Open(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "state_store_failed", "Failed to open state store", err, map[string]any{"backend": cfg.State.Backend})
		return err
	}
	defer store.Close()

	// optional event journal
	journal, closeJournal := openJournal(ctx, cfg, log)
	defer closeJournal()

	// dispatch session and its consumers
	session := websocket.NewSession(websocket.Options{
		URL:              cfg.Dispatch.WSURL,
		ReconnectDelay:   cfg.Session.ReconnectDelay,
		PingInterval:     cfg.Session.PingInterval,
		WriteTimeout:     cfg.Session.WriteTimeout,
		HandshakeTimeout: cfg.Session.HandshakeTimeout,
	}, log)
	listener := dispatch.NewListener(session.Events(), log)
	scheduler := telemetry.NewScheduler(session, log)
	positions := position.NewManual(4 * cfg.Telemetry.Interval)

	// trip lifecycle over the order API
	api := orderapi.NewClient(orderapi.Options{
		BaseURL: cfg.Dispatch.APIBaseURL,
		Timeout: cfg.Dispatch.RequestTimeout,
	}, store, log)
	trips := tripservice.NewTripService(log, api, store, journal)

	// supervisor with its durable triggers
	launcher := &wake.ExecLauncher{BaseArgs: []string{"--config=" + configPath}, Logger: log}
	supervisor := supervisorservice.NewSupervisor(log, store, session, scheduler, positions,
		wake.NewStatusFile(cfg.Supervisor.DataDir), launcher, journal,
		supervisorservice.Options{
			BootID:            wake.BootID(),
			TelemetryInterval: cfg.Telemetry.Interval,
			DismissWakeDelay:  cfg.Supervisor.DismissWakeDelay,
		})
	listener.OnConnected(supervisor.OnConnected)
	listener.OnConnectionError(supervisor.OnConnectionError)
	listener.OnAuthError(supervisor.OnAuthError)
	orders := listener.Subscribe(32)
	defer orders.Close()

	// local control API
	var auth *jwt.Manager
	if strings.TrimSpace(cfg.JWT.SecretKey) != "" {
		auth = jwt.NewManager(cfg.JWT.SecretKey, 12*time.Hour)
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	srv := &http.Server{
		Addr:              cfg.Control.Addr,
		Handler:           handler.NewControlHandler(supervisor, trips, log, auth).Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      45 * time.Second, // step calls may take the full request timeout
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return runCtx },
	}

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		if err := listener.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		trips.Consume(gctx, orders.C)
		return nil
	})
	g.Go(func() error {
		log.Info(ctx, "control_api_start", "Control API listening", map[string]any{"addr": cfg.Control.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "control_api_failed", "Control API failed", err, nil)
			return err
		}
		return nil
	})
	g.Go(func() error {
		kind := supervisorservice.ShutdownStop
		select {
		case sig := <-sigCh:
			kind = shutdownKind(sig)
			log.Info(ctx, "shutdown_signal", "Shutdown signal received", map[string]any{"signal": sig.String()})
		case <-gctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "control_api_shutdown_failed", "Control API shutdown failed", err, nil)
		}
		supervisor.Shutdown(shutdownCtx, kind)
		cancel()
		return nil
	})

	// resume check runs once the consumers are up
	resumed, err := supervisor.Start(gctx, reason)
	switch {
	case err != nil:
		log.Error(ctx, "agent_start_failed", "Supervisor failed to start", err, nil)
		cancel()
	case !resumed && reason.Resuming():
		// nothing to resume: leave without holding resources
		cancel()
	}

	if werr := g.Wait(); werr != nil && err == nil {
		err = werr
	}
	log.Info(ctx, "agent_stopped", "Agent stopped", nil)
	return err
}

// shutdownKind maps a signal to how the supervisor leaves. SIGINT is an operator stop.
func shutdownKind(sig os.Signal) supervisorservice.ShutdownKind {
	if sig == syscall.SIGINT {
		return supervisorservice.ShutdownStop
	}
	return supervisorservice.ShutdownDismissed
}

// openJournal connects the event journal when enabled. A broker outage never stops the agent.
func openJournal(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.EventPublisher, func()) {
	if !cfg.RabbitMQ.Enabled {
		return rabbitmq.Nop{}, func() {}
	}
	client, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, log)
	if err != nil {
		log.Warn(ctx, "journal_disabled", "RabbitMQ unreachable, journal disabled", err, nil)
		return rabbitmq.Nop{}, func() {}
	}
	return rabbitmq.NewJournal(client), client.Close
}
