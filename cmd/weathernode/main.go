// Weather Node - environmental telemetry for constrained Linux boards.
//
// The node samples a temperature/pressure sensor, serves a status page on
// the local network and forwards readings to a remote collector, keeping
// them in a durable offline queue while the link is down.
//
// Signals:
//   - SIGTERM: clean shutdown
//   - SIGINT:  restart by re-executing the binary (node.restart_on_interrupt)
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/weather-node/migrations"

	"github.com/nerrad567/weather-node/internal/connectivity"
	"github.com/nerrad567/weather-node/internal/indicator"
	"github.com/nerrad567/weather-node/internal/infrastructure/collector"
	"github.com/nerrad567/weather-node/internal/infrastructure/config"
	"github.com/nerrad567/weather-node/internal/infrastructure/database"
	"github.com/nerrad567/weather-node/internal/infrastructure/logging"
	"github.com/nerrad567/weather-node/internal/infrastructure/mqtt"
	"github.com/nerrad567/weather-node/internal/link"
	"github.com/nerrad567/weather-node/internal/panel"
	"github.com/nerrad567/weather-node/internal/queue"
	"github.com/nerrad567/weather-node/internal/responder"
	"github.com/nerrad567/weather-node/internal/scheduler"
	"github.com/nerrad567/weather-node/internal/sensor"
	"github.com/nerrad567/weather-node/internal/sink"
	"github.com/nerrad567/weather-node/internal/timesync"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// configEnv overrides defaultConfigPath.
const configEnv = "WEATHERNODE_CONFIG"

// errRestart is returned by run when an interrupt asked for a restart.
var errRestart = errors.New("restart requested")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)

	err := run(ctx, interrupts)
	if errors.Is(err, errRestart) {
		cancel()
		if execErr := restart(); execErr != nil {
			fmt.Fprintf(os.Stderr, "Error: restarting: %v\n", execErr)
			os.Exit(1)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// restart replaces the process with a fresh copy of the binary. Everything
// worth keeping is already in the offline queue.
func restart() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	return syscall.Exec(exe, os.Args, os.Environ())
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Cancelled on SIGTERM
//   - interrupts: SIGINT deliveries; each one stops the node, and requests a
//     restart when node.restart_on_interrupt is set (may be nil)
//
// Returns:
//   - error: nil on clean shutdown, errRestart, or a startup failure
func run(ctx context.Context, interrupts <-chan os.Signal) error {
	log := logging.Default()
	log.Info("starting weather node",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version).With("node_id", cfg.Node.ID)
	defer log.Close() //nolint:errcheck // Nothing left to log to
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
		"output", cfg.Logging.Output,
	)

	offline, closeQueue, err := openQueue(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeQueue.Close(); closeErr != nil {
			log.Error("error closing offline queue", "error", closeErr)
		}
	}()
	log.Info("offline queue ready",
		"backend", cfg.Queue.Backend,
		"pending", offline.Len(ctx),
	)

	source, err := sensor.New(cfg.Sensor, time.Now)
	if err != nil {
		return fmt.Errorf("creating sensor: %w", err)
	}
	if c, ok := source.(io.Closer); ok {
		defer c.Close() //nolint:errcheck // Best effort on shutdown
	}

	light, err := indicator.New(cfg.Indicator, log.With("component", "indicator"))
	if err != nil {
		return fmt.Errorf("creating indicator: %w", err)
	}

	var mqttClient *mqtt.Client
	if cfg.Link.Type == "mqtt" {
		mqttClient = mqtt.New(cfg.MQTT, cfg.Node.ID)
		mqttClient.SetLogger(log.With("component", "mqtt"))
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
	}

	netLink, closeLink, err := buildLink(ctx, cfg, mqttClient, log.With("component", "link"))
	if err != nil {
		return err
	}
	defer closeLink.Close() //nolint:errcheck // Background monitor only

	var publisher sink.ReadingPublisher
	if mqttClient != nil {
		publisher = mqttClient
	}
	transport, closeTransport, err := sink.NewTransport(cfg, publisher)
	if err != nil {
		return fmt.Errorf("creating %s transport: %w", cfg.Collector.Transport, err)
	}
	defer func() {
		if closeErr := closeTransport.Close(); closeErr != nil {
			log.Error("error closing transport", "transport", transport.Name(), "error", closeErr)
		}
	}()
	if checked, err := transportHealth(ctx, closeTransport, cfg.Collector.Timeout); err != nil {
		// Not fatal: readings queue until the backend recovers.
		log.Warn("transport health check failed", "transport", transport.Name(), "error", err)
	} else if checked {
		log.Info("transport healthy", "transport", transport.Name())
	}
	uploader := sink.NewUploader(transport, cfg.Collector.Timeout,
		sink.WithLogger(log.With("component", "sink")),
		sink.WithMemoryReclaim(cfg.Collector.ReclaimMemory),
	)

	supervisor := connectivity.New(
		connectivity.SettingsFrom(cfg.Scheduler),
		netLink,
		light,
		log.With("component", "connectivity"),
	)

	deps := scheduler.Deps{
		Config:     cfg.Scheduler,
		Sensor:     source,
		Queue:      offline,
		Sink:       uploader,
		Supervisor: supervisor,
		TimeCheck:  timesync.New(cfg.TimeService, collector.New(cfg.Collector), log.With("component", "timesync")),
		Logger:     log.With("component", "scheduler"),
	}

	if cfg.Responder.Enabled {
		resp, respErr := startResponder(cfg, log)
		if respErr != nil {
			return respErr
		}
		defer resp.Close() //nolint:errcheck // Listener only
		deps.Responder = resp
	} else {
		log.Info("status responder disabled")
	}

	sched, err := scheduler.New(deps)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	restartRequested := make(chan struct{})
	go watchInterrupts(runCtx, interrupts, cfg.Node.RestartOnInterrupt, stop, restartRequested, log)

	log.Info("initialisation complete",
		"link", cfg.Link.Type,
		"transport", transport.Name(),
		"tick_interval", cfg.Scheduler.TickInterval,
	)
	sched.Run(runCtx)

	select {
	case <-restartRequested:
		log.Info("restarting weather node")
		return errRestart
	default:
	}
	log.Info("weather node stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses WEATHERNODE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv(configEnv); path != "" {
		return path
	}
	return defaultConfigPath
}

// watchInterrupts stops the node on the first interrupt. When restart is
// set it closes restartRequested before stopping.
func watchInterrupts(ctx context.Context, interrupts <-chan os.Signal, restart bool, stop context.CancelFunc, restartRequested chan<- struct{}, log *logging.Logger) {
	select {
	case <-ctx.Done():
	case <-interrupts:
		if restart {
			log.Info("interrupt received, restarting")
			close(restartRequested)
		} else {
			log.Info("interrupt received, shutting down")
		}
		stop()
	}
}

// healthChecker is implemented by transport clients that can verify
// their backend, such as the InfluxDB client.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// transportHealth runs the transport client's health check, if it has one.
//
// Parameters:
//   - ctx: Context for cancellation
//   - client: The closer returned with the transport
//   - timeout: Upper bound for the check
//
// Returns:
//   - bool: Whether a check ran
//   - error: The check's failure, or nil if healthy
func transportHealth(ctx context.Context, client io.Closer, timeout time.Duration) (bool, error) {
	hc, ok := client.(healthChecker)
	if !ok {
		return false, nil
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return true, hc.HealthCheck(checkCtx)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openQueue opens the configured offline queue backend.
//
// Returns:
//   - queue.Queue: Ready queue
//   - io.Closer: Releases the backend (the database for sqlite)
//   - error: If the store cannot be opened or migrated
func openQueue(ctx context.Context, cfg *config.Config, log *logging.Logger) (queue.Queue, io.Closer, error) {
	queueLog := log.With("component", "queue")

	switch cfg.Queue.Backend {
	case "sqlite":
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close() //nolint:errcheck // Already failing
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		if err := db.HealthCheck(ctx); err != nil {
			db.Close() //nolint:errcheck // Already failing
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		log.Info("database ready", "path", db.Path())
		return queue.NewSQLite(db, queueLog), db, nil
	default:
		q, err := queue.NewFile(cfg.Queue.Path, queueLog)
		if err != nil {
			return nil, nil, fmt.Errorf("opening offline queue: %w", err)
		}
		return q, nopCloser{}, nil
	}
}

// buildLink creates the link driven by the connectivity supervisor.
func buildLink(ctx context.Context, cfg *config.Config, mqttClient *mqtt.Client, log *logging.Logger) (connectivity.Link, io.Closer, error) {
	switch cfg.Link.Type {
	case "static":
		return link.Static{}, nopCloser{}, nil
	case "probe":
		p := link.NewProbe(cfg.Link.ProbeAddress, cfg.Link.ProbeTimeout, cfg.Link.Keepalive, log)
		return p, p, nil
	case "nmcli":
		n := link.NewNMCLI(link.NMCLIConfig{
			SSID:      cfg.Link.SSID,
			Password:  cfg.Link.Password,
			Interface: cfg.Link.Interface,
			Keepalive: cfg.Link.Keepalive,
		}, nil, log)
		if cfg.Link.ScanOnStart {
			scanNetworks(ctx, n, log)
		}
		return n, n, nil
	case "mqtt":
		if mqttClient == nil {
			return nil, nil, fmt.Errorf("mqtt link requires an MQTT client")
		}
		return mqttClient, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown link type %q", cfg.Link.Type)
	}
}

// scanNetworks logs the visible Wi-Fi networks. Failure is not fatal.
func scanNetworks(ctx context.Context, n *link.NMCLI, log *logging.Logger) {
	networks, err := n.Scan(ctx)
	if err != nil {
		log.Warn("wifi scan failed", "error", err)
		return
	}
	log.Info("wifi scan complete", "networks", len(networks))
	for _, network := range networks {
		log.Info("wifi network", "ssid", network.SSID, "signal", network.Signal)
	}
}

// startResponder opens the status page listener. A node that cannot serve
// its status page does not start.
func startResponder(cfg *config.Config, log *logging.Logger) (*responder.Responder, error) {
	page, err := panel.New("")
	if err != nil {
		return nil, fmt.Errorf("loading status page: %w", err)
	}

	name := cfg.Node.Name
	if name == "" {
		name = cfg.Node.ID
	}

	resp, err := responder.Listen(cfg.Responder, name, page, log.With("component", "responder"))
	if err != nil {
		return nil, fmt.Errorf("starting status responder: %w", err)
	}
	log.Info("status responder listening", "address", resp.Addr().String())
	return resp, nil
}
