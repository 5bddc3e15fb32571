package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/rf2tools/rf2sync/internal/api"
	"github.com/rf2tools/rf2sync/internal/config"
	"github.com/rf2tools/rf2sync/internal/dispatcher"
	"github.com/rf2tools/rf2sync/internal/influx"
	"github.com/rf2tools/rf2sync/internal/logging"
	"github.com/rf2tools/rf2sync/internal/monitor"
	intOtel "github.com/rf2tools/rf2sync/internal/otel"
	"github.com/rf2tools/rf2sync/internal/procwatch"
	"github.com/rf2tools/rf2sync/internal/recorder"
	"github.com/rf2tools/rf2sync/internal/session"
	"github.com/rf2tools/rf2sync/internal/storage"
	"github.com/rf2tools/rf2sync/pkg/rf2data"
	"github.com/rf2tools/rf2sync/pkg/rf2sm"
)

// queueReporter is implemented by the batch-writing backends.
type queueReporter interface {
	QueueLengths() map[string]int
}

// newClient builds the shared memory client from the loaded config.
func newClient() (*rf2sm.Client, error) {
	shm := config.GetSharedMemoryConfig()
	syncCfg := config.GetSyncConfig()

	client, err := rf2sm.New(rf2sm.Config{
		Mode:             rf2data.ParseAccessMode(shm.AccessMode),
		PID:              shm.PID,
		ShmDir:           shm.ShmDir,
		ActiveInterval:   syncCfg.ActiveInterval,
		IdleInterval:     syncCfg.IdleInterval,
		FreezeWindow:     syncCfg.FreezeWindow,
		MaxResolveMisses: syncCfg.MaxResolveMisses,
	}, Logger)
	if err != nil {
		return nil, fmt.Errorf("creating shared memory client: %w", err)
	}
	if shm.OverridePlayer {
		client.SetPlayerOverride(shm.PlayerIndex)
	}
	return client, nil
}

// setupLogging switches logging to the session log file, with OTel and
// Graylog when configured.
func setupLogging(sessionCtx *session.Context) (logFile *os.File, provider *intOtel.Provider, closers []io.Closer) {
	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
	}

	logFilePath := logging.LogFilePath(logsDir, AppName, SessionStartTime)
	if _, err := os.Stat(logFilePath); err == nil {
		_ = os.Rename(logFilePath, logFilePath+".old")
	}
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", logFilePath)
		logFile = nil
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled && logFile != nil {
		provider, err = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			ServiceVersion: Version,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      logFile,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
			MetricWriter:   logFile,
			MetricInterval: otelCfg.MetricInterval,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
			provider = nil
		} else {
			Logger.Info("OTel provider initialized", "file", logFilePath, "endpoint", otelCfg.Endpoint)
		}
	}

	opts := []logging.SetupOption{logging.WithContext(sessionCtx.LogAttrs), logging.WithConsole("warn")}
	graylogCfg := config.GetGraylogConfig()
	if graylogCfg.Enabled {
		w, err := logging.NewGraylogWriter(graylogCfg.Address)
		if err != nil {
			Logger.Warn("Graylog disabled", "error", err)
		} else {
			opts = append(opts, logging.WithGraylog(w))
			closers = append(closers, w)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if provider != nil {
		otelLogProvider = provider.LoggerProvider()
	}
	var out io.Writer
	if logFile != nil {
		out = logFile
	}
	SlogManager.Setup(out, logLevel(), otelLogProvider, opts...)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", logFilePath, "version", Version)
	return logFile, provider, closers
}

func run() error {
	sessionCtx := session.NewContext()
	logFile, otelProvider, closers := setupLogging(sessionCtx)
	if logFile != nil {
		defer logFile.Close()
	}
	for _, c := range closers {
		defer c.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// shared memory
	client, err := newClient()
	if err != nil {
		return err
	}
	if err := client.Start(); err != nil {
		return err
	}
	defer client.Stop()
	if vs := client.VersionCheck(); !vs.Verified {
		Logger.Warn("Plugin not verified", "version", vs.Version, "message", vs.Message)
	}

	// storage
	backend, err := storage.NewBackend(config.GetStorageConfig(), storage.Options{
		DB:      config.GetDBConfig(),
		Logger:  Logger,
		Version: Version,
	})
	if err != nil {
		return fmt.Errorf("creating storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing storage backend: %w", err)
	}
	Logger.Info("Storage backend initialized", "type", config.GetStorageConfig().Type)

	sinks := []recorder.Sink{backend}

	// influx
	var influxManager *influx.Manager
	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		var zw io.Writer = os.Stdout
		if logFile != nil {
			zw = logFile
		}
		backupPath := logging.SessionFilePath(viper.GetString("logsDir"), "influx_backup", "lp.gz", SessionStartTime)
		influxManager = influx.NewManager(influxCfg, logging.NewZerolog(zw, logLevel(), "influx"), backupPath)
		if err := influxManager.Connect(ctx); err != nil {
			Logger.Error("InfluxDB unavailable", "error", err)
			influxManager = nil
		} else {
			sinks = append(sinks, influx.NewSink(influxManager))
		}
	}

	// upload exported sessions
	if up, ok := backend.(storage.Uploadable); ok && viper.GetString("api.apiKey") != "" {
		apiClient := api.New(viper.GetString("api.serverUrl"), viper.GetString("api.apiKey"))
		if err := apiClient.Healthcheck(); err != nil {
			Logger.Info("Archive server is offline", "error", err)
		} else {
			Logger.Info("Archive server is online")
		}
		sinks = append(sinks, &uploadSink{client: apiClient, source: up})
	}

	// events
	eventDispatcher, err := dispatcher.New(Logger)
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	recorder.RegisterSinks(eventDispatcher, sinks...)

	var rec *recorder.Recorder
	recCfg := config.GetRecorderConfig()
	if recCfg.Enabled {
		rec, err = recorder.New(recorder.Config{
			SampleInterval: recCfg.SampleInterval,
			TraceEvery:     recCfg.TraceEvery,
		}, client, eventDispatcher, sessionCtx, Logger)
		if err != nil {
			return fmt.Errorf("creating recorder: %w", err)
		}
		rec.Start(ctx)
	}

	// status
	deps := monitor.Dependencies{
		Client:         client,
		SessionContext: sessionCtx,
		OutputDir:      viper.GetString("logsDir"),
		Logger:         Logger,
	}
	if qr, ok := backend.(queueReporter); ok {
		deps.WriteQueues = qr.QueueLengths
	}
	if influxManager != nil {
		deps.Influx = influxManager
	}
	monitorService := monitor.NewService(deps)
	if err := monitorService.Start(); err != nil {
		Logger.Error("Failed to start status monitor", "error", err)
	}

	waitWatch := startSimulatorWatch(ctx, procwatch.New(config.GetProcessConfig(), client.IsSharedMemoryAvailable, nil), Logger)

	Logger.Info("Running", "pid", os.Getpid())
	<-ctx.Done()
	Logger.Info("Shutting down...")

	// the watcher reads the client, which the deferred Stop unmaps
	waitWatch()

	// recorder first so the open session ends before the sinks close
	if rec != nil {
		rec.Stop()
	}
	monitorService.Stop()
	eventDispatcher.Close()

	var errs []error
	if err := backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing storage: %w", err))
	}
	if influxManager != nil {
		if err := influxManager.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing influx: %w", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := SlogManager.Flush(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if otelProvider != nil {
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// startSimulatorWatch logs when the simulator process comes and goes until
// ctx is done. The returned func blocks until the watcher has exited.
func startSimulatorWatch(ctx context.Context, w *procwatch.Watcher, log *slog.Logger) (wait func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		watchSimulator(ctx, w, log)
	}()
	return func() { <-done }
}

func watchSimulator(ctx context.Context, w *procwatch.Watcher, log *slog.Logger) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	running := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := w.IsRunning()
			if now == running {
				continue
			}
			running = now
			if running {
				log.Info("Simulator running", "pid", w.PID())
			} else {
				log.Info("Simulator not running")
			}
		}
	}
}
