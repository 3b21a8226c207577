package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/smazurov/livecast/cmd"
	"github.com/smazurov/livecast/internal/api"
	"github.com/smazurov/livecast/internal/config"
	"github.com/smazurov/livecast/internal/control"
	"github.com/smazurov/livecast/internal/encoder"
	"github.com/smazurov/livecast/internal/events"
	"github.com/smazurov/livecast/internal/instance"
	"github.com/smazurov/livecast/internal/logging"
	"github.com/smazurov/livecast/internal/metrics"
	"github.com/smazurov/livecast/internal/nats"
	"github.com/smazurov/livecast/internal/session"
	"github.com/smazurov/livecast/internal/stats"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings, empty disables auth
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Encoder settings
	EncoderBinary             string `help:"Encoder executable" default:"ffmpeg" toml:"encoder.binary" env:"ENCODER_BINARY"`
	EncoderInputFormat        string `help:"Capture input format" default:"dshow" toml:"encoder.input_format" env:"ENCODER_INPUT_FORMAT"`
	EncoderInputDevice        string `help:"Capture input device" default:"video=dummy:audio=dummy" toml:"encoder.input_device" env:"ENCODER_INPUT_DEVICE"`
	EncoderGracefulTimeout    string `help:"Time the encoder gets to exit after SIGINT" default:"5s" toml:"encoder.graceful_timeout" env:"ENCODER_GRACEFUL_TIMEOUT"`
	EncoderKillByNameFallback bool   `help:"Kill encoders by executable name when signalling fails" default:"false" toml:"encoder.kill_by_name_fallback" env:"ENCODER_KILL_BY_NAME_FALLBACK"`

	// UI settings
	Locale string `help:"Message locale (pt-BR, en)" default:"pt-BR" toml:"ui.locale" env:"UI_LOCALE"`

	// Runtime settings
	RuntimeLockFile string `help:"Single-instance lock file (default in the temp dir)" default:"" toml:"runtime.lock_file" env:"RUNTIME_LOCK_FILE"`
	MetricsEnabled  bool   `help:"Serve Prometheus metrics at /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// NATS settings, empty URL starts an embedded server
	NatsEnabled bool   `help:"Expose the session on NATS" default:"false" toml:"nats.enabled" env:"NATS_ENABLED"`
	NatsURL     string `help:"External NATS server URL" default:"" toml:"nats.url" env:"NATS_URL"`
	NatsPort    int    `help:"Embedded NATS server port" default:"4222" toml:"nats.port" env:"NATS_PORT"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSession string `help:"Session logging level" default:"info" toml:"logging.session" env:"LOGGING_SESSION"`
	LoggingEncoder string `help:"Encoder launcher logging level" default:"info" toml:"logging.encoder" env:"LOGGING_ENCODER"`
	LoggingFFmpeg  string `help:"Encoder output logging level" default:"info" toml:"logging.ffmpeg" env:"LOGGING_FFMPEG"`
	LoggingControl string `help:"Command facade logging level" default:"info" toml:"logging.control" env:"LOGGING_CONTROL"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP    string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingNats    string `help:"NATS logging level" default:"info" toml:"logging.nats" env:"LOGGING_NATS"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"session": o.LoggingSession,
			"encoder": o.LoggingEncoder,
			"ffmpeg":  o.LoggingFFmpeg,
			"control": o.LoggingControl,
			"api":     o.LoggingAPI,
			"http":    o.LoggingHTTP,
			"nats":    o.LoggingNats,
		},
	}
}

func (o *Options) settings() cmd.Settings {
	graceful, err := time.ParseDuration(o.EncoderGracefulTimeout)
	if err != nil {
		slog.Warn("Invalid encoder graceful timeout, using default", "value", o.EncoderGracefulTimeout, "error", err)
		graceful = 0
	}
	return cmd.Settings{
		Port:         o.Port,
		AuthUsername: o.AuthUsername,
		AuthPassword: o.AuthPassword,
		Encoder: encoder.Options{
			Binary:             o.EncoderBinary,
			InputFormat:        o.EncoderInputFormat,
			InputDevice:        o.EncoderInputDevice,
			GracefulTimeout:    graceful,
			KillByNameFallback: o.EncoderKillByNameFallback,
		},
		Locale:   o.Locale,
		LockFile: o.RuntimeLockFile,
		NatsURL:  o.NatsURL,
		NatsPort: o.NatsPort,
	}
}

// startNATS starts the embedded server unless an external URL is set, then
// the bridge. Failures are logged and leave NATS disabled.
func startNATS(settings *cmd.Settings, facade *control.Facade, store *stats.Store, bus *events.Bus) (*nats.Server, *nats.Bridge) {
	logger := logging.GetLogger("nats")

	var server *nats.Server
	if settings.NatsURL == "" {
		server = nats.NewServer(nats.ServerOptions{Port: settings.NatsPort, Logger: logger})
		if err := server.Start(); err != nil {
			logger.Error("Failed to start embedded NATS server, NATS disabled", "error", err)
			return nil, nil
		}
	}

	url := settings.NATSURL()
	if server != nil {
		url = server.ClientURL()
	}
	bridge := nats.NewBridge(url, facade, store, bus, logger)
	if err := bridge.Start(); err != nil {
		logger.Error("Failed to start NATS bridge, NATS disabled", "url", url, "error", err)
		if server != nil {
			server.Stop()
		}
		return nil, nil
	}
	return server, bridge
}

func main() {
	settings := &cmd.Settings{}

	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		// Subcommands read the merged settings; only the root command
		// reaches OnStart.
		*settings = opts.settings()

		var (
			lock          *instance.Lock
			manager       *session.Manager
			server        *api.Server
			watcher       *config.Watcher[logging.Config]
			natsServer    *nats.Server
			natsBridge    *nats.Bridge
			unsubscribers []func()
		)

		hooks.OnStart(func() {
			var err error
			lock, err = instance.Acquire(settings.LockFile)
			if err != nil {
				logger.Error("Failed to acquire instance lock", "error", err)
				os.Exit(1)
			}
			logger.Debug("Instance lock acquired", "path", lock.Path())

			eventBus := events.New()
			logging.SetLogCallback(func(entry logging.LogEntry) {
				eventBus.Publish(api.LogEntryEvent(entry))
			})

			manager = session.NewManager(
				encoder.NewProcessLauncher(settings.Encoder),
				session.WithEventBus(eventBus),
				session.WithStopWait(settings.Encoder.StopWait()),
			)
			store := stats.NewStore(stats.WithOnSet(func(st stats.StreamStats) {
				eventBus.Publish(events.StatsUpdatedEvent{
					Bitrate:        st.Bitrate,
					FPS:            st.FPS,
					DroppedFrames:  st.DroppedFrames,
					NetworkQuality: st.NetworkQuality,
					UptimeSeconds:  st.UptimeSeconds,
					Timestamp:      time.Now().Format(time.RFC3339),
				})
			}))
			facade := control.New(manager, store, control.WithLocale(settings.Locale))
			logger.Info("Command facade ready", "locale", facade.Locale().String())

			apiOpts := &api.Options{
				AuthUsername: settings.AuthUsername,
				AuthPassword: settings.AuthPassword,
				Facade:       facade,
				EventBus:     eventBus,
			}

			if opts.MetricsEnabled {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
					metrics.NewCollector(facade),
				)
				unsubscribers = append(unsubscribers, metrics.New(reg).Subscribe(eventBus))
				apiOpts.MetricsHandler = metrics.Handler(reg)
			}

			if opts.NatsEnabled {
				natsServer, natsBridge = startNATS(settings, facade, store, eventBus)
			}

			server = api.NewServer(apiOpts)

			watcher = config.NewConfigWatcher(opts.Config, config.LoadLoggingConfig, logger)
			unsubscribers = append(unsubscribers, watcher.OnReload(func(cfg logging.Config) {
				logger.Info("Logging configuration reloaded", "level", cfg.Level)
				logging.Reconfigure(cfg)
			}))
			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Failed to start config watcher, hot-reload disabled", "error", watchErr)
				watcher = nil
			}

			if _, notifyErr := daemon.SdNotify(false, daemon.SdNotifyReady); notifyErr != nil {
				logger.Debug("sd_notify failed", "error", notifyErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

			if server != nil {
				if stopErr := server.Stop(); stopErr != nil {
					logger.Error("Error stopping HTTP server", "error", stopErr)
				}
			}

			if natsBridge != nil {
				natsBridge.Stop()
			}
			if natsServer != nil {
				natsServer.Stop()
			}

			// Stop the encoder after the API and NATS stop accepting commands.
			if manager != nil {
				if closeErr := manager.Close(); closeErr != nil {
					logger.Error("Failed to stop active session", "error", closeErr)
				}
			}

			if watcher != nil {
				if stopErr := watcher.Stop(); stopErr != nil {
					logger.Warn("Error stopping config watcher", "error", stopErr)
				}
			}
			for _, unsub := range unsubscribers {
				unsub()
			}
			logging.SetLogCallback(nil)

			if lock != nil {
				if releaseErr := lock.Release(); releaseErr != nil {
					logger.Warn("Failed to release instance lock", "error", releaseErr)
				}
			}
		})
	})

	cli.Root().Use = "livecast"
	cli.Root().Short = "Local live-streaming controller"
	cli.Root().AddCommand(
		cmd.CreateStreamCmd(settings),
		cmd.CreateCommandCmd(settings),
		cmd.CreateStatusCmd(settings),
		cmd.CreateLogsCmd(settings),
		cmd.CreateRemoteCmd(settings),
	)

	cli.Run()
}
