package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/songtag/internal/adapters/fetch"
	"github.com/mikey-austin/songtag/internal/adapters/mqttserver"
	"github.com/mikey-austin/songtag/internal/lookup"
	embeddedmqtt "github.com/mikey-austin/songtag/internal/modules/embedded_mqtt"
	taglookup "github.com/mikey-austin/songtag/internal/modules/tag_lookup"
	"github.com/mikey-austin/songtag/internal/songtagd"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

const (
	moduleTagLookup    = "tag_lookup"
	moduleEmbeddedMQTT = "embedded_mqtt"
)

func main() {
	var (
		configPath  string
		broker      string
		identity    string
		topicBase   string
		logLevel    string
		logFormat   string
		printConfig bool
		dryRun      bool
		moduleOnly  string
	)

	defaultConfig, err := songtagd.DefaultConfigPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	flag.StringVar(&configPath, "config", defaultConfig, "config file path")
	flag.StringVar(&broker, "broker", "", "MQTT broker URL override")
	flag.StringVar(&identity, "identity", "", "server identity override")
	flag.StringVar(&topicBase, "topic-base", "", "topic base override")
	flag.StringVar(&logLevel, "log-level", "", "log level override")
	flag.StringVar(&logFormat, "log-format", "", "log format override (text|json)")
	flag.StringVar(&moduleOnly, "module", "", "limit to a single module (tag_lookup|embedded_mqtt)")
	flag.BoolVar(&printConfig, "print-config", false, "print resolved config and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "validate config and exit")
	flag.Parse()

	cfg, err := songtagd.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyOverrides(&cfg, broker, identity, topicBase, logLevel, logFormat)

	if printConfig {
		printResolvedConfig(os.Stdout, cfg)
		return
	}
	if dryRun {
		return
	}

	logger := songtagd.NewLogger(songtagd.LogConfig{
		Level:  cfg.Server.LogLevel,
		Format: cfg.Server.LogFormat,
		Output: cfg.Server.LogOutput,
		UTC:    cfg.Server.LogUTC,
	})
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	skipEmbedded := false
	if moduleOnly != moduleEmbeddedMQTT && cfg.Modules.EmbeddedMQTT.Enabled && cfg.Server.Broker == embeddedBrokerURL(cfg) {
		if err := startEmbeddedBroker(ctx, cfg, logger, cancel); err != nil {
			logger.Error("embedded mqtt failed", zap.Error(err))
			os.Exit(1)
		}
		skipEmbedded = true
	}

	if cfg.Server.Broker == "" {
		logger.Error("broker is required")
		os.Exit(1)
	}
	logger.Info("songtagd starting",
		zap.String("broker", cfg.Server.Broker),
		zap.String("identity", cfg.Server.Identity),
		zap.String("topic_base", cfg.Server.TopicBase),
		zap.Strings("modules", enabledModules(cfg)),
	)

	var client *mqttserver.Client
	if moduleOnly != moduleEmbeddedMQTT && cfg.Modules.TagLookup.Enabled {
		client, err = mqttserver.NewClient(mqttserver.Options{
			BrokerURL: cfg.Server.Broker,
			ClientID:  fmt.Sprintf("songtagd-%d", time.Now().UnixNano()),
			Username:  cfg.Server.Auth.User,
			Password:  cfg.Server.Auth.Pass,
			TLSCA:     cfg.Server.TLS.CA,
			TLSCert:   cfg.Server.TLS.Cert,
			TLSKey:    cfg.Server.TLS.Key,
			Timeout:   2 * time.Second,
			Logger:    logger.With(zap.String("component", "mqtt")),
			Debug:     cfg.Server.MQTTDebug,
			WillTopic: songtag.TopicPresence(cfg.Server.TopicBase, cfg.Modules.TagLookup.NodeID),
		})
		if err != nil {
			logger.Error("mqtt connection failed", zap.Error(err))
			os.Exit(1)
		}
		defer client.Close()
	}

	modules, err := buildModules(cfg, client, logger, moduleOnly, skipEmbedded)
	if err != nil {
		logger.Error("failed to build modules", zap.Error(err))
		os.Exit(1)
	}

	supervisor := songtagd.Supervisor{Logger: logger}
	if err := supervisor.Run(ctx, modules); err != nil {
		logger.Error("supervisor error", zap.Error(err))
		os.Exit(1)
	}
}

func applyOverrides(cfg *songtagd.Config, broker string, identity string, topicBase string, logLevel string, logFormat string) {
	if broker != "" {
		cfg.Server.Broker = broker
	}
	if identity != "" {
		cfg.Server.Identity = identity
	}
	if topicBase != "" {
		cfg.Server.TopicBase = topicBase
	}
	if logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.Server.LogFormat = logFormat
	}
	if cfg.Server.TopicBase == "" {
		cfg.Server.TopicBase = songtag.BaseTopic
	}
	if cfg.Server.Identity == "" {
		cfg.Server.Identity = "songtagd"
	}
	if cfg.Modules.TagLookup.NodeID == "" {
		cfg.Modules.TagLookup.NodeID = "songtag:lookup:" + hostname()
	}
	if cfg.Server.Broker == "" && cfg.Modules.EmbeddedMQTT.Enabled {
		cfg.Server.Broker = embeddedBrokerURL(*cfg)
	}
}

func buildModules(cfg songtagd.Config, client *mqttserver.Client, logger *zap.Logger, moduleOnly string, skipEmbedded bool) ([]songtagd.ModuleRunner, error) {
	modules := []songtagd.ModuleRunner{}
	if cfg.Modules.EmbeddedMQTT.Enabled && !skipEmbedded {
		if moduleOnly == "" || moduleOnly == moduleEmbeddedMQTT {
			mod, err := embeddedmqtt.NewModule(logger.With(zap.String("module", moduleEmbeddedMQTT)), embeddedConfig(cfg))
			if err != nil {
				return nil, err
			}
			modules = append(modules, songtagd.ModuleRunner{
				Name: moduleEmbeddedMQTT,
				Run:  mod.Run,
			})
		}
	}

	if cfg.Modules.TagLookup.Enabled {
		if moduleOnly == "" || moduleOnly == moduleTagLookup {
			tl := cfg.Modules.TagLookup
			providers, err := songtag.ParseProviders(tl.Providers)
			if err != nil {
				return nil, err
			}
			log := logger.With(zap.String("module", moduleTagLookup))
			fetcher := fetch.NewClient(log.Named("fetch"), fetch.Options{
				Timeout:       tl.Timeout(),
				CacheSize:     tl.CacheSize,
				CacheTTL:      tl.CacheTTL(),
				CacheCompress: tl.CacheCompress,
				UserAgent:     tl.UserAgent,
			})
			mod, err := taglookup.NewModule(log, client, lookup.New(fetcher, log.Named("lookup")), taglookup.Config{
				NodeID:      tl.NodeID,
				TopicBase:   cfg.Server.TopicBase,
				Name:        tl.Name,
				Providers:   providers,
				Limit:       tl.Limit,
				Timeout:     tl.Timeout(),
				MaxInflight: tl.MaxInflight,
			})
			if err != nil {
				return nil, err
			}
			modules = append(modules, songtagd.ModuleRunner{
				Name: moduleTagLookup,
				Run:  mod.Run,
			})
		}
	}

	if moduleOnly != "" && len(modules) == 0 {
		return nil, errors.New("no modules enabled")
	}
	return modules, nil
}

func enabledModules(cfg songtagd.Config) []string {
	out := []string{}
	if cfg.Modules.EmbeddedMQTT.Enabled {
		out = append(out, moduleEmbeddedMQTT)
	}
	if cfg.Modules.TagLookup.Enabled {
		out = append(out, moduleTagLookup)
	}
	return out
}

func printResolvedConfig(w io.Writer, cfg songtagd.Config) {
	fmt.Fprintf(w,
		"broker=%s identity=%s topic_base=%s log_level=%s log_format=%s node_id=%s providers=%v modules=%v\n",
		cfg.Server.Broker,
		cfg.Server.Identity,
		cfg.Server.TopicBase,
		cfg.Server.LogLevel,
		cfg.Server.LogFormat,
		cfg.Modules.TagLookup.NodeID,
		cfg.Modules.TagLookup.Providers,
		enabledModules(cfg),
	)
}

func embeddedConfig(cfg songtagd.Config) embeddedmqtt.Config {
	return embeddedmqtt.Config{
		Listen:         cfg.Modules.EmbeddedMQTT.Listen,
		TopicBase:      cfg.Server.TopicBase,
		AllowAnonymous: cfg.Modules.EmbeddedMQTT.AllowAnonymous,
		Username:       cfg.Modules.EmbeddedMQTT.Username,
		Password:       cfg.Modules.EmbeddedMQTT.Password,
		TLSCA:          cfg.Modules.EmbeddedMQTT.TLSCA,
		TLSCert:        cfg.Modules.EmbeddedMQTT.TLSCert,
		TLSKey:         cfg.Modules.EmbeddedMQTT.TLSKey,
	}
}

func embeddedListen(cfg songtagd.Config) string {
	if cfg.Modules.EmbeddedMQTT.Listen == "" {
		return embeddedmqtt.DefaultListen
	}
	return cfg.Modules.EmbeddedMQTT.Listen
}

func embeddedBrokerURL(cfg songtagd.Config) string {
	return embeddedmqtt.BrokerURL(embeddedListen(cfg), embeddedConfig(cfg).TLSEnabled())
}

// startEmbeddedBroker runs the broker outside the supervisor so it is
// listening before the lookup module connects.
func startEmbeddedBroker(ctx context.Context, cfg songtagd.Config, logger *zap.Logger, cancel context.CancelFunc) error {
	mod, err := embeddedmqtt.NewModule(logger.With(zap.String("module", moduleEmbeddedMQTT)), embeddedConfig(cfg))
	if err != nil {
		return err
	}
	go func() {
		if err := mod.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("embedded mqtt exited", zap.Error(err))
			cancel()
		}
	}()
	return waitForListen(embeddedListen(cfg), 3*time.Second)
}

func waitForListen(listen string, timeout time.Duration) error {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return err
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	addr := net.JoinHostPort(host, port)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("embedded mqtt not ready at %s", addr)
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "default"
	}
	return name
}
