package main

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey-austin/songtag/internal/adapters/clock"
	"github.com/mikey-austin/songtag/internal/adapters/config"
	"github.com/mikey-austin/songtag/internal/adapters/fetch"
	"github.com/mikey-austin/songtag/internal/adapters/idgen"
	"github.com/mikey-austin/songtag/internal/adapters/localtags"
	"github.com/mikey-austin/songtag/internal/adapters/mqtt"
	"github.com/mikey-austin/songtag/internal/adapters/output"
	"github.com/mikey-austin/songtag/internal/core"
	"github.com/mikey-austin/songtag/internal/lookup"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

type app struct {
	service   core.Service
	printer   output.Printer
	providers []string
	timeout   time.Duration
}

type globalFlags struct {
	broker    string
	node      string
	topicBase string
	identity  string
	timeout   time.Duration
	jsonOut   bool
	verbose   bool
	providers []string
	tlsCA     string
	tlsCert   string
	tlsKey    string
	user      string
	pass      string
}

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(core.ExitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "songtag",
		Short:         "Look up song tags, lyrics and artwork",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.broker, "broker", "b", "", "MQTT broker URL; lookups run in-process when empty")
	pf.StringVarP(&flags.node, "node", "n", "", "lookup node id or alias")
	pf.StringVar(&flags.topicBase, "topic-base", songtag.BaseTopic, "MQTT topic base")
	pf.StringVarP(&flags.identity, "identity", "i", "", "client identity")
	pf.DurationVarP(&flags.timeout, "timeout", "t", 0, "command timeout")
	pf.BoolVarP(&flags.jsonOut, "json", "j", false, "output json")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "verbose logging")
	pf.StringArrayVarP(&flags.providers, "provider", "p", nil, "provider to query (repeatable)")
	pf.StringVar(&flags.tlsCA, "tls-ca", "", "TLS CA path")
	pf.StringVar(&flags.tlsCert, "tls-cert", "", "TLS cert path")
	pf.StringVar(&flags.tlsKey, "tls-key", "", "TLS key path")
	pf.StringVar(&flags.user, "user", "", "MQTT username")
	pf.StringVar(&flags.pass, "pass", "", "MQTT password")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return core.WrapError(core.ExitUsage, "load config", err)
		}
		a, err := newApp(cmd, flags, cfg)
		if err != nil {
			return err
		}
		cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
		return nil
	}

	root.AddCommand(searchCommand())
	root.AddCommand(lyricCommand())
	root.AddCommand(urlCommand())
	root.AddCommand(picCommand())
	root.AddCommand(embedCommand())
	root.AddCommand(lsCommand())
	return root
}

func newApp(cmd *cobra.Command, flags globalFlags, cfg config.Config) (*app, error) {
	broker := flags.broker
	if broker == "" {
		broker = cfg.Broker
	}
	topicBase := flags.topicBase
	if topicBase == songtag.BaseTopic && cfg.TopicBase != "" {
		topicBase = cfg.TopicBase
	}
	timeout := flags.timeout
	if timeout <= 0 && cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	providers, err := songtag.ParseProviders(cfg.Providers)
	if err != nil {
		return nil, core.WrapError(core.ExitUsage, "config providers", err)
	}
	node := flags.node
	if node == "" {
		node = cfg.Node
	}

	coreCfg := core.Config{
		Broker:    broker,
		Identity:  defaultIdentity(flags.identity, cfg.Identity),
		TopicBase: topicBase,
		Node:      node,
		Aliases:   cfg.Aliases,
		Providers: providers,
		Limit:     cfg.Limit,
		Timeout:   timeout,
	}

	log := zap.NewNop()
	if flags.verbose {
		if dev, err := zap.NewDevelopment(); err == nil {
			log = dev
		}
	}

	fetcher := fetch.NewClient(log.Named("fetch"), fetch.Options{
		Timeout:       timeout,
		CacheSize:     cfg.Cache.SizeBytes,
		CacheTTL:      time.Duration(cfg.Cache.TTLMS) * time.Millisecond,
		CacheCompress: cfg.Cache.Compress,
	})
	service := core.Service{
		Lookup:     lookup.New(fetcher, log.Named("lookup")),
		Downloader: fetcher,
		TagReader:  localtags.Reader{},
		TagWriter:  localtags.Writer{},
		Config:     coreCfg,
	}

	if broker != "" {
		if err := attachBroker(cmd, &service, flags, cfg); err != nil {
			return nil, err
		}
	}

	var printer output.Printer = output.HumanPrinter{}
	if flags.jsonOut {
		printer = output.JSONPrinter{}
	}
	return &app{service: service, printer: printer, providers: flags.providers, timeout: timeout}, nil
}

// attachBroker routes lookups through a songtagd node. Listing nodes only
// needs presence, so node resolution is skipped for ls.
func attachBroker(cmd *cobra.Command, service *core.Service, flags globalFlags, cfg config.Config) error {
	client, err := mqtt.NewClient(mqtt.Options{
		BrokerURL: service.Config.Broker,
		ClientID:  fmt.Sprintf("songtag-%d", time.Now().UnixNano()),
		Username:  firstNonEmpty(flags.user, cfg.MQTT.Username),
		Password:  firstNonEmpty(flags.pass, cfg.MQTT.Password),
		TLSCA:     firstNonEmpty(flags.tlsCA, cfg.MQTT.TLSCA),
		TLSCert:   firstNonEmpty(flags.tlsCert, cfg.MQTT.TLSCert),
		TLSKey:    firstNonEmpty(flags.tlsKey, cfg.MQTT.TLSKey),
		TopicBase: service.Config.TopicBase,
		Timeout:   service.Config.Timeout,
	})
	if err != nil {
		return core.WrapError(core.ExitUnavailable, "connect broker", err)
	}
	service.Presence = client
	if cmd.Name() == "ls" {
		return nil
	}

	ctx, cancel := withTimeout(cmd.Context(), service.Config.Timeout)
	defer cancel()
	resolver := core.Resolver{Presence: client, Config: service.Config}
	node, err := resolver.ResolveLookupNode(ctx, service.Config.Node)
	if err != nil {
		return err
	}
	service.Lookup = mqtt.RemoteLookup{
		Broker:   client,
		NodeID:   node.NodeID,
		Identity: service.Config.Identity,
		Clock:    clock.Clock{},
		IDGen:    idgen.Generator{},
	}
	return nil
}

type appKey struct{}

func fromContext(cmd *cobra.Command) *app {
	val := cmd.Context().Value(appKey{})
	if val == nil {
		return nil
	}
	return val.(*app)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}

func defaultIdentity(flagVal string, cfgVal string) string {
	if flagVal != "" {
		return flagVal
	}
	if cfgVal != "" {
		return cfgVal
	}
	usr, _ := user.Current()
	host, _ := os.Hostname()
	if usr != nil && host != "" {
		return fmt.Sprintf("%s@%s", usr.Username, host)
	}
	if host != "" {
		return host
	}
	return "songtag-unknown"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
