package taglookup

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/mikey-austin/songtag/internal/adapters/mqttserver"
	"github.com/mikey-austin/songtag/internal/lookup"
	"github.com/mikey-austin/songtag/internal/ports"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

// Config configures the tag lookup module.
type Config struct {
	NodeID      string
	TopicBase   string
	Name        string
	Providers   []songtag.Provider
	Limit       int
	Timeout     time.Duration
	MaxInflight int64
}

// Module answers songtag commands for one node.
type Module struct {
	log      *zap.Logger
	client   *mqttserver.Client
	lookup   ports.Lookup
	config   Config
	cmdTopic string
	inflight *semaphore.Weighted
	now      func() time.Time
}

// NewModule initializes a tag lookup module.
func NewModule(log *zap.Logger, client *mqttserver.Client, lookup ports.Lookup, cfg Config) (*Module, error) {
	if strings.TrimSpace(cfg.NodeID) == "" {
		return nil, errors.New("node_id required")
	}
	if lookup == nil {
		return nil, errors.New("lookup required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(cfg.TopicBase) == "" {
		cfg.TopicBase = songtag.BaseTopic
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = "Song Tag Lookup"
	}
	if len(cfg.Providers) == 0 {
		cfg.Providers = songtag.Providers()
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 20
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxInflight <= 0 {
		cfg.MaxInflight = 8
	}

	return &Module{
		log:      log,
		client:   client,
		lookup:   lookup,
		config:   cfg,
		cmdTopic: songtag.TopicCommands(cfg.TopicBase, cfg.NodeID),
		inflight: semaphore.NewWeighted(cfg.MaxInflight),
		now:      time.Now,
	}, nil
}

// Run publishes presence and serves commands until ctx is done.
func (m *Module) Run(ctx context.Context) error {
	presenceTopic := songtag.TopicPresence(m.config.TopicBase, m.config.NodeID)
	if err := m.client.PublishJSON(presenceTopic, true, m.presence()); err != nil {
		return err
	}
	// An empty retained payload clears presence so clients stop resolving to us.
	defer func() {
		if err := m.client.Publish(presenceTopic, 1, true, nil); err != nil {
			m.log.Warn("clear presence", zap.Error(err))
		}
	}()

	handler := func(_ paho.Client, msg paho.Message) {
		m.handleMessage(ctx, msg.Payload())
	}
	if err := m.client.Subscribe(m.cmdTopic, 1, handler); err != nil {
		return err
	}
	defer m.client.Unsubscribe(m.cmdTopic)

	m.log.Info("tag lookup ready", zap.String("node", m.config.NodeID), zap.Int("providers", len(m.config.Providers)))
	<-ctx.Done()
	return nil
}

func (m *Module) presence() songtag.Presence {
	providers := make([]string, 0, len(m.config.Providers))
	for _, p := range m.config.Providers {
		providers = append(providers, p.String())
	}
	return songtag.Presence{
		NodeID: m.config.NodeID,
		Kind:   songtag.PresenceKind,
		Name:   m.config.Name,
		Caps: map[string]any{
			"search":    true,
			"lyric":     true,
			"url":       true,
			"picture":   true,
			"providers": providers,
		},
		TS: m.now().Unix(),
	}
}

// handleMessage decodes a command and replies from a separate goroutine so
// slow provider calls do not stall the paho router.
func (m *Module) handleMessage(ctx context.Context, payload []byte) {
	var cmd songtag.CommandEnvelope
	if err := json.Unmarshal(payload, &cmd); err != nil {
		m.log.Warn("invalid command", zap.Error(err))
		return
	}
	if err := m.inflight.Acquire(ctx, 1); err != nil {
		return
	}
	go func() {
		defer m.inflight.Release(1)
		m.reply(cmd, m.dispatch(ctx, cmd))
	}()
}

func (m *Module) reply(cmd songtag.CommandEnvelope, reply songtag.ReplyEnvelope) {
	if cmd.ReplyTo == "" {
		return
	}
	if err := m.client.PublishJSON(cmd.ReplyTo, false, reply); err != nil {
		m.log.Error("publish reply", zap.String("id", cmd.ID), zap.Error(err))
	}
}

func (m *Module) dispatch(ctx context.Context, cmd songtag.CommandEnvelope) songtag.ReplyEnvelope {
	if err := songtag.ValidateCommandEnvelope(cmd); err != nil {
		return m.errorReply(cmd, songtag.CodeInvalid, err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	switch cmd.Type {
	case songtag.CommandSearch:
		return m.search(ctx, cmd)
	case songtag.CommandLyric:
		return m.text(ctx, cmd, m.lookup.Lyric)
	case songtag.CommandURL:
		return m.text(ctx, cmd, m.lookup.SongURL)
	case songtag.CommandPicture:
		return m.text(ctx, cmd, m.lookup.PictureURL)
	default:
		return m.errorReply(cmd, songtag.CodeInvalid, "unsupported command")
	}
}

func (m *Module) search(ctx context.Context, cmd songtag.CommandEnvelope) songtag.ReplyEnvelope {
	var body songtag.SearchBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		return m.errorReply(cmd, songtag.CodeInvalid, "invalid body")
	}
	providers := m.allowedProviders(body.Providers)
	if len(providers) == 0 {
		return m.errorReply(cmd, songtag.CodeInvalid, "no requested provider is served by this node")
	}
	limit := body.Limit
	if limit <= 0 || limit > m.config.Limit {
		limit = m.config.Limit
	}

	tags, err := m.lookup.Search(ctx, body.Query, providers, limit)
	if err != nil {
		return m.failure(cmd, err)
	}
	if tags == nil {
		tags = []songtag.SongTag{}
	}
	m.log.Debug("search served", zap.String("id", cmd.ID), zap.String("query", body.Query), zap.Int("results", len(tags)))
	return m.okReply(cmd, songtag.SearchReply{Tags: tags})
}

type textLookup func(ctx context.Context, tag songtag.SongTag) (string, bool, error)

func (m *Module) text(ctx context.Context, cmd songtag.CommandEnvelope, fn textLookup) songtag.ReplyEnvelope {
	var body songtag.LookupBody
	if err := json.Unmarshal(cmd.Body, &body); err != nil {
		return m.errorReply(cmd, songtag.CodeInvalid, "invalid body")
	}
	if !m.serves(body.Tag.ServiceProvider) {
		return m.errorReply(cmd, songtag.CodeInvalid, "provider not served by this node")
	}
	text, ok, err := fn(ctx, body.Tag)
	if err != nil {
		return m.failure(cmd, err)
	}
	if !ok {
		return m.errorReply(cmd, songtag.CodeNotFound, cmd.Type+": nothing found for "+body.Tag.Display())
	}
	return m.okReply(cmd, songtag.TextReply{Text: text})
}

// allowedProviders intersects the requested providers with the configured
// ones, keeping request order. An empty request means every served provider.
func (m *Module) allowedProviders(requested []songtag.Provider) []songtag.Provider {
	if len(requested) == 0 {
		return m.config.Providers
	}
	out := make([]songtag.Provider, 0, len(requested))
	for _, p := range requested {
		if m.serves(p) {
			out = append(out, p)
		}
	}
	return out
}

func (m *Module) serves(p songtag.Provider) bool {
	for _, served := range m.config.Providers {
		if served == p {
			return true
		}
	}
	return false
}

func (m *Module) failure(cmd songtag.CommandEnvelope, err error) songtag.ReplyEnvelope {
	var invalid *lookup.InvalidTagError
	if errors.As(err, &invalid) || errors.Is(err, lookup.ErrEmptyQuery) {
		return m.errorReply(cmd, songtag.CodeInvalid, err.Error())
	}
	m.log.Warn("lookup failed", zap.String("id", cmd.ID), zap.String("type", cmd.Type), zap.Error(err))
	return m.errorReply(cmd, songtag.CodeUnavailable, err.Error())
}

func (m *Module) okReply(cmd songtag.CommandEnvelope, body any) songtag.ReplyEnvelope {
	payload, err := json.Marshal(body)
	if err != nil {
		return m.errorReply(cmd, songtag.CodeUnavailable, "encode reply")
	}
	return songtag.ReplyEnvelope{
		ID:   cmd.ID,
		Type: "ack",
		OK:   true,
		TS:   m.now().Unix(),
		Body: payload,
	}
}

func (m *Module) errorReply(cmd songtag.CommandEnvelope, code string, message string) songtag.ReplyEnvelope {
	return songtag.ReplyEnvelope{
		ID:   cmd.ID,
		Type: "error",
		OK:   false,
		TS:   m.now().Unix(),
		Err: &songtag.ReplyError{
			Code:    code,
			Message: message,
		},
	}
}
