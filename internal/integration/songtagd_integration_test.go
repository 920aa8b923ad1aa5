//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/songtag/internal/adapters/clock"
	"github.com/mikey-austin/songtag/internal/adapters/fetch"
	"github.com/mikey-austin/songtag/internal/adapters/idgen"
	"github.com/mikey-austin/songtag/internal/adapters/mqtt"
	"github.com/mikey-austin/songtag/internal/adapters/mqttserver"
	"github.com/mikey-austin/songtag/internal/core"
	"github.com/mikey-austin/songtag/internal/lookup"
	embeddedmqtt "github.com/mikey-austin/songtag/internal/modules/embedded_mqtt"
	taglookup "github.com/mikey-austin/songtag/internal/modules/tag_lookup"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

const (
	neteaseSearch = `{"code":200,"result":{"songs":[` +
		`{"id":186016,"name":"晴天","artists":[{"name":"周杰伦"}],"album":{"id":18903,"name":"叶惠美"},"fee":8},` +
		`{"id":186017,"artists":[{"name":"missing title"}]}]}}`
	neteaseLyric    = `{"code":200,"lrc":{"lyric":"[00:01.00]故事的小黄花"}}`
	neteaseNoURL    = `{"code":200,"data":[]}`
	neteasePicture  = `{"code":200,"songs":[{"album":{"picUrl":"http://p1.music.126.net/cover.jpg"}}]}`
	kuwoFailure     = `{"code":500,"msg":"busy"}`
	integrationNode = "songtag:lookup:integration"
)

type integrationOptions struct {
	allowAnonymous bool
	username       string
	password       string
}

type integrationHarness struct {
	ctx       context.Context
	brokerURL string
	nodeID    string
	client    *mqtt.Client
	service   core.Service
}

func TestLookupOverBroker(t *testing.T) {
	h := setupIntegration(t)
	ctx := h.ctx

	nodes, err := h.service.ListNodes(ctx)
	if err != nil {
		t.Fatalf("list nodes: %v", err)
	}
	if len(nodes.Nodes) != 1 || nodes.Nodes[0].NodeID != h.nodeID {
		t.Fatalf("expected node %s, got %+v", h.nodeID, nodes.Nodes)
	}

	result, err := h.service.Search(ctx, "周杰伦 晴天", []string{"netease", "kuwo"}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Tags) != 1 {
		t.Fatalf("expected 1 tag, got %+v", result.Tags)
	}
	tag := result.Tags[0]
	if tag.SongID != "186016" || tag.Artist != "周杰伦" || tag.Album != "叶惠美" || tag.URL != songtag.URLDownloadable {
		t.Fatalf("unexpected tag %+v", tag)
	}

	lyric, err := h.service.Lyric(ctx, tag)
	if err != nil {
		t.Fatalf("lyric: %v", err)
	}
	if lyric.Text != "[00:01.00]故事的小黄花" {
		t.Fatalf("unexpected lyric %q", lyric.Text)
	}

	pic, err := h.service.PictureURL(ctx, tag)
	if err != nil {
		t.Fatalf("picture: %v", err)
	}
	if pic.Text != "http://p1.music.126.net/cover.jpg" {
		t.Fatalf("unexpected picture %q", pic.Text)
	}

	_, err = h.service.SongURL(ctx, tag)
	if core.ExitCode(err) != core.ExitNotFound {
		t.Fatalf("expected not found for song url, got %v", err)
	}
}

func TestInvalidTagReturnsUsageError(t *testing.T) {
	h := setupIntegration(t)
	cmd, err := songtag.NewCommand(songtag.CommandLyric, songtag.LookupBody{Tag: songtag.SongTag{ServiceProvider: songtag.Netease}})
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	cmd.ID = idgen.Generator{}.NewID()
	cmd.TS = time.Now().Unix()
	cmd.From = "integration"
	cmd.ReplyTo = h.client.ReplyTopic()

	ctx, cancel := context.WithTimeout(h.ctx, 3*time.Second)
	defer cancel()
	reply, err := h.client.PublishCommand(ctx, h.nodeID, cmd)
	if err != nil {
		t.Fatalf("publish command: %v", err)
	}
	if reply.OK || reply.Err == nil || reply.Err.Code != songtag.CodeInvalid {
		t.Fatalf("expected INVALID reply, got %+v", reply)
	}
}

func TestEmbeddedMQTTAuth(t *testing.T) {
	h := setupIntegrationWithOptions(t, integrationOptions{
		username: "songtag",
		password: "secret",
	})

	if _, err := mqtt.NewClient(mqtt.Options{
		BrokerURL: h.brokerURL,
		ClientID:  "songtag-int-unauth-" + idgen.Generator{}.NewID(),
		Timeout:   500 * time.Millisecond,
	}); err == nil {
		t.Fatalf("expected unauthenticated connection to fail")
	}

	if _, err := h.service.ListNodes(h.ctx); err != nil {
		t.Fatalf("authenticated list nodes: %v", err)
	}
}

func setupIntegration(t *testing.T) *integrationHarness {
	return setupIntegrationWithOptions(t, integrationOptions{allowAnonymous: true})
}

func setupIntegrationWithOptions(t *testing.T, opts integrationOptions) *integrationHarness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := testLogger()
	listen := freeListenAddr(t)
	brokerURL := embeddedmqtt.BrokerURL(listen, false)

	brokerModule, err := embeddedmqtt.NewModule(logger, embeddedmqtt.Config{
		Listen:         listen,
		AllowAnonymous: opts.allowAnonymous,
		Username:       opts.username,
		Password:       opts.password,
	})
	if err != nil {
		t.Fatalf("embedded mqtt module: %v", err)
	}
	runModule(t, ctx, "embedded_mqtt", brokerModule.Run)
	waitForBrokerReady(t, listen)

	serverClient := waitFor(t, "mqtt server client", func() (*mqttserver.Client, error) {
		return mqttserver.NewClient(mqttserver.Options{
			BrokerURL: brokerURL,
			ClientID:  "songtagd-int-" + idgen.Generator{}.NewID(),
			Username:  opts.username,
			Password:  opts.password,
			Logger:    logger,
		})
	})
	t.Cleanup(serverClient.Close)

	fetcher := fetch.NewClient(logger, fetch.Options{HTTPClient: &http.Client{Transport: providerStub()}})
	module, err := taglookup.NewModule(logger, serverClient, lookup.New(fetcher, logger), taglookup.Config{
		NodeID:    integrationNode,
		Providers: []songtag.Provider{songtag.Netease, songtag.Kuwo},
		Timeout:   2 * time.Second,
	})
	if err != nil {
		t.Fatalf("tag lookup module: %v", err)
	}
	runModule(t, ctx, "tag_lookup", module.Run)

	client := waitFor(t, "mqtt client", func() (*mqtt.Client, error) {
		return mqtt.NewClient(mqtt.Options{
			BrokerURL: brokerURL,
			ClientID:  "songtag-int-" + idgen.Generator{}.NewID(),
			Username:  opts.username,
			Password:  opts.password,
			Timeout:   2 * time.Second,
		})
	})
	t.Cleanup(client.Close)
	waitForPresence(t, client, integrationNode)

	cfg := core.Config{Identity: "integration", TopicBase: songtag.BaseTopic, Node: integrationNode}
	node, err := core.Resolver{Presence: client, Config: cfg}.ResolveLookupNode(ctx, "")
	if err != nil {
		t.Fatalf("resolve node: %v", err)
	}
	service := core.Service{
		Lookup: mqtt.RemoteLookup{
			Broker:   client,
			NodeID:   node.NodeID,
			Identity: cfg.Identity,
			Clock:    clock.Clock{},
			IDGen:    idgen.Generator{},
		},
		Presence: client,
		Config:   cfg,
	}

	return &integrationHarness{
		ctx:       ctx,
		brokerURL: brokerURL,
		nodeID:    integrationNode,
		client:    client,
		service:   service,
	}
}

// providerStub serves canned provider payloads keyed by host and path.
func providerStub() http.RoundTripper {
	mux := http.NewServeMux()
	mux.HandleFunc("music.163.com/api/search/get", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, neteaseSearch)
	})
	mux.HandleFunc("music.163.com/api/song/lyric", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, neteaseLyric)
	})
	mux.HandleFunc("music.163.com/api/song/enhance/player/url", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, neteaseNoURL)
	})
	mux.HandleFunc("music.163.com/api/song/detail", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, neteasePicture)
	})
	mux.HandleFunc("www.kuwo.cn/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, kuwoFailure)
	})
	return handlerTransport{handler: mux}
}

type handlerTransport struct {
	handler http.Handler
}

func (rt handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	recorder := httptest.NewRecorder()
	rt.handler.ServeHTTP(recorder, req)
	resp := recorder.Result()
	resp.Request = req
	return resp, nil
}

func runModule(t *testing.T, ctx context.Context, name string, run func(context.Context) error) {
	t.Helper()
	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()
	t.Cleanup(func() {
		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("%s module failed: %v", name, err)
			}
		case <-time.After(200 * time.Millisecond):
		}
	})
}

func waitFor[T any](t *testing.T, what string, connect func() (T, error)) T {
	t.Helper()
	var lastErr error
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		v, err := connect()
		if err == nil {
			return v
		}
		lastErr = err
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("connect %s: %v", what, lastErr)
	var zero T
	return zero
}

func waitForPresence(t *testing.T, client *mqtt.Client, nodeID string) {
	t.Helper()
	deadline := time.Now().Add(4 * time.Second)
	for time.Now().Before(deadline) {
		presence, err := client.ListPresence(context.Background())
		if err == nil {
			for _, p := range presence {
				if p.NodeID == nodeID {
					return
				}
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for presence: %s", nodeID)
}

func freeListenAddr(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EPERM) || strings.Contains(err.Error(), "operation not permitted") {
			t.Skip("network listen not permitted in this environment")
		}
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	if err := listener.Close(); err != nil {
		t.Fatalf("close listener: %v", err)
	}
	return addr
}

func waitForBrokerReady(t *testing.T, listen string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	var lastErr error
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", listen, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return
		}
		lastErr = err
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("broker not ready: %v", lastErr)
}

func testLogger() *zap.Logger {
	if strings.EqualFold(os.Getenv("SONGTAG_INTEGRATION_DEBUG"), "1") {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}
	return zap.NewNop()
}
