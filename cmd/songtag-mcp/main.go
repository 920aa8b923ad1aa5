package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/mikey-austin/songtag/internal/adapters/config"
	"github.com/mikey-austin/songtag/internal/adapters/fetch"
	"github.com/mikey-austin/songtag/internal/core"
	"github.com/mikey-austin/songtag/internal/lookup"
	"github.com/mikey-austin/songtag/internal/songtagd"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

const version = "0.1.0"

func main() {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	providers, err := songtag.ParseProviders(cfg.Providers)
	if err != nil {
		logger.Fatal("config providers", zap.Error(err))
	}

	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	fetcher := fetch.NewClient(logger.Named("fetch"), fetch.Options{
		Timeout:       timeout,
		CacheSize:     cfg.Cache.SizeBytes,
		CacheTTL:      time.Duration(cfg.Cache.TTLMS) * time.Millisecond,
		CacheCompress: cfg.Cache.Compress,
	})
	t := &tools{
		service: core.Service{
			Lookup: lookup.New(fetcher, logger.Named("lookup")),
			Config: core.Config{Providers: providers, Limit: cfg.Limit, Timeout: timeout},
		},
		timeout: timeout,
	}

	mcpServer := server.NewMCPServer(
		"songtag",
		version,
		server.WithToolCapabilities(true),
	)
	t.register(mcpServer)

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal("serve stdio", zap.Error(err))
	}
}

// newLogger writes json to stderr; stdout carries the protocol.
func newLogger() *zap.Logger {
	return songtagd.NewLogger(songtagd.LogConfig{
		App:    "songtag-mcp",
		Format: "json",
		Output: "stderr",
	})
}

type tools struct {
	service core.Service
	timeout time.Duration
}

func (t *tools) register(s *server.MCPServer) {
	providerNames := make([]string, 0, 3)
	for _, p := range songtag.Providers() {
		providerNames = append(providerNames, p.String())
	}

	s.AddTool(mcp.NewTool("search_songs",
		mcp.WithDescription("Search the kugou, netease and kuwo catalogues for song tags. Results carry the provider and ids needed by the other tools."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Artist and/or title to search for"),
		),
		mcp.WithString("provider",
			mcp.Description("Limit the search to one provider"),
			mcp.Enum(providerNames...),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results per provider (default 20)"),
		),
	), t.searchHandler)

	s.AddTool(idTool("get_lyrics", "Fetch the LRC lyric for a search result. Pass the result's lyricId.", providerNames), t.textHandler(core.Service.Lyric))
	s.AddTool(idTool("get_song_url", "Fetch the playable url for a search result. Pass the result's songId.", providerNames), t.textHandler(core.Service.SongURL))
	s.AddTool(idTool("get_picture_url", "Fetch the cover art url for a search result. Pass the result's picId.", providerNames), t.textHandler(core.Service.PictureURL))
}

func idTool(name string, description string, providerNames []string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("provider",
			mcp.Required(),
			mcp.Description("Provider of the search result"),
			mcp.Enum(providerNames...),
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Id from the search result"),
		),
	)
}

func (t *tools) searchHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid query parameter: %v", err)), nil
	}
	var providers []string
	if p := strings.TrimSpace(request.GetString("provider", "")); p != "" {
		providers = []string{p}
	}
	limit := request.GetInt("limit", 0)

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	result, err := t.service.Search(ctx, query, providers, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}
	if len(result.Tags) == 0 {
		return mcp.NewToolResultText("No songs found matching the query."), nil
	}
	payload, err := json.Marshal(result.Tags)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

type textLookup func(s core.Service, ctx context.Context, tag songtag.SongTag) (core.TextResult, error)

func (t *tools) textHandler(fn textLookup) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		providerName, err := request.RequireString("provider")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid provider parameter: %v", err)), nil
		}
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid id parameter: %v", err)), nil
		}
		provider, err := songtag.ParseProvider(providerName)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		tag := songtag.SongTag{SongID: id, LyricID: id, PicID: id, ServiceProvider: provider}

		ctx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()
		result, err := fn(t.service, ctx, tag)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if result.Text == "" {
			return mcp.NewToolResultText(fmt.Sprintf("%s returned an empty %s for %s.", provider, result.Kind, id)), nil
		}
		return mcp.NewToolResultText(result.Text), nil
	}
}
