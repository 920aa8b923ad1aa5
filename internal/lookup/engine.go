// Package lookup chains provider fetches with payload normalization.
package lookup

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mikey-austin/songtag/internal/normalize"
	"github.com/mikey-austin/songtag/internal/ports"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

// ErrEmptyQuery is returned when Search is called without search terms.
var ErrEmptyQuery = errors.New("search query is required")

// Engine implements ports.Lookup against the provider HTTP APIs.
type Engine struct {
	Fetcher ports.Fetcher
	Log     *zap.Logger
}

// New returns an Engine. A nil logger is replaced with a no-op logger.
func New(fetcher ports.Fetcher, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{Fetcher: fetcher, Log: log}
}

// Search queries every provider concurrently. A provider that fails or
// returns an unusable payload contributes no tags; results keep provider order.
func (e *Engine) Search(ctx context.Context, query string, providers []songtag.Provider, limit int) ([]songtag.SongTag, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if len(providers) == 0 {
		providers = songtag.Providers()
	}

	results := make([][]songtag.SongTag, len(providers))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, provider := range providers {
		group.Go(func() error {
			payload, err := e.Fetcher.Search(groupCtx, provider, query, limit)
			if err != nil {
				e.Log.Warn("search failed", zap.String("provider", provider.String()), zap.Error(err))
				return nil
			}
			tags, ok := normalize.SearchResults(provider, payload)
			if !ok {
				e.Log.Info("search payload unusable", zap.String("provider", provider.String()))
				return nil
			}
			if limit > 0 && len(tags) > limit {
				tags = tags[:limit]
			}
			results[i] = tags
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []songtag.SongTag
	for _, tags := range results {
		out = append(out, tags...)
	}
	e.Log.Debug("search", zap.String("query", query), zap.Int("results", len(out)))
	return out, nil
}

// Lyric fetches the lyric for tag. Kugou resolves an access key first.
func (e *Engine) Lyric(ctx context.Context, tag songtag.SongTag) (string, bool, error) {
	provider := tag.ServiceProvider
	if err := requireID(provider, tag.LyricID, "lyric id"); err != nil {
		return "", false, err
	}

	id, accessKey := tag.LyricID, ""
	if normalize.NeedsAccessKey(provider) {
		payload, err := e.Fetcher.AccessKey(ctx, provider, tag.LyricID)
		if err != nil {
			return "", false, err
		}
		key, ok := normalize.AccessKeyAndID(provider, payload)
		if !ok {
			e.Log.Debug("no lyric candidate", zap.String("provider", provider.String()), zap.String("tag", tag.Display()))
			return "", false, nil
		}
		id, accessKey = key.ID, key.AccessKey
	}

	payload, err := e.Fetcher.Lyric(ctx, provider, id, accessKey)
	if err != nil {
		return "", false, err
	}
	lyric, ok := normalize.Lyric(provider, payload)
	return lyric, ok, nil
}

// SongURL fetches the playable url for tag. Protected songs are still
// looked up; the provider decides whether a url is returned.
func (e *Engine) SongURL(ctx context.Context, tag songtag.SongTag) (string, bool, error) {
	if err := requireID(tag.ServiceProvider, tag.SongID, "song id"); err != nil {
		return "", false, err
	}
	payload, err := e.Fetcher.SongURL(ctx, tag.ServiceProvider, tag.SongID)
	if err != nil {
		return "", false, err
	}
	u, ok := normalize.PlayableURL(tag.ServiceProvider, payload)
	return u, ok, nil
}

// PictureURL fetches the artwork url for tag.
func (e *Engine) PictureURL(ctx context.Context, tag songtag.SongTag) (string, bool, error) {
	if err := requireID(tag.ServiceProvider, tag.PicID, "picture id"); err != nil {
		return "", false, err
	}
	payload, err := e.Fetcher.Picture(ctx, tag.ServiceProvider, tag.PicID)
	if err != nil {
		return "", false, err
	}
	u, ok := normalize.PictureURL(tag.ServiceProvider, payload)
	return u, ok, nil
}

// InvalidTagError reports a tag that cannot be looked up.
type InvalidTagError struct {
	Reason string
}

func (e *InvalidTagError) Error() string {
	return e.Reason
}

func requireID(provider songtag.Provider, id string, what string) error {
	if !provider.Valid() {
		return &InvalidTagError{Reason: "tag has no known provider"}
	}
	if strings.TrimSpace(id) == "" {
		return &InvalidTagError{Reason: provider.String() + " tag has no " + what}
	}
	return nil
}
