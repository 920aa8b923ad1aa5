package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey-austin/songtag/internal/ports"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

const defaultLimit = 20

// Service orchestrates songtag CLI use cases.
type Service struct {
	Lookup     ports.Lookup
	Presence   ports.Presence
	Downloader ports.Downloader
	TagReader  ports.TagReader
	TagWriter  ports.TagWriter
	Config     Config
}

// ListNodes returns lookup nodes announced on the broker.
func (s Service) ListNodes(ctx context.Context) (NodesResult, error) {
	if s.Presence == nil {
		return NodesResult{}, &CLIError{Code: ExitUsage, Msg: "listing nodes requires --broker"}
	}
	nodes, err := s.Presence.ListPresence(ctx)
	if err != nil {
		return NodesResult{}, WrapError(ExitRuntime, "list nodes", err)
	}
	return NodesResult{Nodes: filterPresenceByKind(nodes, songtag.PresenceKind)}, nil
}

// Search looks up query on the named providers, or the configured ones.
func (s Service) Search(ctx context.Context, query string, providerNames []string, limit int) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{}, &CLIError{Code: ExitUsage, Msg: "search query required"}
	}
	providers, err := songtag.ParseProviders(providerNames)
	if err != nil {
		return SearchResult{}, WrapError(ExitUsage, "parse providers", err)
	}
	if len(providers) == 0 {
		providers = s.Config.Providers
	}
	if limit <= 0 {
		limit = s.Config.Limit
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	tags, err := s.Lookup.Search(ctx, query, providers, limit)
	if err != nil {
		return SearchResult{}, lookupError("search", err)
	}
	return SearchResult{Query: query, Tags: tags}, nil
}

// Lyric resolves the lyric for tag.
func (s Service) Lyric(ctx context.Context, tag songtag.SongTag) (TextResult, error) {
	if err := validateTag(tag, tag.LyricID, "lyric id"); err != nil {
		return TextResult{}, err
	}
	text, ok, err := s.Lookup.Lyric(ctx, tag)
	return textResult(TextLyric, tag.ServiceProvider, tag.LyricID, text, ok, err)
}

// SongURL resolves the playable url for tag.
func (s Service) SongURL(ctx context.Context, tag songtag.SongTag) (TextResult, error) {
	if err := validateTag(tag, tag.SongID, "song id"); err != nil {
		return TextResult{}, err
	}
	text, ok, err := s.Lookup.SongURL(ctx, tag)
	return textResult(TextURL, tag.ServiceProvider, tag.SongID, text, ok, err)
}

// PictureURL resolves the artwork url for tag.
func (s Service) PictureURL(ctx context.Context, tag songtag.SongTag) (TextResult, error) {
	if err := validateTag(tag, tag.PicID, "picture id"); err != nil {
		return TextResult{}, err
	}
	text, ok, err := s.Lookup.PictureURL(ctx, tag)
	return textResult(TextPicture, tag.ServiceProvider, tag.PicID, text, ok, err)
}

// Embed looks up the lyric and artwork for tag and writes them, along with
// the tag's title, artist and album, into the audio file at path.
func (s Service) Embed(ctx context.Context, tag songtag.SongTag, path string) (EmbedResult, error) {
	if strings.TrimSpace(path) == "" {
		return EmbedResult{}, &CLIError{Code: ExitUsage, Msg: "file path required"}
	}
	if s.TagWriter == nil {
		return EmbedResult{}, &CLIError{Code: ExitRuntime, Msg: "tag writer not configured"}
	}
	if !tag.ServiceProvider.Valid() {
		return EmbedResult{}, &CLIError{Code: ExitUsage, Msg: "tag has no known provider"}
	}

	out := ports.FileTags{
		Title:  placeholderToEmpty(tag.Title),
		Artist: placeholderToEmpty(tag.Artist),
		Album:  placeholderToEmpty(tag.Album),
	}

	if tag.LyricID != "" {
		lyric, ok, err := s.Lookup.Lyric(ctx, tag)
		if err != nil {
			return EmbedResult{}, lookupError("lyric", err)
		}
		if ok && lyric != "" {
			out.Lyric = lyric
			out.LyricLang = lyricLanguage(tag.LangExt)
		}
	}

	if tag.PicID != "" && s.Downloader != nil {
		picURL, ok, err := s.Lookup.PictureURL(ctx, tag)
		if err != nil {
			return EmbedResult{}, lookupError("picture", err)
		}
		if ok && picURL != "" {
			data, mime, err := s.Downloader.Download(ctx, picURL)
			if err != nil {
				return EmbedResult{}, WrapError(ExitUnavailable, "download picture", err)
			}
			out.Picture = data
			out.PictureMIME = mime
		}
	}

	if out.Title == "" && out.Artist == "" && out.Album == "" && out.Lyric == "" && len(out.Picture) == 0 {
		return EmbedResult{}, &CLIError{Code: ExitNotFound, Msg: "nothing to embed for " + tag.ServiceProvider.String()}
	}
	if err := s.TagWriter.WriteTags(path, out); err != nil {
		return EmbedResult{}, WrapError(ExitRuntime, "write tags", err)
	}
	return EmbedResult{
		Path:    path,
		Title:   out.Title,
		Lyric:   out.Lyric != "",
		Picture: len(out.Picture) > 0,
	}, nil
}

// QueryFromFile builds a search query from the artist and title of a local file.
func (s Service) QueryFromFile(path string) (string, error) {
	if s.TagReader == nil {
		return "", &CLIError{Code: ExitRuntime, Msg: "tag reader not configured"}
	}
	tags, err := s.TagReader.ReadTags(path)
	if err != nil {
		return "", WrapError(ExitUsage, "read tags", err)
	}
	query := strings.TrimSpace(strings.Join(nonEmpty(tags.Artist, tags.Title), " "))
	if query == "" {
		return "", &CLIError{Code: ExitUsage, Msg: fmt.Sprintf("no artist or title in %s", path)}
	}
	return query, nil
}

func validateTag(tag songtag.SongTag, id string, what string) error {
	if !tag.ServiceProvider.Valid() {
		return &CLIError{Code: ExitUsage, Msg: "tag has no known provider"}
	}
	if strings.TrimSpace(id) == "" {
		return &CLIError{Code: ExitUsage, Msg: what + " required"}
	}
	return nil
}

func textResult(kind TextKind, provider songtag.Provider, id string, text string, ok bool, err error) (TextResult, error) {
	if err != nil {
		return TextResult{}, lookupError(string(kind), err)
	}
	if !ok {
		return TextResult{}, &CLIError{Code: ExitNotFound, Msg: fmt.Sprintf("%s has no %s for %s", provider, kind, id)}
	}
	return TextResult{Kind: kind, Provider: provider, ID: id, Text: text}, nil
}

// replyCoder is implemented by errors that carry a broker reply code.
type replyCoder interface {
	ReplyCode() string
}

func lookupError(op string, err error) error {
	var coded replyCoder
	if errors.As(err, &coded) {
		return ErrorForReplyCode(coded.ReplyCode(), fmt.Sprintf("%s: %v", op, err))
	}
	return WrapError(ExitUnavailable, op, err)
}

func lyricLanguage(lang string) string {
	if len(lang) == 3 {
		return lang
	}
	return songtag.LangChinese
}

func placeholderToEmpty(value string) string {
	if value == songtag.Unknown {
		return ""
	}
	return value
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}
