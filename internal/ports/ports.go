package ports

import (
	"context"

	"github.com/mikey-austin/songtag/pkg/songtag"
)

// Broker publishes commands and reads retained presence.
type Broker interface {
	ReplyTopic() string
	PublishCommand(ctx context.Context, nodeID string, cmd songtag.CommandEnvelope) (songtag.ReplyEnvelope, error)
	ListPresence(ctx context.Context) ([]songtag.Presence, error)
}

// Presence lists retained node presence.
type Presence interface {
	ListPresence(ctx context.Context) ([]songtag.Presence, error)
}

// Lookup finds tags and resolves lyrics, playable urls and artwork for them.
// Absent data is reported with ok == false and a nil error.
type Lookup interface {
	Search(ctx context.Context, query string, providers []songtag.Provider, limit int) ([]songtag.SongTag, error)
	Lyric(ctx context.Context, tag songtag.SongTag) (string, bool, error)
	SongURL(ctx context.Context, tag songtag.SongTag) (string, bool, error)
	PictureURL(ctx context.Context, tag songtag.SongTag) (string, bool, error)
}

// Fetcher returns raw provider payloads. Implementations own timeouts and caching.
type Fetcher interface {
	Search(ctx context.Context, provider songtag.Provider, query string, limit int) ([]byte, error)
	AccessKey(ctx context.Context, provider songtag.Provider, lyricID string) ([]byte, error)
	Lyric(ctx context.Context, provider songtag.Provider, id string, accessKey string) ([]byte, error)
	SongURL(ctx context.Context, provider songtag.Provider, songID string) ([]byte, error)
	Picture(ctx context.Context, provider songtag.Provider, picID string) ([]byte, error)
}

// Downloader fetches binary resources such as cover art.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// FileTags is the subset of audio file metadata songtag reads and writes.
type FileTags struct {
	Title       string
	Artist      string
	Album       string
	Lyric       string
	LyricLang   string
	Picture     []byte
	PictureMIME string
}

// TagReader reads tags from a local audio file.
type TagReader interface {
	ReadTags(path string) (FileTags, error)
}

// TagWriter writes tags into a local audio file.
type TagWriter interface {
	WriteTags(path string, tags FileTags) error
}

// Clock returns the current unix time in seconds.
type Clock interface {
	NowUnix() int64
}

// IDGen returns unique correlation IDs.
type IDGen interface {
	NewID() string
}
