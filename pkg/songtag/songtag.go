package songtag

import (
	"fmt"
	"strings"
)

// Placeholder values shared by every provider adapter. Display code matches
// on these exact strings, so they must not be translated.
const (
	Unknown               = "未知"
	URLDownloadable       = "Downloadable"
	URLCopyrightProtected = "Copyright Protected"
	LangChinese           = "chi"
)

// Provider identifies the metadata service that produced a SongTag.
type Provider int

// Known providers.
const (
	ProviderUnknown Provider = iota
	Kugou
	Netease
	Kuwo
)

var providerNames = map[Provider]string{
	Kugou:   "kugou",
	Netease: "netease",
	Kuwo:    "kuwo",
}

// Providers lists every known provider in lookup order.
func Providers() []Provider {
	return []Provider{Kugou, Netease, Kuwo}
}

// String returns the provider name.
func (p Provider) String() string {
	if name, ok := providerNames[p]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	_, ok := providerNames[p]
	return ok
}

// ParseProvider parses a provider name, ignoring case.
func ParseProvider(name string) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for p, n := range providerNames {
		if n == key {
			return p, nil
		}
	}
	return ProviderUnknown, fmt.Errorf("unknown provider %q", name)
}

// ParseProviders parses a list of provider names, dropping duplicates.
func ParseProviders(names []string) ([]Provider, error) {
	out := make([]Provider, 0, len(names))
	seen := map[Provider]bool{}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		p, err := ParseProvider(name)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

// MarshalText encodes the provider as its name.
func (p Provider) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid provider %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a provider name.
func (p *Provider) UnmarshalText(text []byte) error {
	parsed, err := ParseProvider(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// SongTag is the canonical record built from one provider search entry.
// Every field except ServiceProvider may be empty.
type SongTag struct {
	SongID          string   `json:"songId,omitempty"`
	Title           string   `json:"title,omitempty"`
	Artist          string   `json:"artist,omitempty"`
	Album           string   `json:"album,omitempty"`
	PicID           string   `json:"picId,omitempty"`
	LangExt         string   `json:"langExt,omitempty"`
	ServiceProvider Provider `json:"serviceProvider"`
	LyricID         string   `json:"lyricId,omitempty"`
	URL             string   `json:"url,omitempty"`
	AlbumID         string   `json:"albumId,omitempty"`
}

// Display renders the tag for log lines.
func (t SongTag) Display() string {
	return t.Title + " - " + t.Artist
}

// Downloadable reports whether the search result was marked free to fetch.
func (t SongTag) Downloadable() bool {
	return t.URL == URLDownloadable
}
