// Package normalize routes provider payloads to the matching adapter.
// Every function is pure and safe for concurrent use.
package normalize

import (
	"github.com/mikey-austin/songtag/internal/normalize/kugou"
	"github.com/mikey-austin/songtag/internal/normalize/kuwo"
	"github.com/mikey-austin/songtag/internal/normalize/netease"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

// AccessKey is the lyric credential resolved by providers that need one.
type AccessKey = kugou.AccessKey

// SearchResults parses a search response from provider.
func SearchResults(provider songtag.Provider, payload []byte) ([]songtag.SongTag, bool) {
	switch provider {
	case songtag.Kugou:
		return kugou.ParseSearchResults(payload)
	case songtag.Netease:
		return netease.ParseSearchResults(payload)
	case songtag.Kuwo:
		return kuwo.ParseSearchResults(payload)
	default:
		return nil, false
	}
}

// Lyric parses a lyric response from provider.
func Lyric(provider songtag.Provider, payload []byte) (string, bool) {
	switch provider {
	case songtag.Kugou:
		return kugou.ParseLyric(payload)
	case songtag.Netease:
		return netease.ParseLyric(payload)
	case songtag.Kuwo:
		return kuwo.ParseLyric(payload)
	default:
		return "", false
	}
}

// PlayableURL parses a playable url response from provider.
func PlayableURL(provider songtag.Provider, payload []byte) (string, bool) {
	switch provider {
	case songtag.Kugou:
		return kugou.ParsePlayableURL(payload)
	case songtag.Netease:
		return netease.ParsePlayableURL(payload)
	case songtag.Kuwo:
		return kuwo.ParsePlayableURL(payload)
	default:
		return "", false
	}
}

// PictureURL parses a picture url response from provider.
func PictureURL(provider songtag.Provider, payload []byte) (string, bool) {
	switch provider {
	case songtag.Kugou:
		return kugou.ParsePictureURL(payload)
	case songtag.Netease:
		return netease.ParsePictureURL(payload)
	case songtag.Kuwo:
		return kuwo.ParsePictureURL(payload)
	default:
		return "", false
	}
}

// AccessKeyAndID resolves the lyric credential. Only Kugou uses one.
func AccessKeyAndID(provider songtag.Provider, payload []byte) (AccessKey, bool) {
	if provider != songtag.Kugou {
		return AccessKey{}, false
	}
	return kugou.ResolveAccessKeyAndID(payload)
}

// NeedsAccessKey reports whether lyric downloads from provider need a
// resolved access key first.
func NeedsAccessKey(provider songtag.Provider) bool {
	return provider == songtag.Kugou
}
