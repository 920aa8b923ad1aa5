// Package kugou normalizes Kugou API payloads into songtag values.
package kugou

import (
	"encoding/base64"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"

	"github.com/mikey-austin/songtag/internal/normalize/jsonpath"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

// Success sentinels reported by the Kugou endpoints.
const (
	searchOK    = 1
	lyricOK     = 200
	accessKeyOK = 200
)

// AccessKey is the credential pair needed to download a lyric.
type AccessKey struct {
	AccessKey string
	ID        string
}

// ParseSearchResults reads data.info from a mobile search response.
// Entries whose hash or song name is missing or not a string are skipped.
// An empty string is still a string and keeps its entry.
func ParseSearchResults(payload []byte) ([]songtag.SongTag, bool) {
	root, ok := jsonpath.Parse(payload)
	if !ok || !jsonpath.StatusIs(root, searchOK, "status") {
		return nil, false
	}
	data, ok := jsonpath.Object(root, "data")
	if !ok {
		return nil, false
	}
	info, ok := jsonpath.Array(data, "info")
	if !ok {
		return nil, false
	}

	tags := make([]songtag.SongTag, 0, info.Size())
	jsonpath.Each(info, func(_ int, entry jsoniter.Any) {
		if tag, ok := parseEntry(entry); ok {
			tags = append(tags, tag)
		}
	})
	return tags, true
}

func parseEntry(entry jsoniter.Any) (songtag.SongTag, bool) {
	hash, ok := jsonpath.String(entry, "hash")
	if !ok {
		return songtag.SongTag{}, false
	}
	title, ok := jsonpath.String(entry, "songname")
	if !ok {
		return songtag.SongTag{}, false
	}

	url := songtag.URLDownloadable
	if price, _ := jsonpath.Uint(entry, "price"); price != 0 {
		url = songtag.URLCopyrightProtected
	}

	albumID, _ := jsonpath.String(entry, "album_id")
	return songtag.SongTag{
		SongID:          hash,
		Title:           title,
		Artist:          jsonpath.StringOr(entry, songtag.Unknown, "singername"),
		Album:           albumName(entry),
		PicID:           hash,
		LangExt:         songtag.LangChinese,
		ServiceProvider: songtag.Kugou,
		LyricID:         hash,
		URL:             url,
		AlbumID:         albumID,
	}, true
}

// albumName falls back to the placeholder only when the key is missing.
// Kugou sends null or numbers for some albums and those render as "".
func albumName(entry jsoniter.Any) string {
	if _, present := jsonpath.Lookup(entry, "album_name"); !present {
		return songtag.Unknown
	}
	return jsonpath.StringOr(entry, "", "album_name")
}

// ParseLyric decodes the base64 content of a lyric download response.
func ParseLyric(payload []byte) (string, bool) {
	root, ok := jsonpath.Parse(payload)
	if !ok || !jsonpath.StatusIs(root, lyricOK, "status") {
		return "", false
	}
	content, ok := jsonpath.String(root, "content")
	if !ok {
		return "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(content)
	if err != nil || !utf8.Valid(decoded) {
		return "", false
	}
	return string(decoded), true
}

// ResolveAccessKeyAndID reads the first lyric candidate.
func ResolveAccessKeyAndID(payload []byte) (AccessKey, bool) {
	root, ok := jsonpath.Parse(payload)
	if !ok || !jsonpath.StatusIs(root, accessKeyOK, "errcode") {
		return AccessKey{}, false
	}
	candidate, ok := jsonpath.Lookup(root, "candidates", 0)
	if !ok {
		return AccessKey{}, false
	}
	id, ok := jsonpath.String(candidate, "id")
	if !ok {
		return AccessKey{}, false
	}
	return AccessKey{
		AccessKey: jsonpath.StringOr(candidate, songtag.Unknown, "accesskey"),
		ID:        id,
	}, true
}

// ParsePlayableURL reads data.play_url. A missing url is "".
func ParsePlayableURL(payload []byte) (string, bool) {
	return playData(payload, "play_url")
}

// ParsePictureURL reads data.img. A missing image is "".
func ParsePictureURL(payload []byte) (string, bool) {
	return playData(payload, "img")
}

func playData(payload []byte, field string) (string, bool) {
	root, ok := jsonpath.Parse(payload)
	if !ok || !jsonpath.StatusIs(root, searchOK, "status") {
		return "", false
	}
	data, ok := jsonpath.Lookup(root, "data")
	if !ok {
		return "", false
	}
	return jsonpath.StringOr(data, "", field), true
}
