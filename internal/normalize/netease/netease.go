// Package netease normalizes NetEase Cloud Music API payloads.
package netease

import (
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/mikey-austin/songtag/internal/normalize/jsonpath"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

const codeOK = 200

// Fee values that still allow a free download.
var freeFees = map[int64]bool{0: true, 8: true}

// ParseSearchResults reads result.songs from a search response. Numeric ids
// are rendered in decimal; the same id serves lyric and picture lookups.
func ParseSearchResults(payload []byte) ([]songtag.SongTag, bool) {
	root, ok := okRoot(payload)
	if !ok {
		return nil, false
	}
	songs, ok := jsonpath.Array(root, "result", "songs")
	if !ok {
		return nil, false
	}

	tags := make([]songtag.SongTag, 0, songs.Size())
	jsonpath.Each(songs, func(_ int, entry jsoniter.Any) {
		if tag, ok := parseSong(entry); ok {
			tags = append(tags, tag)
		}
	})
	return tags, true
}

func parseSong(entry jsoniter.Any) (songtag.SongTag, bool) {
	id, ok := jsonpath.ID(entry, "id")
	if !ok || id == "" {
		return songtag.SongTag{}, false
	}
	title, ok := jsonpath.String(entry, "name")
	if !ok || title == "" {
		return songtag.SongTag{}, false
	}

	url := songtag.URLDownloadable
	if fee, ok := jsonpath.Int(entry, "fee"); ok && !freeFees[fee] {
		url = songtag.URLCopyrightProtected
	}

	albumID, _ := jsonpath.ID(entry, "album", "id")
	return songtag.SongTag{
		SongID:          id,
		Title:           title,
		Artist:          artists(entry),
		Album:           jsonpath.StringOr(entry, songtag.Unknown, "album", "name"),
		PicID:           id,
		LangExt:         songtag.LangChinese,
		ServiceProvider: songtag.Netease,
		LyricID:         id,
		URL:             url,
		AlbumID:         albumID,
	}, true
}

func artists(entry jsoniter.Any) string {
	list, ok := jsonpath.Array(entry, "artists")
	if !ok {
		return songtag.Unknown
	}
	var names []string
	jsonpath.Each(list, func(_ int, artist jsoniter.Any) {
		if name, ok := jsonpath.String(artist, "name"); ok && name != "" {
			names = append(names, name)
		}
	})
	if len(names) == 0 {
		return songtag.Unknown
	}
	return strings.Join(names, ", ")
}

// ParseLyric reads lrc.lyric. NetEase sends plain LRC text.
func ParseLyric(payload []byte) (string, bool) {
	root, ok := okRoot(payload)
	if !ok {
		return "", false
	}
	return jsonpath.Text(root, "lrc", "lyric")
}

// ParsePlayableURL reads data[0].url. A null url is "".
func ParsePlayableURL(payload []byte) (string, bool) {
	root, ok := okRoot(payload)
	if !ok {
		return "", false
	}
	first, ok := jsonpath.Object(root, "data", 0)
	if !ok {
		return "", false
	}
	return jsonpath.StringOr(first, "", "url"), true
}

// ParsePictureURL reads songs[0].album.picUrl from a song detail response.
func ParsePictureURL(payload []byte) (string, bool) {
	root, ok := okRoot(payload)
	if !ok {
		return "", false
	}
	album, ok := jsonpath.Object(root, "songs", 0, "album")
	if !ok {
		return "", false
	}
	return jsonpath.StringOr(album, "", "picUrl"), true
}

func okRoot(payload []byte) (jsoniter.Any, bool) {
	root, ok := jsonpath.Parse(payload)
	if !ok || !jsonpath.StatusIs(root, codeOK, "code") {
		return nil, false
	}
	return root, true
}
