// Package kuwo normalizes Kuwo API payloads.
package kuwo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/mikey-austin/songtag/internal/normalize/jsonpath"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

// The web API signals success with code, the mobile song info API with status.
const (
	codeOK   = 200
	statusOK = 200
)

const musicRIDPrefix = "MUSIC_"

// Upper bound on a lyric timestamp, in seconds.
const maxLyricSeconds = 24 * 60 * 60

// ParseSearchResults reads data.list from a keyword search response.
func ParseSearchResults(payload []byte) ([]songtag.SongTag, bool) {
	root, ok := jsonpath.Parse(payload)
	if !ok || !jsonpath.StatusIs(root, codeOK, "code") {
		return nil, false
	}
	list, ok := jsonpath.Array(root, "data", "list")
	if !ok {
		return nil, false
	}

	tags := make([]songtag.SongTag, 0, list.Size())
	jsonpath.Each(list, func(_ int, entry jsoniter.Any) {
		if tag, ok := parseEntry(entry); ok {
			tags = append(tags, tag)
		}
	})
	return tags, true
}

func parseEntry(entry jsoniter.Any) (songtag.SongTag, bool) {
	id, ok := songID(entry)
	if !ok {
		return songtag.SongTag{}, false
	}
	title, ok := jsonpath.String(entry, "name")
	if !ok || title == "" {
		return songtag.SongTag{}, false
	}

	url := songtag.URLDownloadable
	if fee, _ := jsonpath.Bool(entry, "isListenFee"); fee {
		url = songtag.URLCopyrightProtected
	}

	albumID, _ := jsonpath.ID(entry, "albumid")
	return songtag.SongTag{
		SongID:          id,
		Title:           title,
		Artist:          jsonpath.StringOr(entry, songtag.Unknown, "artist"),
		Album:           jsonpath.StringOr(entry, songtag.Unknown, "album"),
		PicID:           id,
		LangExt:         songtag.LangChinese,
		ServiceProvider: songtag.Kuwo,
		LyricID:         id,
		URL:             url,
		AlbumID:         albumID,
	}, true
}

// songID prefers rid and falls back to musicrid without its MUSIC_ prefix.
func songID(entry jsoniter.Any) (string, bool) {
	if id, ok := jsonpath.ID(entry, "rid"); ok && id != "" {
		return id, true
	}
	rid, ok := jsonpath.String(entry, "musicrid")
	if !ok {
		return "", false
	}
	id := strings.TrimPrefix(rid, musicRIDPrefix)
	return id, id != ""
}

// ParseLyric renders data.lrclist as LRC text. Lines with an unreadable
// timestamp or text that is not UTF-8 are dropped; a list with no usable
// lines is absent.
func ParseLyric(payload []byte) (string, bool) {
	root, ok := jsonpath.Parse(payload)
	if !ok || !jsonpath.StatusIs(root, statusOK, "status") {
		return "", false
	}
	list, ok := jsonpath.Array(root, "data", "lrclist")
	if !ok {
		return "", false
	}

	var b strings.Builder
	lines := 0
	jsonpath.Each(list, func(_ int, line jsoniter.Any) {
		text, ok := jsonpath.Text(line, "lineLyric")
		if !ok {
			return
		}
		stamp, ok := timestamp(line)
		if !ok {
			return
		}
		if lines > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(stamp)
		b.WriteString(text)
		lines++
	})
	if lines == 0 {
		return "", false
	}
	return b.String(), true
}

// timestamp formats the time field, sent as seconds in a string or number.
func timestamp(line jsoniter.Any) (string, bool) {
	node, ok := jsonpath.Lookup(line, "time")
	if !ok {
		return "", false
	}
	var raw string
	switch node.ValueType() {
	case jsoniter.StringValue, jsoniter.NumberValue:
		raw = node.ToString()
	default:
		return "", false
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(secs) || secs < 0 || secs > maxLyricSeconds {
		return "", false
	}
	cs := int64(math.Round(secs * 100))
	return fmt.Sprintf("[%02d:%02d.%02d]", cs/6000, (cs/100)%60, cs%100), true
}

// ParsePlayableURL reads data.url from a play url response.
func ParsePlayableURL(payload []byte) (string, bool) {
	root, ok := jsonpath.Parse(payload)
	if !ok || !jsonpath.StatusIs(root, codeOK, "code") {
		return "", false
	}
	data, ok := jsonpath.Lookup(root, "data")
	if !ok {
		return "", false
	}
	return jsonpath.StringOr(data, "", "url"), true
}

// ParsePictureURL reads data.songinfo.pic from a song info response.
func ParsePictureURL(payload []byte) (string, bool) {
	root, ok := jsonpath.Parse(payload)
	if !ok || !jsonpath.StatusIs(root, statusOK, "status") {
		return "", false
	}
	info, ok := jsonpath.Object(root, "data", "songinfo")
	if !ok {
		return "", false
	}
	return jsonpath.StringOr(info, "", "pic"), true
}
