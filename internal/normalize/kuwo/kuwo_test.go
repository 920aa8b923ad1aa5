package kuwo

import (
	"testing"

	"github.com/mikey-austin/songtag/pkg/songtag"
)

func TestParseSearchResults(t *testing.T) {
	payload := `{"code":200,"data":{"total":"2","list":[
		{"rid":228908,"musicrid":"MUSIC_228908","name":"晴天","artist":"周杰伦","album":"叶惠美","albumid":1234,"isListenFee":true},
		{"musicrid":"MUSIC_99","name":"Only musicrid","isListenFee":false}
	]}}`
	tags, ok := ParseSearchResults([]byte(payload))
	if !ok || len(tags) != 2 {
		t.Fatalf("expected two tags, got %+v %v", tags, ok)
	}
	want := songtag.SongTag{
		SongID:          "228908",
		Title:           "晴天",
		Artist:          "周杰伦",
		Album:           "叶惠美",
		PicID:           "228908",
		LangExt:         "chi",
		ServiceProvider: songtag.Kuwo,
		LyricID:         "228908",
		URL:             songtag.URLCopyrightProtected,
		AlbumID:         "1234",
	}
	if tags[0] != want {
		t.Fatalf("got %+v\nwant %+v", tags[0], want)
	}
	second := tags[1]
	if second.SongID != "99" || second.Artist != songtag.Unknown || second.URL != songtag.URLDownloadable {
		t.Fatalf("unexpected second tag: %+v", second)
	}
}

func TestParseSearchResultsSkipsIncomplete(t *testing.T) {
	payload := `{"code":200,"data":{"list":[{"name":"no id"},{"rid":1},{"musicrid":"MUSIC_","name":"empty"}]}}`
	tags, ok := ParseSearchResults([]byte(payload))
	if !ok || len(tags) != 0 {
		t.Fatalf("expected empty list, got %+v %v", tags, ok)
	}
}

func TestParseSearchResultsAbsent(t *testing.T) {
	for _, payload := range []string{`{"code":-1}`, `{"code":200,"data":{}}`, `{"status":200,"data":{"list":[]}}`, `[]`} {
		if _, ok := ParseSearchResults([]byte(payload)); ok {
			t.Fatalf("payload %q: expected absent", payload)
		}
	}
}

func TestParseLyric(t *testing.T) {
	payload := `{"status":200,"data":{"lrclist":[
		{"lineLyric":"first","time":"0.0"},
		{"lineLyric":"second","time":"65.5"},
		{"lineLyric":"skipped","time":"n/a"},
		{"lineLyric":"third","time":125.004}
	]}}`
	got, ok := ParseLyric([]byte(payload))
	if !ok {
		t.Fatalf("expected lyric")
	}
	want := "[00:00.00]first\n[01:05.50]second\n[02:05.00]third"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestParseLyricAbsent(t *testing.T) {
	cases := []string{
		`{"status":200,"data":{"lrclist":[]}}`,
		`{"status":200,"data":{"lrclist":null}}`,
		`{"status":201,"data":{"lrclist":[{"lineLyric":"x","time":"1"}]}}`,
		`{"code":200,"data":{"lrclist":[{"lineLyric":"x","time":"1"}]}}`,
	}
	for _, payload := range cases {
		if got, ok := ParseLyric([]byte(payload)); ok {
			t.Fatalf("payload %q: expected absent, got %q", payload, got)
		}
	}
}

func TestParseLyricDropsInvalidUTF8(t *testing.T) {
	payload := "{\"status\":200,\"data\":{\"lrclist\":[" +
		"{\"lineLyric\":\"ok\",\"time\":\"1\"}," +
		"{\"lineLyric\":\"a\xff\xfeb\",\"time\":\"2\"}]}}"
	got, ok := ParseLyric([]byte(payload))
	if !ok || got != "[00:01.00]ok" {
		t.Fatalf("got %q %v", got, ok)
	}

	only := "{\"status\":200,\"data\":{\"lrclist\":[{\"lineLyric\":\"\xc3\",\"time\":\"1\"}]}}"
	if got, ok := ParseLyric([]byte(only)); ok {
		t.Fatalf("expected absent, got %q", got)
	}
}

func TestParsePlayableURL(t *testing.T) {
	got, ok := ParsePlayableURL([]byte(`{"code":200,"data":{"url":"https://other.player.cn/a.mp3"}}`))
	if !ok || got != "https://other.player.cn/a.mp3" {
		t.Fatalf("url: %q %v", got, ok)
	}
	got, ok = ParsePlayableURL([]byte(`{"code":200,"data":{}}`))
	if !ok || got != "" {
		t.Fatalf("expected empty url, got %q %v", got, ok)
	}
	if _, ok := ParsePlayableURL([]byte(`{"code":200}`)); ok {
		t.Fatalf("expected absent without data")
	}
}

func TestParsePictureURL(t *testing.T) {
	got, ok := ParsePictureURL([]byte(`{"status":200,"data":{"songinfo":{"pic":"https://img1.kuwo.cn/a.jpg"}}}`))
	if !ok || got != "https://img1.kuwo.cn/a.jpg" {
		t.Fatalf("picture: %q %v", got, ok)
	}
	if _, ok := ParsePictureURL([]byte(`{"status":200,"data":{}}`)); ok {
		t.Fatalf("expected absent without songinfo")
	}
}
