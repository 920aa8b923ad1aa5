package kugou

import (
	"testing"

	"github.com/mikey-austin/songtag/pkg/songtag"
)

func FuzzParseSearchResults(f *testing.F) {
	f.Add([]byte(`{"status":1,"data":{"info":[{"hash":"abc123","songname":"X","price":0}]}}`))
	f.Add([]byte(`{"status":0}`))
	f.Add([]byte(`{`))

	f.Fuzz(func(t *testing.T, payload []byte) {
		tags, _ := ParseSearchResults(payload)
		for _, tag := range tags {
			if tag.ServiceProvider != songtag.Kugou {
				t.Fatalf("unexpected provider %v", tag.ServiceProvider)
			}
			if tag.PicID != tag.SongID || tag.LyricID != tag.SongID {
				t.Fatalf("ids diverge from hash: %+v", tag)
			}
		}
	})
}

func FuzzParseLyric(f *testing.F) {
	f.Add([]byte(`{"status":200,"content":"aGk="}`))
	f.Add([]byte(`{"status":200,"content":"@@"}`))

	f.Fuzz(func(t *testing.T, payload []byte) {
		_, _ = ParseLyric(payload)
		_, _ = ResolveAccessKeyAndID(payload)
		_, _ = ParsePlayableURL(payload)
		_, _ = ParsePictureURL(payload)
	})
}
