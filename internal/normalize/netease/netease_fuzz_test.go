package netease

import (
	"testing"

	"github.com/mikey-austin/songtag/pkg/songtag"
)

func FuzzParseSearchResults(f *testing.F) {
	f.Add([]byte(`{"code":200,"result":{"songs":[{"id":1,"name":"a","artists":[{"name":"b"}]}]}}`))
	f.Add([]byte(`{"code":200,"data":[{"url":null}]}`))

	f.Fuzz(func(t *testing.T, payload []byte) {
		tags, _ := ParseSearchResults(payload)
		for _, tag := range tags {
			if tag.ServiceProvider != songtag.Netease {
				t.Fatalf("unexpected provider %v", tag.ServiceProvider)
			}
		}
		_, _ = ParseLyric(payload)
		_, _ = ParsePlayableURL(payload)
		_, _ = ParsePictureURL(payload)
	})
}
