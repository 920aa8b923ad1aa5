// Package localtags reads and writes tags in local audio files.
package localtags

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/mikey-austin/songtag/internal/ports"
)

// Reader reads tags with dhowden/tag, falling back to the file name.
type Reader struct{}

// ReadTags returns title, artist, album and embedded lyrics of path. Files
// without readable tags are described from an "Artist - Title" file name.
func (Reader) ReadTags(path string) (ports.FileTags, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.FileTags{}, err
	}
	defer f.Close()

	fallback := fallbackTags(path)
	metadata, err := tag.ReadFrom(f)
	if err != nil {
		return fallback, nil
	}

	out := ports.FileTags{
		Title:  strings.TrimSpace(metadata.Title()),
		Artist: strings.TrimSpace(metadata.Artist()),
		Album:  strings.TrimSpace(metadata.Album()),
		Lyric:  metadata.Lyrics(),
	}
	if pic := metadata.Picture(); pic != nil {
		out.Picture = pic.Data
		out.PictureMIME = pic.MIMEType
	}
	if out.Title == "" {
		out.Title = fallback.Title
	}
	if out.Artist == "" {
		out.Artist = fallback.Artist
	}
	if out.Album == "" {
		out.Album = fallback.Album
	}
	return out, nil
}

func fallbackTags(path string) ports.FileTags {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.SplitN(name, " - ", 2)
	out := ports.FileTags{}
	if len(parts) == 2 {
		out.Artist = strings.TrimSpace(parts[0])
		out.Title = strings.TrimSpace(parts[1])
	} else {
		out.Title = strings.TrimSpace(name)
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." && dir != string(filepath.Separator) {
		out.Album = filepath.Base(dir)
	}
	return out
}
