package localtags

import (
	"fmt"

	"github.com/bogem/id3v2"

	"github.com/mikey-austin/songtag/internal/ports"
)

// Writer stores tags as ID3v2.3 frames. v2.3 has no UTF-8 text encoding, so
// text frames are written as UTF-16 with a byte order mark.
type Writer struct{}

// WriteTags sets the non-empty text frames of tags and replaces any existing
// lyrics and front cover with the ones in tags.
func (Writer) WriteTags(path string, tags ports.FileTags) error {
	file, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("id3 open error: %w", err)
	}
	defer file.Close()

	file.SetVersion(3)
	file.SetDefaultEncoding(id3v2.EncodingUTF16)
	if tags.Title != "" {
		file.SetTitle(tags.Title)
	}
	if tags.Artist != "" {
		file.SetArtist(tags.Artist)
	}
	if tags.Album != "" {
		file.SetAlbum(tags.Album)
	}

	if tags.Lyric != "" {
		file.DeleteFrames(file.CommonID("Unsynchronised lyrics/text transcription"))
		lang := tags.LyricLang
		if len(lang) != 3 {
			lang = "eng"
		}
		file.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding:          id3v2.EncodingUTF16,
			Language:          lang,
			ContentDescriptor: "",
			Lyrics:            tags.Lyric,
		})
	}

	if len(tags.Picture) > 0 {
		file.DeleteFrames(file.CommonID("Attached picture"))
		mime := tags.PictureMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		file.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF16,
			MimeType:    mime,
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     tags.Picture,
		})
	}

	if err := file.Save(); err != nil {
		return fmt.Errorf("id3 save error: %w", err)
	}
	return nil
}
