package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mikey-austin/songtag/pkg/songtag"
)

const kuwoToken = "SONGTAG0KW"

const defaultSearchLimit = 20

// SearchURL builds the keyword search endpoint.
func SearchURL(provider songtag.Provider, query string, limit int) (string, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	q := url.Values{}
	switch provider {
	case songtag.Kugou:
		q.Set("format", "json")
		q.Set("keyword", query)
		q.Set("page", "1")
		q.Set("pagesize", strconv.Itoa(limit))
		q.Set("showtype", "1")
		return "http://mobilecdn.kugou.com/api/v3/search/song?" + q.Encode(), nil
	case songtag.Netease:
		q.Set("s", query)
		q.Set("type", "1")
		q.Set("offset", "0")
		q.Set("limit", strconv.Itoa(limit))
		return "https://music.163.com/api/search/get?" + q.Encode(), nil
	case songtag.Kuwo:
		q.Set("key", query)
		q.Set("pn", "1")
		q.Set("rn", strconv.Itoa(limit))
		q.Set("httpsStatus", "1")
		return "http://www.kuwo.cn/api/www/search/searchMusicBykeyWord?" + q.Encode(), nil
	default:
		return "", unsupported(provider, "search")
	}
}

// AccessKeyURL builds the lyric candidate endpoint. Only Kugou has one.
func AccessKeyURL(provider songtag.Provider, lyricID string) (string, error) {
	if provider != songtag.Kugou {
		return "", unsupported(provider, "access key")
	}
	q := url.Values{}
	q.Set("ver", "1")
	q.Set("man", "yes")
	q.Set("client", "mobi")
	q.Set("hash", lyricID)
	return "http://krcs.kugou.com/search?" + q.Encode(), nil
}

// LyricURL builds the lyric endpoint. accessKey is only used by Kugou.
func LyricURL(provider songtag.Provider, id string, accessKey string) (string, error) {
	q := url.Values{}
	switch provider {
	case songtag.Kugou:
		q.Set("ver", "1")
		q.Set("client", "pc")
		q.Set("id", id)
		q.Set("accesskey", accessKey)
		q.Set("fmt", "lrc")
		q.Set("charset", "utf8")
		return "http://lyrics.kugou.com/download?" + q.Encode(), nil
	case songtag.Netease:
		q.Set("id", id)
		q.Set("lv", "1")
		q.Set("kv", "1")
		q.Set("tv", "-1")
		return "https://music.163.com/api/song/lyric?" + q.Encode(), nil
	case songtag.Kuwo:
		q.Set("musicId", id)
		return "http://m.kuwo.cn/newh5/singles/songinfoandlrc?" + q.Encode(), nil
	default:
		return "", unsupported(provider, "lyric")
	}
}

// SongURL builds the playable url endpoint.
func SongURL(provider songtag.Provider, songID string) (string, error) {
	q := url.Values{}
	switch provider {
	case songtag.Kugou:
		q.Set("r", "play/getdata")
		q.Set("hash", songID)
		return "http://www.kugou.com/yy/index.php?" + q.Encode(), nil
	case songtag.Netease:
		q.Set("ids", "["+songID+"]")
		q.Set("br", "320000")
		return "https://music.163.com/api/song/enhance/player/url?" + q.Encode(), nil
	case songtag.Kuwo:
		q.Set("mid", songID)
		q.Set("type", "music")
		q.Set("httpsStatus", "1")
		return "http://www.kuwo.cn/api/v1/www/music/playUrl?" + q.Encode(), nil
	default:
		return "", unsupported(provider, "song url")
	}
}

// PictureURL builds the endpoint whose payload carries the artwork url.
func PictureURL(provider songtag.Provider, picID string) (string, error) {
	switch provider {
	case songtag.Kugou:
		return SongURL(provider, picID)
	case songtag.Netease:
		q := url.Values{}
		q.Set("ids", "["+picID+"]")
		return "https://music.163.com/api/song/detail?" + q.Encode(), nil
	case songtag.Kuwo:
		return LyricURL(provider, picID, "")
	default:
		return "", unsupported(provider, "picture")
	}
}

func unsupported(provider songtag.Provider, what string) error {
	return fmt.Errorf("%s: %s endpoint not supported", provider, what)
}

// Search fetches a search payload.
func (c *Client) Search(ctx context.Context, provider songtag.Provider, query string, limit int) ([]byte, error) {
	endpoint, err := SearchURL(provider, query, limit)
	if err != nil {
		return nil, err
	}
	return c.Fetch(ctx, provider, endpoint)
}

// AccessKey fetches the lyric candidate payload.
func (c *Client) AccessKey(ctx context.Context, provider songtag.Provider, lyricID string) ([]byte, error) {
	endpoint, err := AccessKeyURL(provider, lyricID)
	if err != nil {
		return nil, err
	}
	return c.Fetch(ctx, provider, endpoint)
}

// Lyric fetches a lyric payload.
func (c *Client) Lyric(ctx context.Context, provider songtag.Provider, id string, accessKey string) ([]byte, error) {
	endpoint, err := LyricURL(provider, id, accessKey)
	if err != nil {
		return nil, err
	}
	return c.Fetch(ctx, provider, endpoint)
}

// SongURL fetches a playable url payload.
func (c *Client) SongURL(ctx context.Context, provider songtag.Provider, songID string) ([]byte, error) {
	endpoint, err := SongURL(provider, songID)
	if err != nil {
		return nil, err
	}
	return c.Fetch(ctx, provider, endpoint)
}

// Picture fetches the payload that carries the artwork url.
func (c *Client) Picture(ctx context.Context, provider songtag.Provider, picID string) ([]byte, error) {
	endpoint, err := PictureURL(provider, picID)
	if err != nil {
		return nil, err
	}
	return c.Fetch(ctx, provider, endpoint)
}
