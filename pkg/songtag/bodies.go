package songtag

// SearchBody is the payload for songtag.search.
type SearchBody struct {
	Query     string     `json:"query"`
	Providers []Provider `json:"providers,omitempty"`
	Limit     int        `json:"limit,omitempty"`
}

// SearchReply is the reply body for songtag.search.
type SearchReply struct {
	Tags []SongTag `json:"tags"`
}

// LookupBody is the payload for songtag.lyric, songtag.url and songtag.picture.
type LookupBody struct {
	Tag SongTag `json:"tag"`
}

// TextReply carries a lyric or URL.
type TextReply struct {
	Text string `json:"text"`
}
