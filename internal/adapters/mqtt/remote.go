package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey-austin/songtag/internal/ports"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

// ReplyError is a failed reply from a lookup node.
type ReplyError struct {
	Code    string
	Message string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ReplyCode returns the protocol error code.
func (e *ReplyError) ReplyCode() string {
	return e.Code
}

// RemoteLookup runs lookups on a songtagd node over the broker.
type RemoteLookup struct {
	Broker   ports.Broker
	NodeID   string
	Identity string
	Clock    ports.Clock
	IDGen    ports.IDGen
}

// Search asks the node to search providers.
func (r RemoteLookup) Search(ctx context.Context, query string, providers []songtag.Provider, limit int) ([]songtag.SongTag, error) {
	var reply songtag.SearchReply
	found, err := r.call(ctx, songtag.CommandSearch, songtag.SearchBody{Query: query, Providers: providers, Limit: limit}, &reply)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return reply.Tags, nil
}

// Lyric asks the node for the lyric of tag.
func (r RemoteLookup) Lyric(ctx context.Context, tag songtag.SongTag) (string, bool, error) {
	return r.text(ctx, songtag.CommandLyric, tag)
}

// SongURL asks the node for the playable url of tag.
func (r RemoteLookup) SongURL(ctx context.Context, tag songtag.SongTag) (string, bool, error) {
	return r.text(ctx, songtag.CommandURL, tag)
}

// PictureURL asks the node for the artwork url of tag.
func (r RemoteLookup) PictureURL(ctx context.Context, tag songtag.SongTag) (string, bool, error) {
	return r.text(ctx, songtag.CommandPicture, tag)
}

func (r RemoteLookup) text(ctx context.Context, cmdType string, tag songtag.SongTag) (string, bool, error) {
	var reply songtag.TextReply
	found, err := r.call(ctx, cmdType, songtag.LookupBody{Tag: tag}, &reply)
	if err != nil || !found {
		return "", false, err
	}
	return reply.Text, true, nil
}

// call returns found == false for NOT_FOUND replies.
func (r RemoteLookup) call(ctx context.Context, cmdType string, body any, out any) (bool, error) {
	if strings.TrimSpace(r.NodeID) == "" {
		return false, errors.New("lookup node is required")
	}
	cmd, err := songtag.NewCommand(cmdType, body)
	if err != nil {
		return false, err
	}
	cmd.ID = r.IDGen.NewID()
	cmd.TS = r.Clock.NowUnix()
	cmd.From = r.Identity
	cmd.ReplyTo = r.Broker.ReplyTopic()

	reply, err := r.Broker.PublishCommand(ctx, r.NodeID, cmd)
	if err != nil {
		return false, fmt.Errorf("publish %s: %w", cmdType, err)
	}
	if reply.Err != nil {
		if reply.Err.Code == songtag.CodeNotFound {
			return false, nil
		}
		return false, &ReplyError{Code: reply.Err.Code, Message: reply.Err.Message}
	}
	if !reply.OK {
		return false, fmt.Errorf("%s: node replied without ok", cmdType)
	}
	if len(reply.Body) == 0 {
		return false, fmt.Errorf("%s: empty reply body", cmdType)
	}
	if err := json.Unmarshal(reply.Body, out); err != nil {
		return false, fmt.Errorf("decode %s reply: %w", cmdType, err)
	}
	return true, nil
}
