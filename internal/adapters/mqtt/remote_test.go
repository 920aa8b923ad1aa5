package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mikey-austin/songtag/internal/adapters/clock"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

type stubIDGen struct{}

func (stubIDGen) NewID() string { return "id-1" }

type stubBroker struct {
	reply    songtag.ReplyEnvelope
	err      error
	lastNode string
	lastCmd  songtag.CommandEnvelope
}

func (s *stubBroker) ReplyTopic() string { return "songtag/v1/reply/test" }

func (s *stubBroker) PublishCommand(ctx context.Context, nodeID string, cmd songtag.CommandEnvelope) (songtag.ReplyEnvelope, error) {
	s.lastNode = nodeID
	s.lastCmd = cmd
	return s.reply, s.err
}

func (s *stubBroker) ListPresence(ctx context.Context) ([]songtag.Presence, error) {
	return nil, nil
}

func newRemote(broker *stubBroker) RemoteLookup {
	return RemoteLookup{Broker: broker, NodeID: "node-1", Identity: "tester", Clock: clock.Fixed(100), IDGen: stubIDGen{}}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestRemoteSearchDecoratesCommand(t *testing.T) {
	tags := []songtag.SongTag{{SongID: "h", Title: "t", ServiceProvider: songtag.Kugou}}
	broker := &stubBroker{reply: songtag.ReplyEnvelope{ID: "id-1", OK: true, Body: mustJSON(t, songtag.SearchReply{Tags: tags})}}

	got, err := newRemote(broker).Search(context.Background(), "q", []songtag.Provider{songtag.Kugou}, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0] != tags[0] {
		t.Fatalf("unexpected tags: %+v", got)
	}
	cmd := broker.lastCmd
	if broker.lastNode != "node-1" || cmd.Type != songtag.CommandSearch {
		t.Fatalf("unexpected routing: %s %s", broker.lastNode, cmd.Type)
	}
	if cmd.ID != "id-1" || cmd.TS != 100 || cmd.From != "tester" || cmd.ReplyTo != "songtag/v1/reply/test" {
		t.Fatalf("command not decorated: %+v", cmd)
	}
	if err := songtag.ValidateCommandEnvelope(cmd); err != nil {
		t.Fatalf("invalid command: %v", err)
	}
}

func TestRemoteLyricNotFoundIsAbsent(t *testing.T) {
	broker := &stubBroker{reply: songtag.ReplyEnvelope{ID: "id-1", Err: &songtag.ReplyError{Code: songtag.CodeNotFound, Message: "no lyric"}}}
	text, ok, err := newRemote(broker).Lyric(context.Background(), songtag.SongTag{LyricID: "x", ServiceProvider: songtag.Kugou})
	if err != nil || ok || text != "" {
		t.Fatalf("expected absent, got %q %v %v", text, ok, err)
	}
}

func TestRemoteReplyErrorIsReturned(t *testing.T) {
	broker := &stubBroker{reply: songtag.ReplyEnvelope{ID: "id-1", Err: &songtag.ReplyError{Code: songtag.CodeUnavailable, Message: "down"}}}
	_, _, err := newRemote(broker).SongURL(context.Background(), songtag.SongTag{SongID: "x", ServiceProvider: songtag.Kuwo})
	var replyErr *ReplyError
	if !errors.As(err, &replyErr) || replyErr.Code != songtag.CodeUnavailable {
		t.Fatalf("expected reply error, got %v", err)
	}
}

func TestRemoteTextReply(t *testing.T) {
	broker := &stubBroker{reply: songtag.ReplyEnvelope{ID: "id-1", OK: true, Body: mustJSON(t, songtag.TextReply{Text: "http://img"})}}
	text, ok, err := newRemote(broker).PictureURL(context.Background(), songtag.SongTag{PicID: "x", ServiceProvider: songtag.Netease})
	if err != nil || !ok || text != "http://img" {
		t.Fatalf("unexpected result %q %v %v", text, ok, err)
	}
	var body songtag.LookupBody
	if err := json.Unmarshal(broker.lastCmd.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Tag.PicID != "x" || body.Tag.ServiceProvider != songtag.Netease {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestRemoteRequiresNode(t *testing.T) {
	remote := newRemote(&stubBroker{})
	remote.NodeID = ""
	if _, err := remote.Search(context.Background(), "q", nil, 0); err == nil {
		t.Fatalf("expected error without node")
	}
}
