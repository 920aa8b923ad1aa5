package songtag

import (
	"encoding/json"
	"testing"
)

func TestValidateCommandEnvelopeRejectsUnknownType(t *testing.T) {
	cmd, err := NewCommand("playback.play", SearchBody{Query: "x"})
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	cmd.ID = "id"
	cmd.TS = 1
	cmd.From = "tester"
	if err := ValidateCommandEnvelope(cmd); err == nil {
		t.Fatalf("expected type error")
	}

	cmd.Type = CommandSearch
	if err := ValidateCommandEnvelope(cmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCommandEnvelopeMissingFields(t *testing.T) {
	cmd := CommandEnvelope{}
	if err := ValidateCommandEnvelope(cmd); err == nil {
		t.Fatalf("expected error")
	}
}

func TestTopics(t *testing.T) {
	if got := TopicCommands(BaseTopic, "n1"); got != "songtag/v1/node/n1/cmd" {
		t.Fatalf("commands topic: %s", got)
	}
	if got := TopicPresence(BaseTopic, "n1"); got != "songtag/v1/node/n1/presence" {
		t.Fatalf("presence topic: %s", got)
	}
	if got := TopicReply(BaseTopic, "c1"); got != "songtag/v1/reply/c1" {
		t.Fatalf("reply topic: %s", got)
	}
}

func TestLookupBodyCarriesProviderName(t *testing.T) {
	payload, err := json.Marshal(LookupBody{Tag: SongTag{SongID: "h", ServiceProvider: Kuwo}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw struct {
		Tag map[string]any `json:"tag"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw.Tag["serviceProvider"] != "kuwo" {
		t.Fatalf("provider encoded as %v", raw.Tag["serviceProvider"])
	}

	var body LookupBody
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Tag.ServiceProvider != Kuwo || body.Tag.SongID != "h" {
		t.Fatalf("unexpected tag: %+v", body.Tag)
	}
}
