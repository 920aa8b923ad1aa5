package core

import (
	"time"

	"github.com/mikey-austin/songtag/pkg/songtag"
)

// Config is runtime configuration for the CLI.
type Config struct {
	Broker    string
	Identity  string
	TopicBase string
	Node      string
	Aliases   map[string]string
	Providers []songtag.Provider
	Limit     int
	Timeout   time.Duration
}
