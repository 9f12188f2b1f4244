package callstate

import (
	"github.com/ethereum/go-ethereum/log"
)

// Config contains the settings of a Manager.
type Config struct {
	// DiscardStale drops the outcome of a call when a newer call was issued
	// after it. By default the call that settles last wins.
	DiscardStale bool

	// Logger receives the manager's log output. Defaults to a child of the root logger.
	Logger log.Logger
}

// DefaultConfig contains the default settings.
var DefaultConfig = Config{}

func (c *Config) sanitize() Config {
	conf := *c
	if conf.Logger == nil {
		conf.Logger = log.New("module", "callstate")
	}
	return conf
}
