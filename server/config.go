package server

import (
	"time"
)

type Conf struct {
	TimeoutRead  time.Duration
	TimeoutWrite time.Duration
	TimeoutIdle  time.Duration
}

// ServerConfigs returns the HTTP timeouts. The write timeout must outlast the
// slowest tool call, which can sit through the full downstream retry
// schedule.
func ServerConfigs() *Conf {
	return &Conf{
		TimeoutRead:  time.Second * 30,
		TimeoutWrite: time.Minute * 5,
		TimeoutIdle:  time.Second * 120,
	}
}
