package depositor

import (
	"errors"
	"time"
)

const (
	DefaultPrefix     = "TEST_DEPLOY_"
	DefaultAmount     = 20
	DefaultIterations = 10
	DefaultInterval   = time.Second
	DefaultTimeout    = 30 * time.Second
	DefaultLogPath    = "deposit_loadtest.csv"
)

var (
	ErrMissingURL    = errors.New("endpoint url is required")
	ErrMissingID     = errors.New("identifier must be positive")
	ErrBadIterations = errors.New("iterations must be positive")
	ErrBadInterval   = errors.New("interval must not be negative")
	ErrMissingLog    = errors.New("log path is required")
)

type Config struct {
	URL        string
	ID         int64
	Amount     int64
	Iterations int
	Interval   time.Duration
	Prefix     string
	UseUserID  bool
	LogPath    string
	Timeout    time.Duration
}

func (c *Config) Validate() error {
	switch {
	case c.URL == "":
		return ErrMissingURL
	case c.ID <= 0:
		return ErrMissingID
	case c.Iterations <= 0:
		return ErrBadIterations
	case c.Interval < 0:
		return ErrBadInterval
	case c.LogPath == "":
		return ErrMissingLog
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}
