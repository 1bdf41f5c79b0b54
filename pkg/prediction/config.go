package prediction

import "time"

// Config tunes the engine. Zero fields take the documented defaults.
type Config struct {
	MinSamples      int
	TrendWindow     int
	RemoteWindow    int
	Threshold       float64
	LowDownlinkMbps float64
	HorizonSeconds  int
	RemoteTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinSamples:      10,
		TrendWindow:     10,
		RemoteWindow:    20,
		Threshold:       0.75,
		LowDownlinkMbps: 0.5,
		HorizonSeconds:  5,
		RemoteTimeout:   2 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinSamples <= 0 {
		c.MinSamples = d.MinSamples
	}
	if c.TrendWindow <= 0 {
		c.TrendWindow = d.TrendWindow
	}
	if c.RemoteWindow <= 0 {
		c.RemoteWindow = d.RemoteWindow
	}
	if c.Threshold <= 0 {
		c.Threshold = d.Threshold
	}
	if c.LowDownlinkMbps <= 0 {
		c.LowDownlinkMbps = d.LowDownlinkMbps
	}
	if c.HorizonSeconds <= 0 {
		c.HorizonSeconds = d.HorizonSeconds
	}
	if c.RemoteTimeout <= 0 {
		c.RemoteTimeout = d.RemoteTimeout
	}
	return c
}
