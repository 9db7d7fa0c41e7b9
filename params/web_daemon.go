package params

import (
	"path/filepath"
	"time"
)

type WebDaemonConfig struct {
	ListenerConfig `mapstructure:",squash"`

	// DataDir holds the result store. Empty means results are only memoized in memory.
	DataDir string `mapstructure:"datadir"`

	// SessionTTL is how long an idle live session is kept.
	SessionTTL time.Duration `mapstructure:"session-ttl"`

	// SessionCapacity bounds the observations buffered per live session.
	// The oldest observations are dropped first.
	SessionCapacity int `mapstructure:"session-capacity"`

	// DedupeSize is the number of recent observations remembered per session to drop repeats.
	DedupeSize int `mapstructure:"dedupe-size"`

	// Pipeline is the reconstruction config used when a request carries none.
	Pipeline *PipelineConfig `mapstructure:"pipeline"`

	InfluxDB *InfluxDBConfig `mapstructure:"influxdb"`

	// Token, if set, is required of clients posting observations.
	Token string `mapstructure:"token" json:"-"`
}

func DefaultWebListenerConfig() ListenerConfig {
	return ListenerConfig{
		Network: "tcp",
		Address: "localhost:3000",
	}
}

func DefaultWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		ListenerConfig:  DefaultWebListenerConfig(),
		DataDir:         filepath.Join(DefaultDatadirRoot, "webd"),
		SessionTTL:      30 * time.Minute,
		SessionCapacity: 18_000, // 10 minutes at 30fps
		DedupeSize:      1_000,
		Pipeline:        DefaultPipelineConfig(),
		InfluxDB:        DefaultInfluxDBConfig(),
	}
}

func DefaultTestWebDaemonConfig() *WebDaemonConfig {
	d := DefaultWebDaemonConfig()
	d.DataDir = ""
	d.Address = "localhost:3333"
	d.InfluxDB = nil
	return d
}
