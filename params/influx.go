package params

import "os"

// InfluxDBConfig locates an InfluxDB v2 write endpoint.
type InfluxDBConfig struct {
	URL    string `mapstructure:"url"`
	Token  string `mapstructure:"token" json:"-"`
	Org    string `mapstructure:"org"`
	Bucket string `mapstructure:"bucket"`
}

// Enabled reports whether an export target is configured.
func (c *InfluxDBConfig) Enabled() bool {
	return c != nil && c.URL != "" && c.Bucket != ""
}

// DefaultInfluxDBConfig reads TRAJD_INFLUXDB_* from the environment.
func DefaultInfluxDBConfig() *InfluxDBConfig {
	return &InfluxDBConfig{
		URL:    os.Getenv("TRAJD_INFLUXDB_URL"),
		Token:  os.Getenv("TRAJD_INFLUXDB_TOKEN"),
		Org:    os.Getenv("TRAJD_INFLUXDB_ORG"),
		Bucket: os.Getenv("TRAJD_INFLUXDB_BUCKET"),
	}
}
