package influxdb

import (
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/reconstruct"
)

// Measurement is the InfluxDB measurement reconstruction stats are written to.
const Measurement = "reconstruction"

// Run tags one reconstruction for export.
type Run struct {
	// Source names the producer, eg. a webd session ID or an input file name.
	Source string
	Time   time.Time
	Stats  reconstruct.Stats
}

// Point converts a run to an InfluxDB line protocol point.
func (r Run) Point() *write.Point {
	s := r.Stats
	p := influxdb2.NewPointWithMeasurement(Measurement).
		SetTime(r.Time).
		AddField("original", s.OriginalCount).
		AddField("invalid", s.InvalidDropped).
		AddField("removed", s.RemovedOutliers).
		AddField("interpolated", s.InterpolatedPoints).
		AddField("final", s.FinalCount)
	if r.Source != "" {
		p.AddTag("source", r.Source)
	}
	if s.OriginalCount > 0 {
		p.AddField("removed_ratio", float64(s.RemovedOutliers)/float64(s.OriginalCount))
	}
	return p
}

// ExportRuns posts runs to an InfluxDB Write API configured by c.
// The Write API buffers and flushes; the last async error encountered is returned.
func ExportRuns(c *params.InfluxDBConfig, runs []Run) error {
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Millisecond)
	client := influxdb2.NewClientWithOptions(c.URL, c.Token, opts)
	writeAPI := client.WriteAPI(c.Org, c.Bucket)

	// Errors must be read before any write, and drained, or the writer blocks.
	errorsCh := writeAPI.Errors()
	var err error
	wait := sync.WaitGroup{}
	wait.Add(1)
	go func() {
		defer wait.Done()
		for e := range errorsCh {
			if e != nil {
				err = e
			}
		}
	}()

	for _, r := range runs {
		writeAPI.WritePoint(r.Point())
	}
	writeAPI.Flush()
	client.Close()
	wait.Wait()
	return err
}
