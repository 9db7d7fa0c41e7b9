package stream

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/trajd/common"
)

// MeteredReader wraps a reader and periodically logs read progress:
// lines (NDJSON records) and bytes, with rates.
// Close stops the logging; it does not close the wrapped reader.
type MeteredReader struct {
	r        io.Reader
	label    string
	interval time.Duration
	started  time.Time
	ticker   *time.Ticker
	done     chan struct{}
	once     sync.Once

	lineMeter metrics.Meter
	sizeMeter metrics.Meter
}

func NewMeteredReader(r io.Reader, label string, interval time.Duration) *MeteredReader {
	// Meters constructed while disabled are no-ops.
	metrics.Enabled = true

	mr := &MeteredReader{
		r:         r,
		label:     label,
		interval:  interval,
		started:   time.Now(),
		done:      make(chan struct{}),
		lineMeter: metrics.NewMeter(),
		sizeMeter: metrics.NewMeter(),
	}
	mr.ticker = time.NewTicker(interval)
	go mr.run()
	return mr
}

func (mr *MeteredReader) Read(p []byte) (int, error) {
	n, err := mr.r.Read(p)
	if n > 0 {
		mr.sizeMeter.Mark(int64(n))
		mr.lineMeter.Mark(int64(bytes.Count(p[:n], []byte{'\n'})))
	}
	return n, err
}

func (mr *MeteredReader) run() {
	for {
		select {
		case <-mr.done:
			return
		case <-mr.ticker.C:
			mr.log()
		}
	}
}

// Lines is the number of newlines read so far.
func (mr *MeteredReader) Lines() int64 {
	return mr.lineMeter.Snapshot().Count()
}

// Bytes is the number of bytes read so far.
func (mr *MeteredReader) Bytes() int64 {
	return mr.sizeMeter.Snapshot().Count()
}

func (mr *MeteredReader) log() {
	lineSnap := mr.lineMeter.Snapshot()
	sizeSnap := mr.sizeMeter.Snapshot()

	slog.Info("Read "+mr.label, "lines", humanize.Comma(lineSnap.Count()),
		"lps", common.DecimalToFixed(lineSnap.Rate1(), 0),
		"bps", humanize.Bytes(uint64(sizeSnap.Rate1())),
		"total.bytes", humanize.Bytes(uint64(sizeSnap.Count())),
		"running", time.Since(mr.started).Round(time.Second))
}

// Close stops logging and logs once more if any data was read.
func (mr *MeteredReader) Close() error {
	mr.once.Do(func() {
		mr.ticker.Stop()
		close(mr.done)
		if mr.Bytes() > 0 {
			mr.log()
		}
		mr.lineMeter.Stop()
		mr.sizeMeter.Stop()
	})
	return nil
}
