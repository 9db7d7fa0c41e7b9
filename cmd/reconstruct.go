/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/trajd/metrics"
	"github.com/rotblauer/trajd/metrics/influxdb"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/reconstruct"
	"github.com/rotblauer/trajd/stream"
	"github.com/rotblauer/trajd/trajdb"
	"github.com/rotblauer/trajd/trajz"
	"github.com/rotblauer/trajd/types"
	"github.com/rotblauer/trajd/types/position"
	"github.com/rotblauer/trajd/types/trajectory"
	"github.com/spf13/cobra"
)

var optFormat string
var optCache bool
var optDatadir string
var optSimplify float64
var optOut string

// reconstructCmd represents the reconstruct command
var reconstructCmd = &cobra.Command{
	Use:   "reconstruct [file]",
	Short: "Reconstruct a trajectory from a file or stdin",
	Long: `Reads positions from the named file, or stdin if none or "-", and writes the reconstruction to stdout.

Flags:

  --format    json (default): {"filteredPositions": [...], "stats": {...}}
              geojson: a FeatureCollection of the path, then one Point per sample
              ndjson: one position per line, stats are logged
  --simplify  With --format geojson, append a Douglas-Peucker simplified path with this tolerance.
  --cache     Memoize results in the datadir result store.
  --out       Write to this file instead of stdout, gzipped if it ends in .gz.

Files ending in .gz are read gzipped.

Examples:

  cat rally.json | trajd reconstruct --fps 60 --format geojson
  trajd reconstruct --smooth-trajectory=false rally.ndjson
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)
		res, source, err := readAndReconstruct(cmd, args)
		if err != nil {
			return err
		}
		exportRun(source, res.Stats)
		if optOut == "" {
			return writeResult(cmd.OutOrStdout(), res)
		}
		out, err := trajz.Create(optOut)
		if err != nil {
			return err
		}
		if err := writeResult(out, res); err != nil {
			_ = out.Close()
			return err
		}
		return out.Close()
	},
}

// openInput opens the named file, or the command's stdin.
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), "stdin", nil
	}
	f, err := trajz.Open(args[0])
	return f, filepath.Base(args[0]), err
}

// readAndReconstruct decodes the input and reconstructs it with the flag config,
// or the config carried in an input envelope.
func readAndReconstruct(cmd *cobra.Command, args []string) (reconstruct.Result, string, error) {
	in, source, err := openInput(cmd, args)
	if err != nil {
		return reconstruct.Result{}, source, err
	}
	defer in.Close()

	mr := stream.NewMeteredReader(in, "input", 5*time.Second)
	req, err := types.ReadRequest(mr)
	_ = mr.Close()
	if err != nil {
		return reconstruct.Result{}, source, fmt.Errorf("read %s: %w", source, err)
	}

	c := req.Config
	if c == nil {
		c, err = pipelineConfig()
		if err != nil {
			return reconstruct.Result{}, source, err
		}
	}

	var store reconstruct.Store
	if optCache {
		db, err := trajdb.Open(params.ExpandPath(optDatadir), false)
		if err != nil {
			return reconstruct.Result{}, source, err
		}
		defer db.Close()
		store = db
	}
	memo, err := reconstruct.NewMemo(params.DefaultMemoSize, store)
	if err != nil {
		return reconstruct.Result{}, source, err
	}

	res, hit := memo.Reconstruct(req.Positions, c)
	metrics.Default.Observe(res.Stats, hit)
	slog.Info("Reconstructed", "source", source, "cached", hit,
		"original", res.Stats.OriginalCount,
		"invalid", res.Stats.InvalidDropped,
		"removed", res.Stats.RemovedOutliers,
		"interpolated", res.Stats.InterpolatedPoints,
		"final", res.Stats.FinalCount)
	return res, source, nil
}

// exportRun writes the run to InfluxDB when TRAJD_INFLUXDB_* configure it.
func exportRun(source string, s reconstruct.Stats) {
	c := params.DefaultInfluxDBConfig()
	if !c.Enabled() {
		return
	}
	if err := influxdb.ExportRuns(c, []influxdb.Run{{Source: source, Time: time.Now(), Stats: s}}); err != nil {
		slog.Warn("Failed to export run", "error", err)
	}
}

func writeResult(w io.Writer, res reconstruct.Result) error {
	switch optFormat {
	case "json":
		return json.NewEncoder(w).Encode(res)
	case "geojson":
		fc := trajectory.ToFeatureCollection(res)
		if optSimplify > 0 {
			simple := geojson.NewFeature(trajectory.Trajectory(res.FilteredPositions).Simplified(optSimplify))
			simple.Properties["simplified"] = optSimplify
			fc.Append(simple)
		}
		return json.NewEncoder(w).Encode(fc)
	case "ndjson":
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		encoded := stream.Transform(ctx, func(p position.Reconstructed) []byte {
			b, err := json.Marshal(p)
			if err != nil {
				slog.Error("Failed to marshal position", "error", err)
				return nil
			}
			return append(b, '\n')
		}, stream.Slice(ctx, res.FilteredPositions))
		lines := stream.Filter(ctx, func(b []byte) bool { return b != nil }, encoded)
		for line := range lines {
			if _, err := w.Write(line); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format %q", optFormat)
}

func init() {
	rootCmd.AddCommand(reconstructCmd)

	flags := reconstructCmd.Flags()
	flags.StringVar(&optFormat, "format", "json", "Output format: json, geojson, ndjson")
	flags.BoolVar(&optCache, "cache", false, "Memoize results in the datadir result store")
	flags.StringVar(&optDatadir, "datadir", params.DefaultDatadirRoot, "Root directory for the result store")
	flags.StringVar(&optOut, "out", "", "Output file, gzipped if it ends in .gz (default stdout)")
	flags.Float64Var(&optSimplify, "simplify", 0, "Douglas-Peucker tolerance for a simplified path (geojson only, 0 is off)")
}
