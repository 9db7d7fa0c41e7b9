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
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/trajd/params"
	"github.com/rotblauer/trajd/reconstruct"
	"github.com/rotblauer/trajd/types/trajectory"
	"github.com/spf13/cobra"
)

var optSummaryJSON bool

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary [file]",
	Short: "Summarize the kinematics of a reconstructed trajectory",
	Long: `Reconstructs positions from the named file, or stdin, and prints
duration, path length, speed statistics and what the pipeline changed.

Distances are normalized image units, speeds are units per second.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)
		res, _, err := readAndReconstruct(cmd, args)
		if err != nil {
			return err
		}
		t := trajectory.Trajectory(res.FilteredPositions)
		s := trajectory.Summarize(t)
		if optSummaryJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(struct {
				Stats   reconstruct.Stats  `json:"stats"`
				Summary trajectory.Summary `json:"summary"`
			}{res.Stats, s})
		}
		simplified := len(t.Simplified(params.DefaultSimplificationConfig.DouglasPeuckerThreshold))
		return printSummary(cmd.OutOrStdout(), res.Stats, s, simplified)
	},
}

func printSummary(out io.Writer, st reconstruct.Stats, s trajectory.Summary, simplified int) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "positions\t%s\t(%s interpolated, %s%%)\n",
		humanize.Comma(int64(s.Count)), humanize.Comma(int64(s.Interpolated)),
		humanize.FtoaWithDigits(s.InterpolatedShare*100, 2))
	fmt.Fprintf(w, "input\t%s\t(%s invalid, %s outliers removed)\n",
		humanize.Comma(int64(st.OriginalCount)), humanize.Comma(int64(st.InvalidDropped)),
		humanize.Comma(int64(st.RemovedOutliers)))
	fmt.Fprintf(w, "duration\t%ss\n", humanize.FtoaWithDigits(s.Duration, 3))
	fmt.Fprintf(w, "path length\t%s\t(displacement %s)\n",
		humanize.FtoaWithDigits(s.PathLength, 4), humanize.FtoaWithDigits(s.Displacement, 4))
	fmt.Fprintf(w, "speed\tmean %s\tmedian %s\tp95 %s\tmax %s\n",
		humanize.FtoaWithDigits(s.SpeedMean, 4), humanize.FtoaWithDigits(s.SpeedMedian, 4),
		humanize.FtoaWithDigits(s.SpeedP95, 4), humanize.FtoaWithDigits(s.SpeedMax, 4))
	fmt.Fprintf(w, "simplified\t%s\tvertices\n", humanize.Comma(int64(simplified)))
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().BoolVar(&optSummaryJSON, "json", false, "Print the stats and summary as JSON")
	summaryCmd.Flags().BoolVar(&optCache, "cache", false, "Memoize results in the datadir result store")
	summaryCmd.Flags().StringVar(&optDatadir, "datadir", params.DefaultDatadirRoot, "Root directory for the result store")
}
