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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/trajd/params"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trajd",
	Short: "Reconstruct ball trajectories from noisy tracker observations",
	Long: `trajd removes detection outliers, interpolates short gaps, and smooths jitter
in sequences of per-frame ball positions from a video tracker.

Positions are normalized image coordinates with timestamps in seconds.
Input is a JSON array of positions, newline-delimited positions,
a {"positions": [...], "config": {...}} envelope, or a GeoJSON FeatureCollection.

Settings are read from flags, then TRAJD_* environment variables, then the config file.
Pipeline settings live under the "pipeline" key, eg. TRAJD_PIPELINE_MAX_VELOCITY.
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pFlags := rootCmd.PersistentFlags()
	pFlags.StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default is %s)", params.DefaultConfigFile))
	pFlags.Int("verbosity", int(slog.LevelInfo), "Logging verbosity level (slog: -4 debug, 0 info, 4 warn, 8 error)")
	_ = viper.BindPFlag("verbosity", pFlags.Lookup("verbosity"))

	bindPipelineFlags(pFlags)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(params.ExpandPath(cfgFile))
	} else {
		home, err := homedir.Dir()
		if err == nil {
			viper.AddConfigPath(home + "/.trajd")
		}
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(params.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		log.Fatalln(err)
	}
}

func setDefaultSlog(cmd *cobra.Command, args []string) {
	level := slog.Level(viper.GetInt("verbosity"))
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})))
}

// bindPipelineFlags defines the reconstruction settings as flags bound to viper "pipeline.*" keys.
// Outlier thresholds are set in the config file only, under "pipeline.outlier".
func bindPipelineFlags(fs *pflag.FlagSet) {
	defaults := params.DefaultPipelineConfig()
	fs.Bool("remove-outliers", defaults.RemoveOutliers, "Remove detection outliers")
	fs.Float64("max-velocity", defaults.MaxVelocity, "Fastest plausible speed, normalized units per second")
	fs.Bool("interpolate-gaps", defaults.InterpolateGaps, "Interpolate missing frames")
	fs.Float64("max-gap-duration", defaults.MaxGapDuration, "Longest gap to interpolate, seconds")
	fs.Bool("smooth-trajectory", defaults.SmoothTrajectory, "Smooth jitter")
	fs.Int("smoothing-window", defaults.SmoothingWindow, "Smoothing window size, odd")
	fs.Float64("fps", defaults.FPS, "Nominal tracker frame rate")
	for _, name := range []string{
		"remove-outliers", "max-velocity",
		"interpolate-gaps", "max-gap-duration",
		"smooth-trajectory", "smoothing-window",
		"fps",
	} {
		_ = viper.BindPFlag("pipeline."+name, fs.Lookup(name))
	}
}

// pipelineConfig reads the viper "pipeline.*" settings over the defaults.
func pipelineConfig() (*params.PipelineConfig, error) {
	c := params.DefaultPipelineConfig()
	c.RemoveOutliers = viper.GetBool("pipeline.remove-outliers")
	c.MaxVelocity = viper.GetFloat64("pipeline.max-velocity")
	c.InterpolateGaps = viper.GetBool("pipeline.interpolate-gaps")
	c.MaxGapDuration = viper.GetFloat64("pipeline.max-gap-duration")
	c.SmoothTrajectory = viper.GetBool("pipeline.smooth-trajectory")
	c.SmoothingWindow = viper.GetInt("pipeline.smoothing-window")
	c.FPS = viper.GetFloat64("pipeline.fps")
	if err := viper.UnmarshalKey("pipeline.outlier", &c.Outlier); err != nil {
		return nil, fmt.Errorf("pipeline outlier config: %w", err)
	}
	return c, nil
}
