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
	"fmt"
	"log/slog"
	"time"

	"github.com/rotblauer/trajd/common"
	"github.com/rotblauer/trajd/daemon/webd"
	"github.com/rotblauer/trajd/params"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// webdCmd represents the serve command
var webdCmd = &cobra.Command{
	Use:   "webd",
	Short: "Start the webserver",
	Long: `Serves reconstructions over HTTP, and live sessions over a websocket.

  POST /reconstruct               one-shot reconstruction (?format=geojson)
  POST /sessions                  open a live session, optionally with a pipeline config body
  POST /sessions/{id}/positions   append observations and reconstruct the session
  GET  /sessions/{id}             the session's current reconstruction
  GET  /live?session={id}         websocket of session reconstructions
  GET  /status, /ping
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)

		config := params.DefaultWebDaemonConfig()
		config.Address = viper.GetString("webd.address")
		config.DataDir = viper.GetString("webd.datadir")
		config.SessionTTL = viper.GetDuration("webd.session-ttl")
		config.SessionCapacity = viper.GetInt("webd.session-capacity")
		config.DedupeSize = viper.GetInt("webd.dedupe-size")
		config.Token = viper.GetString("webd.token")
		if err := viper.UnmarshalKey("influxdb", config.InfluxDB); err != nil {
			return fmt.Errorf("influxdb config: %w", err)
		}
		pc, err := pipelineConfig()
		if err != nil {
			return err
		}
		config.Pipeline = pc

		server, err := webd.NewWebDaemon(config)
		if err != nil {
			return err
		}
		errs := make(chan error, 1)
		go func() {
			errs <- server.Run()
		}()

		select {
		case err = <-errs:
		case sig := <-common.Interrupted():
			slog.Info("Interrupted", "signal", sig)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cerr := server.Close(ctx); cerr != nil {
			slog.Warn("Failed to close web daemon", "error", cerr)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(webdCmd)

	defaults := params.DefaultWebDaemonConfig()

	flags := webdCmd.Flags()
	flags.String("address", defaults.Address, "HTTP address to listen on")
	flags.String("datadir", defaults.DataDir, "Directory of the result store, empty to keep results in memory")
	flags.Duration("session-ttl", defaults.SessionTTL, "Idle time after which a live session is dropped")
	flags.Int("session-capacity", defaults.SessionCapacity, "Observations buffered per live session")
	flags.Int("dedupe-size", defaults.DedupeSize, "Recent observations remembered per session to drop repeats")
	flags.String("token", "", "Token required of clients posting observations")
	for _, name := range []string{"address", "datadir", "session-ttl", "session-capacity", "dedupe-size", "token"} {
		_ = viper.BindPFlag("webd."+name, flags.Lookup(name))
	}
}
