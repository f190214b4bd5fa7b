package cmd

import (
	"fmt"
	"github.com/ValentinKolb/moray/cmd/bucket"
	"github.com/ValentinKolb/moray/cmd/object"
	"github.com/ValentinKolb/moray/cmd/serve"
	"github.com/ValentinKolb/moray/cmd/sql"
	"github.com/ValentinKolb/moray/cmd/util"
	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "moray",
		Short: "client for the moray bucket and object store",
		Long: fmt.Sprintf(`moray (v%s)

A pooled, streaming client for the moray key-value object store.
Buckets hold JSON objects with indexed attributes, objects are
searched with LDAP style filters.`, Version),
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if printMetrics, _ := cmd.Flags().GetBool("print-metrics"); printMetrics {
				fmt.Fprintln(os.Stderr)
				metrics.WritePrometheus(os.Stderr, false)
			}
		},
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of moray",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("moray v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(bucket.BucketCommands)
	RootCmd.AddCommand(object.ObjectCommands)
	RootCmd.AddCommand(sql.SQLCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (binary, json, gob, msgpack)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("level at which logs are written to stderr (debug, info, warn, error)"))
	key = "print-metrics"
	RootCmd.PersistentFlags().Bool(key, false, util.WrapString("print the collected metrics in prometheus format to stderr when the command finished"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
