package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "msgcored",
	Short: "msgcore datapath smoke-test driver",
	Long: `msgcored drives the replication-proxy message datapath core
(mbuf/msg pools, parser dispatch, receive/send/fragmentation engines)
against an in-memory connection, without an accept loop or a network
listener.`,
	Version: "0.1.0",
}

// Execute runs the root command; its child commands are registered
// in init. Called once by main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults to built-in tunables when omitted)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(benchCmd)
}

func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
