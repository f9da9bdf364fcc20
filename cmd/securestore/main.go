package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neosmart/securestore-go/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "securestore",
	Short:   "Create, read, and manage an encrypted secrets vault",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("securestore version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().StringP("store", "s", "secrets.json", "Path to the vault file")
	rootCmd.PersistentFlags().StringP("password", "p", "", "Vault password (prompted if omitted)")
	rootCmd.PersistentFlags().StringP("keyfile", "k", "", "Path to a key file, instead of a password")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(deleteCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
		Output:     os.Stderr,
	})
}
