package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neosmart/securestore-go/pkg/log"
	"github.com/neosmart/securestore-go/pkg/securestore"
)

var getCmd = &cobra.Command{
	Use:   "get [NAME]",
	Short: "Retrieve one or all secrets",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGet,
}

func init() {
	getCmd.Flags().BoolP("all", "a", false, "Print every secret instead of a single NAME")
	getCmd.Flags().StringP("output-format", "t", "json", "Output format for --all: json or text")
}

func runGet(cmd *cobra.Command, args []string) error {
	storePath, _ := cmd.Flags().GetString("store")
	password, _ := cmd.Flags().GetString("password")
	keyfile, _ := cmd.Flags().GetString("keyfile")
	all, _ := cmd.Flags().GetBool("all")
	format, _ := cmd.Flags().GetString("output-format")

	if !all && len(args) != 1 {
		return fmt.Errorf("expected a NAME, or --all to list every secret")
	}
	if format != "json" && format != "text" {
		return fmt.Errorf("unsupported output format %q: must be json or text", format)
	}

	m, err := loadStore(storePath)
	if err != nil {
		return err
	}
	defer m.Dispose()

	if err := resolveKey(m, password, keyfile); err != nil {
		return err
	}

	if !all {
		value, err := m.Get(args[0])
		if err != nil {
			return err
		}
		log.WithComponent("cli").Debug().Str("path", storePath).Str("name", args[0]).Msg("secret retrieved")
		fmt.Println(value)
		return nil
	}

	names, err := m.Keys()
	if err != nil {
		return err
	}
	log.WithComponent("cli").Debug().Str("path", storePath).Int("count", len(names)).Msg("all secrets retrieved")

	return printAll(m, format)
}

func printAll(m *securestore.Manager, format string) error {
	names, err := m.Keys()
	if err != nil {
		return err
	}

	values := make(map[string]string, len(names))
	for _, name := range names {
		value, err := m.Get(name)
		if err != nil {
			return err
		}
		values[name] = value
	}

	if format == "text" {
		for _, name := range names {
			fmt.Printf("%s=%s\n", name, values[name])
		}
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(values)
}
