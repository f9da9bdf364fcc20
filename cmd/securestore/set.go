package main

import (
	"github.com/spf13/cobra"

	"github.com/neosmart/securestore-go/pkg/log"
)

var setCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Add or update a secret",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	storePath, _ := cmd.Flags().GetString("store")
	password, _ := cmd.Flags().GetString("password")
	keyfile, _ := cmd.Flags().GetString("keyfile")

	name, value, err := parseNameValue(args)
	if err != nil {
		return err
	}

	m, err := loadStore(storePath)
	if err != nil {
		return err
	}
	defer m.Dispose()

	if err := resolveKey(m, password, keyfile); err != nil {
		return err
	}

	if err := m.Set(name, value); err != nil {
		return err
	}

	if err := m.SaveFile(storePath); err != nil {
		return err
	}

	log.WithComponent("cli").Info().Str("path", storePath).Str("name", name).Msg("secret set")
	return nil
}
