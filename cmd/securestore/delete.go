package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neosmart/securestore-go/pkg/log"
)

var deleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Remove a secret from the vault",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	storePath, _ := cmd.Flags().GetString("store")
	password, _ := cmd.Flags().GetString("password")
	keyfile, _ := cmd.Flags().GetString("keyfile")

	m, err := loadStore(storePath)
	if err != nil {
		return err
	}
	defer m.Dispose()

	if err := resolveKey(m, password, keyfile); err != nil {
		return err
	}

	found, err := m.Delete(args[0])
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("secret %q not found", args[0])
	}

	if err := m.SaveFile(storePath); err != nil {
		return err
	}

	log.WithComponent("cli").Info().Str("path", storePath).Str("name", args[0]).Msg("secret deleted")
	return nil
}
