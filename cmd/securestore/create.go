package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neosmart/securestore-go/pkg/log"
	"github.com/neosmart/securestore-go/pkg/securestore"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new, empty vault",
	RunE:  runCreate,
}

func init() {
	createCmd.Flags().Bool("overwrite", false, "Replace an existing vault file")
}

func runCreate(cmd *cobra.Command, args []string) error {
	storePath, _ := cmd.Flags().GetString("store")
	password, _ := cmd.Flags().GetString("password")
	keyfile, _ := cmd.Flags().GetString("keyfile")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	if _, err := os.Stat(storePath); err == nil && !overwrite {
		return fmt.Errorf("%q already exists; pass --overwrite to replace it", storePath)
	}

	m, err := securestore.Create()
	if err != nil {
		return err
	}
	defer m.Dispose()

	switch {
	case keyfile != "":
		if err := m.GenerateKey(); err != nil {
			return err
		}
		if err := m.ExportKeyToFile(keyfile); err != nil {
			return err
		}
		if err := ensureGitignored(keyfile); err != nil {
			log.WithComponent("cli").Warn().Err(err).Str("keyfile", keyfile).Msg("failed to update .gitignore")
		}
	case password != "":
		if err := m.LoadKeyFromPassword(password); err != nil {
			return err
		}
	default:
		pw, err := promptPassword("New password: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if pw != confirm {
			return fmt.Errorf("passwords do not match")
		}
		if err := m.LoadKeyFromPassword(pw); err != nil {
			return err
		}
	}

	if err := m.SaveFile(storePath); err != nil {
		return err
	}

	log.WithComponent("cli").Info().Str("path", storePath).Msg("vault created")
	return nil
}
