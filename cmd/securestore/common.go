package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/neosmart/securestore-go/pkg/securestore"
)

// loadStore opens an existing vault at path, failing if it is absent.
func loadStore(path string) (*securestore.Manager, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("vault %q does not exist", path)
	}
	return securestore.LoadFile(path, securestore.PolicyUpgrade)
}

// resolveKey loads key material into m from, in order of precedence: an
// explicit --keyfile, an inline --password, or an interactive masked
// prompt.
func resolveKey(m *securestore.Manager, password, keyfile string) error {
	switch {
	case keyfile != "":
		return m.LoadKeyFromFile(keyfile)
	case password != "":
		return m.LoadKeyFromPassword(password)
	default:
		pw, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		return m.LoadKeyFromPassword(pw)
	}
}

// promptPassword writes prompt to stderr and reads a masked line from the
// terminal. All interactive prompts go to stderr so stdout stays reserved
// for command output a script might capture.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(data), nil
}

// parseNameValue accepts either two positional args (NAME VALUE) or a
// single NAME=VALUE argument.
func parseNameValue(args []string) (name, value string, err error) {
	switch len(args) {
	case 2:
		return args[0], args[1], nil
	case 1:
		if idx := strings.IndexByte(args[0], '='); idx >= 0 {
			return args[0][:idx], args[0][idx+1:], nil
		}
		return "", "", fmt.Errorf("expected NAME=VALUE or NAME VALUE")
	default:
		return "", "", fmt.Errorf("expected NAME=VALUE or NAME VALUE")
	}
}

// ensureGitignored appends keyfilePath to the .gitignore at the nearest
// enclosing git root, if one exists and the entry is not already present.
func ensureGitignored(keyfilePath string) error {
	root, err := findGitRoot(keyfilePath)
	if err != nil || root == "" {
		return nil
	}

	rel, err := filepath.Rel(root, keyfilePath)
	if err != nil {
		rel = keyfilePath
	}
	rel = filepath.ToSlash(rel)

	gitignorePath := filepath.Join(root, ".gitignore")
	existing, _ := os.ReadFile(gitignorePath)
	for _, line := range strings.Split(string(existing), "\n") {
		if strings.TrimSpace(line) == rel {
			return nil
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return err
		}
	}
	_, err = f.WriteString(rel + "\n")
	return err
}

// findGitRoot walks upward from the directory containing path looking for
// a .git entry, returning "" if none is found.
func findGitRoot(path string) (string, error) {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
