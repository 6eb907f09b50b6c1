// Package cli provides command-line access to Revelation data files.
// This allows users to inspect and create password databases from the
// terminal without launching the tray applet.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yllada/revelation-indicator/common"
	"github.com/yllada/revelation-indicator/entry"
	"github.com/yllada/revelation-indicator/vault"
	"golang.org/x/term"
)

// PasswordFunc reads a password after showing prompt.
type PasswordFunc func(prompt string) (string, error)

// ReadPassword is used by every command to ask for passwords. It reads
// without echo from a terminal and a single line otherwise.
var ReadPassword PasswordFunc = readTerminalPassword

// Commands returns the subcommands for the root command.
func Commands() []*cobra.Command {
	return []*cobra.Command{
		newListCommand(),
		newShowCommand(),
		newBrowseCommand(),
		newInitCommand(),
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list FILE",
		Short: "List the entries of a data file as a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderTree(filepath.Base(args[0]), store))
			return nil
		},
	}
}

func newShowCommand() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show FILE PATH",
		Short: "Show the fields of one entry",
		Long: `PATH is the slash separated list of folder names leading to the entry.

Examples:
  revelation-indicator show passwords.rvl Work/Servers/db1
  revelation-indicator show passwords.rvl "Personal/Mail" --reveal`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(args[0])
			if err != nil {
				return err
			}
			e, ok := store.Lookup(args[1])
			if !ok {
				return fmt.Errorf("entry not found: %s", args[1])
			}
			return FormatEntry(cmd.OutOrStdout(), e, reveal, now())
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show secret field values")
	return cmd
}

func newBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse FILE",
		Short: "Browse a data file interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(args[0])
			if err != nil {
				return err
			}
			return Browse(filepath.Base(args[0]), store)
		},
	}
}

func newInitCommand() *cobra.Command {
	var (
		importPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init FILE",
		Short: "Create a new encrypted data file",
		Long: `Creates a new data file protected by a password.

The file can be seeded from a plain YAML entry file with --import. The
import file holds unencrypted secrets and should be removed afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := common.ExpandHome(args[0])
			if common.FileExists(path) && !force {
				return fmt.Errorf("%s already exists, use --force to replace it", path)
			}

			store := entry.NewStore()
			if importPath != "" {
				data, err := os.ReadFile(common.ExpandHome(importPath))
				if err != nil {
					return fmt.Errorf("reading import file: %w", err)
				}
				if store, err = vault.UnmarshalEntries(data); err != nil {
					return fmt.Errorf("importing %s: %w", importPath, err)
				}
			}

			password, err := newPassword()
			if err != nil {
				return err
			}

			if err := vault.Save(path, store, password, vault.DefaultParams()); err != nil {
				return err
			}
			common.LogInfo("Created data file %s", path)
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s with %d entries\n", path, store.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&importPath, "import", "", "Seed the file from a YAML entry file")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing file")
	return cmd
}

// openStore reads and decrypts the data file at path.
func openStore(path string) (*entry.Store, error) {
	path = common.ExpandHome(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, err
	}

	// Reject foreign files before asking for a password.
	if _, err := vault.ParseHeader(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	password, err := ReadPassword(fmt.Sprintf("Password for %s: ", filepath.Base(path)))
	if err != nil {
		return nil, err
	}

	store, err := vault.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	common.LogDebug("Opened %s with %d entries", path, store.Len())
	return store, nil
}

// newPassword asks for a new password twice.
func newPassword() (string, error) {
	password, err := ReadPassword("New password: ")
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	confirm, err := ReadPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if confirm != password {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

func readTerminalPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(os.Stdin)
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

// readLine reads one line from r without its line ending. It reads a
// byte at a time so that successive calls on a pipe see successive lines.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return strings.TrimSuffix(sb.String(), "\r"), nil
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("reading password: %w", err)
			}
			if sb.Len() == 0 {
				return "", common.ErrCancelled
			}
			return strings.TrimSuffix(sb.String(), "\r"), nil
		}
	}
}
