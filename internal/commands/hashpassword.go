package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/klabast/wb-services/residency-counter/internal/app"
)

func (c *cli) hashPasswordCmd() *cobra.Command {
	var overwrite, insecureUnmask bool

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Create the auth file with an Argon2id password hash",
		Long: `Creates an auth file (username:hash, Argon2id) that protects the
mutating API routes.

Environment Variables:
  AUTH_FILE    Path to auth file (default: auth.secret next to the binary)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			authFile, err := c.cfg.ResolveAuthFile()
			if err != nil {
				return err
			}

			// Prompt for username
			fmt.Print("Enter username: ")
			var username string
			if _, err := fmt.Scanln(&username); err != nil {
				return fmt.Errorf("error reading username: %w", err)
			}
			if username == "" {
				return errors.New("username cannot be empty")
			}

			var password, passwordConfirm string
			if insecureUnmask {
				fmt.Fprintf(os.Stderr, "⚠️  WARNING: Password will be visible on screen!\n")
				fmt.Print("Enter password:   ")
				if _, err := fmt.Scanln(&password); err != nil {
					return fmt.Errorf("error reading password: %w", err)
				}
				fmt.Print("Confirm password: ")
				if _, err := fmt.Scanln(&passwordConfirm); err != nil {
					return fmt.Errorf("error reading password confirmation: %w", err)
				}
			} else {
				password = readPasswordWithMask("Enter password:   ")
				passwordConfirm = readPasswordWithMask("Confirm password: ")
			}

			if password == "" {
				return errors.New("password cannot be empty")
			}
			if password != passwordConfirm {
				return errors.New("passwords do not match")
			}

			if err := app.CreateAuthFile(authFile, username, password, overwrite, app.ConfirmOverwrite); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Auth file created: %s\n", authFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing auth file without asking")
	cmd.Flags().BoolVar(&insecureUnmask, "insecure-unmask-password", false, "Show password as plain text (INSECURE!)")
	return cmd
}

// readPasswordWithMask reads password input and displays asterisks
func readPasswordWithMask(prompt string) string {
	fmt.Print(prompt)

	fd := int(syscall.Stdin)
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Fallback to hidden input if we can't set raw mode
		password, _ := term.ReadPassword(fd)
		fmt.Println()
		return string(password)
	}
	defer term.Restore(fd, oldState)

	var password []byte
	reader := bufio.NewReader(os.Stdin)

	for {
		char, _, err := reader.ReadRune()
		if err != nil {
			break
		}

		switch char {
		case '\n', '\r':
			fmt.Print("\r\n")
			return string(password)
		case 127, 8: // Backspace or Delete
			if len(password) > 0 {
				password = password[:len(password)-1]
				fmt.Print("\b \b")
			}
		case 3: // Ctrl+C
			term.Restore(fd, oldState)
			fmt.Println()
			os.Exit(1)
		default:
			// Only accept printable characters
			if char >= 32 && char <= 126 {
				password = append(password, byte(char))
				fmt.Print("*")
			}
		}
	}

	fmt.Print("\r\n")
	return string(password)
}
