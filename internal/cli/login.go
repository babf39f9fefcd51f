package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to the server as admin",
		Long: `Exchange the admin secret for a session token. The token is stored in
~/.wbs/client.json and used by admin commands until it expires.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := opts.newClient()
			secret, err := readSecret(cmd, "Admin secret: ")
			if err != nil {
				return err
			}
			if secret == "" {
				return errors.New("secret required")
			}

			role, err := client.Login(cmd.Context(), secret)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Logged in to %s as %s\n", client.Settings().ServerURL, role)
			return nil
		},
	}
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the admin session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.newClient().Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Logged out")
			return nil
		},
	}
}

// readSecret prompts without echo on a terminal, otherwise reads one line
// from the command's input
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}
