package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// tokenSaver is the part of the token store the login command needs
type tokenSaver interface {
	Save(backendURL, user, token string) error
	Delete(backendURL, user string) error
}

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API token for the chart data backend",
		Long: `Read a bearer token from stdin and store it in the system keyring,
keyed by backend URL and username.`,
		Example: `  echo "$TOKEN" | lazychart login --backend https://charts.example.com
  lazychart login --delete`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openTokenStore()
			if err != nil {
				return err
			}
			return runLogin(cmd.InOrStdin(), cmd.OutOrStdout(), store, cfg.Backend.URL, cfg.Backend.Username, remove)
		},
	}

	cmd.Flags().BoolVar(&remove, "delete", false, "remove the stored token instead")

	return cmd
}

func runLogin(in io.Reader, out io.Writer, store tokenSaver, backendURL, user string, remove bool) error {
	if remove {
		if err := store.Delete(backendURL, user); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Removed token for %s\n", backendURL)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Token for %s: ", backendURL)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return errors.New("empty token")
	}

	if err := store.Save(backendURL, user, token); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "\nToken saved")
	return nil
}
