package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"assetfetch/pkg/auth"
	"assetfetch/pkg/config"
	"assetfetch/pkg/ui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAuthCmd(g *globalOptions) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the optional upstream access token",
		Long: `Manage access tokens for authenticated upstreams such as private mirrors.

Tokens are resolved per host from:
  - ASSETFETCH_TOKEN environment variable (read-only, overrides stored tokens for every host)
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation

The public dataset needs no token.`,
	}

	loginCmd := &cobra.Command{
		Use:   "login [host]",
		Short: "Store an access token",
		Long: `Store an access token for a host. The host defaults to the host of the
configured base URL. The token is read without echo.`,
		Example: `  # Token for the configured upstream
  assetfetch auth login

  # Token for a mirror
  assetfetch auth login mirror.example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, g, args)
		},
	}

	logoutCmd := &cobra.Command{
		Use:   "logout [host]",
		Short: "Remove a stored access token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd, g, args)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show stored tokens (masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, g)
		},
	}

	authCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
	return authCmd
}

// targetHost returns the host argument or the host of the configured base URL
func targetHost(g *globalOptions, args []string) (string, error) {
	if len(args) == 1 {
		return strings.ToLower(strings.TrimSpace(args[0])), nil
	}
	cfg, err := config.Load(g.configFile, nil)
	if err != nil {
		return "", err
	}
	return auth.HostFromURL(cfg.Source.BaseURL)
}

func runLogin(cmd *cobra.Command, g *globalOptions, args []string) error {
	host, err := targetHost(g, args)
	if err != nil {
		return err
	}

	manager, err := credentialManager()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	out := cmd.OutOrStdout()
	if !g.quiet {
		auth.ShowTokenGuide(out, host)
	}

	fmt.Fprint(out, "Token: ")
	token, err := readPassword(cmd.InOrStdin(), out)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	if err := manager.Store(&auth.Credential{Host: host, Token: token}); err != nil {
		return err
	}

	ui.PrintSuccess("Token stored for " + host)
	return nil
}

func runLogout(cmd *cobra.Command, g *globalOptions, args []string) error {
	host, err := targetHost(g, args)
	if err != nil {
		return err
	}

	manager, err := credentialManager()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	if err := manager.Delete(host); err != nil {
		return err
	}

	ui.PrintSuccess("Token removed for " + host)
	return nil
}

func runStatus(cmd *cobra.Command, g *globalOptions) error {
	manager, err := credentialManager()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	creds, err := manager.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(creds) == 0 {
		ui.PrintWarning("No stored tokens; requests are anonymous")
		return nil
	}

	for _, cred := range creds {
		sanitized := auth.SanitizeCredential(cred)
		fmt.Fprintf(out, "%s  %s  %s\n",
			ui.Cyan(sanitized.Host),
			sanitized.Token,
			ui.Dim("updated "+sanitized.LastModified.Format(time.RFC3339)))
	}
	return nil
}

// readPassword reads a secret without echo when stdin is a terminal,
// otherwise a single line from in
func readPassword(in io.Reader, out io.Writer) (string, error) {
	if in == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())) {
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(out)
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
