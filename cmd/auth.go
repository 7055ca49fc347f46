package cmd

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/scheduler/internal/google"
)

func newAuthCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Google Calendar access",
		Long: `Authorize scheduler to read and change your Google Calendar.

The command prints a consent URL. Open it, approve access, and paste either
the code or the whole URL your browser was redirected to. The token is
stored in calendar.token_dir (default: the user cache directory) and
refreshed automatically afterwards.

Requires calendar.google_client_id and calendar.google_client_secret
(or GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("account") {
				account = cfg.Calendar.Account
			}

			conf, err := google.NewOAuthConfig(cfg.Calendar.GoogleClientID, cfg.Calendar.GoogleClientSecret)
			if err != nil {
				return err
			}
			provider := google.NewFileTokenProvider(cfg.Calendar.TokenDir)
			path, err := provider.TokenPath(account)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			state := uuid.NewString()
			fmt.Fprintf(out, "Open this URL in your browser and approve calendar access:\n\n%s\n\n", google.AuthURL(conf, state))
			fmt.Fprint(out, "Paste the code or the redirected URL: ")

			code, err := readAuthCode(cmd.InOrStdin(), state)
			if err != nil {
				return err
			}

			tok, err := google.Exchange(cmd.Context(), conf, code)
			if err != nil {
				return err
			}
			if err := provider.SaveTokenForAccount(account, tok); err != nil {
				return err
			}

			fmt.Fprintf(out, "Token for account %q saved to %s\n", account, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Account name the token is stored under. Overrides calendar.account")
	return cmd
}

// readAuthCode reads one line and extracts the authorization code. A pasted
// redirect URL must carry the expected state.
func readAuthCode(r io.Reader, state string) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read code: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("no code entered")
	}

	if !strings.Contains(line, "://") {
		return line, nil
	}

	u, err := url.Parse(line)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization denied: %s", e)
	}
	if got := q.Get("state"); got != state {
		return "", fmt.Errorf("state mismatch in redirect URL")
	}
	code := q.Get("code")
	if code == "" {
		return "", fmt.Errorf("redirect URL has no code")
	}
	return code, nil
}
