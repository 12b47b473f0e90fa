package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage OAuth 2.0 tokens",
	Long: `Obtain, refresh, inspect and remove the OAuth 2.0 token of an oauth2 profile.

The interactive login opens a local listener for the authorization redirect.
NetSuite requires an HTTPS redirect URI, so the listener is usually exposed
through a tunnel whose domain is set as callback.tunnel_domain (or NGROK_DOMAIN).`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize and store a token",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogin,
}

var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the stored refresh token",
	Args:  cobra.NoArgs,
	RunE:  runAuthRefresh,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored token state",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var loginClientCredentials bool

func init() {
	authLoginCmd.Flags().BoolVar(&loginClientCredentials, "client-credentials", false,
		"use the machine-to-machine client credentials grant")
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authRefreshCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}

func authServices(cmd *cobra.Command) (*Services, error) {
	s, err := loadServices(cmd)
	if err != nil {
		return nil, err
	}
	if s.Auth == nil {
		return nil, errors.New("auth service not configured")
	}
	return s, nil
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	s, err := authServices(cmd)
	if err != nil {
		return err
	}

	var token *domain.OAuthToken
	if loginClientCredentials {
		token, err = s.Auth.LoginClientCredentials(cmd.Context())
	} else {
		token, err = s.Auth.Login(cmd.Context())
	}
	if err != nil {
		return err
	}
	printSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Authorized profile %q%s", s.Profile, expiryNote(token)))
	return nil
}

func runAuthRefresh(cmd *cobra.Command, _ []string) error {
	s, err := authServices(cmd)
	if err != nil {
		return err
	}
	token, err := s.Auth.Refresh(cmd.Context())
	if err != nil {
		return err
	}
	printSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Refreshed token for profile %q%s", s.Profile, expiryNote(token)))
	return nil
}

// tokenStatus is the status output. Token values are never printed.
type tokenStatus struct {
	Profile         string     `json:"profile"`
	Authorized      bool       `json:"authorized"`
	TokenType       string     `json:"tokenType,omitempty"`
	HasRefreshToken bool       `json:"hasRefreshToken"`
	Expiry          *time.Time `json:"expiry,omitempty"`
	Expired         bool       `json:"expired"`
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	s, err := authServices(cmd)
	if err != nil {
		return err
	}

	status := tokenStatus{Profile: s.Profile}
	token, err := s.Auth.Status(cmd.Context())
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return err
	default:
		status.Authorized = token.AccessToken != ""
		status.TokenType = token.TokenType
		status.HasRefreshToken = token.RefreshToken != ""
		status.Expired = token.IsExpired()
		if !token.Expiry.IsZero() {
			expiry := token.Expiry
			status.Expiry = &expiry
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if isTerminal(cmd.OutOrStdout()) {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(status)
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	s, err := authServices(cmd)
	if err != nil {
		return err
	}
	if err := s.Auth.Logout(cmd.Context()); err != nil {
		return err
	}
	printSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Removed token for profile %q", s.Profile))
	return nil
}

func expiryNote(token *domain.OAuthToken) string {
	if token == nil || token.Expiry.IsZero() {
		return ""
	}
	return fmt.Sprintf(" (expires %s)", token.Expiry.Local().Format(time.RFC3339))
}
