package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shuru63/skylark-lab-assignment/internal/token"
)

var tokenFlags struct {
	userID   string
	username string
	ttl      time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for a user id",
	Long: `Mint a bearer token signed with the configured JWT secret. Useful for
exercising the API or the websocket channel without going through login.
The user id must exist in the store for the token to be accepted.`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenFlags.userID, "user-id", "", "subject user id (required)")
	tokenCmd.Flags().StringVar(&tokenFlags.username, "username", "", "username claim")
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", 0, "token lifetime (default: auth.token_ttl)")
	_ = tokenCmd.MarkFlagRequired("user-id")
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, err := token.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	ttl := tokenFlags.ttl
	if ttl <= 0 {
		ttl = svc.TTL()
	}
	tok, err := svc.IssueWithTTL(token.Claims{UserID: tokenFlags.userID, Username: tokenFlags.username}, ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
