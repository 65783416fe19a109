package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/interview-scheduler/internal/config"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
	"github.com/jonathan/interview-scheduler/internal/server"
	"github.com/spf13/cobra"
)

var (
	tokenUser string
	tokenRole string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development bearer token",
	Long:  "Signs a token with JWT_SECRET for the given user and role. Intended for local testing only.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, err := uuid.Parse(tokenUser)
		if err != nil {
			return fmt.Errorf("invalid --user %q: %w", tokenUser, err)
		}
		jwtCfg, err := config.NewJWTConfig()
		if err != nil {
			return err
		}
		token, err := server.NewJWTService(jwtCfg).GenerateToken(id, scheduling.PartyRole(tokenRole))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User id (required)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "", "recruiter or candidate (required)")
	for _, f := range []string{"user", "role"} {
		if err := tokenCmd.MarkFlagRequired(f); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", f, err))
		}
	}
	rootCmd.AddCommand(tokenCmd)
}
