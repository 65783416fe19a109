package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/interview-scheduler/internal/config"
	"github.com/jonathan/interview-scheduler/internal/db"
	"github.com/jonathan/interview-scheduler/internal/observability"
	"github.com/jonathan/interview-scheduler/internal/scheduling"
	"github.com/spf13/cobra"
)

const dbCommandTimeout = 30 * time.Second

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long:  "Creates the users, jobs and interviews tables and their indexes. Safe to run repeatedly.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, database *db.DB) error {
			if err := database.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema applied.")
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <interview-id>",
	Short: "Print one interview from the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid interview id %q: %w", args[0], err)
		}
		return withDB(cmd.Context(), func(ctx context.Context, database *db.DB) error {
			iv, err := database.Get(ctx, id)
			if err != nil {
				return err
			}
			if iv == nil {
				return fmt.Errorf("interview %s not found", id)
			}
			observability.NewPrinter(cmd.OutOrStdout()).PrintInterview(iv)
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create directory records for local testing",
}

var (
	seedName    string
	seedEmail   string
	seedRole    string
	seedTitle   string
	seedCompany string
	seedOwner   string
)

var seedUserCmd = &cobra.Command{
	Use:   "user",
	Short: "Create a recruiter or candidate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		role := scheduling.PartyRole(seedRole)
		if !role.Valid() {
			return fmt.Errorf("--role must be recruiter or candidate, got %q", seedRole)
		}
		return withDB(cmd.Context(), func(ctx context.Context, database *db.DB) error {
			id, err := database.CreateUser(ctx, seedName, seedEmail, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		})
	},
}

var seedJobCmd = &cobra.Command{
	Use:   "job",
	Short: "Create a job owned by a recruiter",
	RunE: func(cmd *cobra.Command, _ []string) error {
		owner, err := uuid.Parse(seedOwner)
		if err != nil {
			return fmt.Errorf("invalid --recruiter %q: %w", seedOwner, err)
		}
		return withDB(cmd.Context(), func(ctx context.Context, database *db.DB) error {
			id, err := database.CreateJob(ctx, seedTitle, seedCompany, owner)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		})
	},
}

func init() {
	seedUserCmd.Flags().StringVar(&seedName, "name", "", "Display name (required)")
	seedUserCmd.Flags().StringVar(&seedEmail, "email", "", "Email address (required)")
	seedUserCmd.Flags().StringVar(&seedRole, "role", "", "recruiter or candidate (required)")
	for _, f := range []string{"name", "email", "role"} {
		if err := seedUserCmd.MarkFlagRequired(f); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", f, err))
		}
	}

	seedJobCmd.Flags().StringVar(&seedTitle, "title", "", "Job title (required)")
	seedJobCmd.Flags().StringVar(&seedCompany, "company", "", "Company name")
	seedJobCmd.Flags().StringVar(&seedOwner, "recruiter", "", "Owning recruiter id (required)")
	for _, f := range []string{"title", "recruiter"} {
		if err := seedJobCmd.MarkFlagRequired(f); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", f, err))
		}
	}

	seedCmd.AddCommand(seedUserCmd, seedJobCmd)
	rootCmd.AddCommand(migrateCmd, showCmd, seedCmd)
}

// withDB loads config, connects, and runs fn under a timeout.
func withDB(parent context.Context, fn func(context.Context, *db.DB) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, dbCommandTimeout)
	defer cancel()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(ctx, database)
}
