package cmd

import (
	"context"
	"fmt"
	"time"

	"meridian/database"
	"meridian/models"
	"meridian/utils"

	"github.com/spf13/cobra"
)

func expirePackagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire-packages",
		Short: "Expire every active package past its validity window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			repos, err := connectMongo(ctx)
			if err != nil {
				return err
			}
			defer database.Close(context.Background())

			n, err := newRegistry(repos, utils.GetLogger()).ExpireOverdue(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d package(s)\n", n)
			return nil
		},
	}
}

func indexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the MongoDB indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			repos, err := connectMongo(ctx)
			if err != nil {
				return err
			}
			defer database.Close(context.Background())
			if err := repos.EnsureIndexes(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "indexes are up to date")
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <subject-id>",
		Short: "Issue a bearer token for a patient, provider or admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := utils.GenerateToken(args[0], models.Role(role), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "patient, provider or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
