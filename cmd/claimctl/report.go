package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ogurasousui/contract-claims/internal/adapters/report"
	"github.com/ogurasousui/contract-claims/internal/adapters/repository/postgres"
	"github.com/ogurasousui/contract-claims/internal/core/access"
	"github.com/ogurasousui/contract-claims/internal/core/claim"
	pg "github.com/ogurasousui/contract-claims/internal/platform/db/postgres"
	"github.com/spf13/cobra"
)

// 運用ツールは管理者として集計を実行する
var operator = access.Principal{UserID: "claimctl", Role: access.RoleAdmin, Name: "claimctl"}

func newReportCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write claim reports as CSV to stdout",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "claims",
			Short: "All claims, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withClaimService(cmd.Context(), root, func(svc claim.UseCase) error {
					return writeClaimsReport(cmd.Context(), svc, cmd.OutOrStdout())
				})
			},
		},
		&cobra.Command{
			Use:   "summary",
			Short: "Claim totals by status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withClaimService(cmd.Context(), root, func(svc claim.UseCase) error {
					return writeSummaryReport(cmd.Context(), svc, cmd.OutOrStdout())
				})
			},
		},
	)
	return cmd
}

func withClaimService(ctx context.Context, root *rootOptions, fn func(claim.UseCase) error) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}

	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database pool: %w", err)
	}
	defer pool.Close()

	svc := claim.NewService(postgres.NewClaimRepository(pool), nil, nil,
		claim.WithTransactionManager(pg.NewTransactionManager(pool)),
	)
	return fn(svc)
}

func writeClaimsReport(ctx context.Context, svc claim.UseCase, w io.Writer) error {
	claims, err := svc.ExportClaims(ctx, claim.ListInput{Actor: operator})
	if err != nil {
		return err
	}
	return report.WriteClaims(w, claims)
}

func writeSummaryReport(ctx context.Context, svc claim.UseCase, w io.Writer) error {
	s, err := svc.Summarize(ctx, claim.ListInput{Actor: operator})
	if err != nil {
		return err
	}
	return report.WriteSummary(w, *s)
}
