package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	reindexuc "github.com/kailas-cloud/appsearch/internal/usecase/reindex"
)

const allTypes = "all"

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild search documents from the system of record",
	Long: `Reindex reads every record of the selected entity type, extracts its search
document and bulk-writes it to the entity's index. Missing indexes are created
first.`,
	RunE: runReindex,
}

func init() {
	reindexCmd.Flags().String("type", allTypes, "entity type to reindex: webapp, collection or all")
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	entityType, _ := cmd.Flags().GetString("type")
	types, err := reindexTypes(entityType)
	if err != nil {
		return err
	}

	a, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if err := a.connectStore(ctx); err != nil {
		return err
	}
	if err := a.connectSearch(ctx); err != nil {
		return err
	}

	svc := a.reindexer()
	if _, err := svc.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, et := range types {
		report, err := svc.Reindex(ctx, et)
		if err != nil {
			return fmt.Errorf("reindex %s: %w", et, err)
		}
		a.logger.Info("reindex finished",
			zap.String("entity_type", et),
			zap.String("index", report.Index),
			zap.Int("indexed", report.Indexed),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", len(report.Failed)),
		)
		fmt.Fprintf(out, "%s -> %s: %d indexed, %d skipped, %d failed\n",
			et, report.Index, report.Indexed, report.Skipped, len(report.Failed))
		failed += len(report.Failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d documents failed to index", failed)
	}
	return nil
}

func reindexTypes(entityType string) ([]string, error) {
	if entityType == allTypes {
		return reindexuc.EntityTypes, nil
	}
	if !slices.Contains(reindexuc.EntityTypes, entityType) {
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
	return []string{entityType}, nil
}
