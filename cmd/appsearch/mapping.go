package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	reindexuc "github.com/kailas-cloud/appsearch/internal/usecase/reindex"
)

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Print the index mappings, or create the missing indexes",
	RunE:  runMapping,
}

func init() {
	mappingCmd.Flags().Bool("create", false, "create missing indexes instead of printing")
	rootCmd.AddCommand(mappingCmd)
}

func runMapping(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if create, _ := cmd.Flags().GetBool("create"); create {
		if err := a.connectSearch(cmd.Context()); err != nil {
			return err
		}
		created, err := a.reindexer().EnsureIndexes(cmd.Context())
		if err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		for _, name := range created {
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", name)
		}
		return nil
	}

	svc := a.reindexer()
	bodies := make(map[string]any, len(reindexuc.EntityTypes))
	for _, et := range reindexuc.EntityTypes {
		def, err := svc.Definition(et)
		if err != nil {
			return fmt.Errorf("build %s mapping: %w", et, err)
		}
		bodies[def.Name] = def.Body()
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(bodies)
}
