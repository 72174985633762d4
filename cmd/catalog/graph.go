package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/spf13/cobra"

	"github.com/WessleyAI/vehicle-select/engine/catalog"
	"github.com/WessleyAI/vehicle-select/engine/domain"
	"github.com/WessleyAI/vehicle-select/engine/graph"
	"github.com/WessleyAI/vehicle-select/internal/config"
)

// graphStore is what the graph-backed commands need.
type graphStore interface {
	catalog.Store
	ModelsFor(ctx context.Context, year int, mk string) ([]string, error)
	NodeCounts(ctx context.Context) (map[string]int64, error)
	RelationshipCounts(ctx context.Context) (map[string]int64, error)
	TopMakes(ctx context.Context, limit int) ([]graph.MakeStats, error)
}

// openGraph connects to Neo4j. Tests replace it.
var openGraph = func(ctx context.Context, cfg *config.Config) (graphStore, func(), error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return nil, nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, nil, fmt.Errorf("neo4j connect %s: %w", cfg.Neo4jURL, err)
	}
	return graph.New(driver), func() { driver.Close(context.Background()) }, nil
}

func addNeo4jFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("neo4j-url", "neo4j://localhost:7687", "Neo4j bolt URL")
	f.String("neo4j-user", "neo4j", "Neo4j user")
	f.String("neo4j-pass", "", "Neo4j password")
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newExportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Load a catalog file into Neo4j",
		Long: `Export merges every year, make and model of a catalog file into Neo4j as
(:Make)-[:HAS_MODEL]->(:VehicleModel)<-[:OF_MODEL]-(:ModelYear).
The catch-all "Other" entry is not stored. Exporting is idempotent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := readCatalog(args[0])
			if err != nil {
				return err
			}
			store, closeFn, err := openGraph(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := catalog.Export(cmd.Context(), store, cat, a.log)
			if err != nil {
				return fmt.Errorf("export %s: %w", args[0], err)
			}
			return printJSON(cmd, res)
		},
	}
	addNeo4jFlags(cmd)
	return cmd
}

func newStatsCommand(a *app) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "stats [FILE]",
		Short: "Summarize a catalog file or the exported graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cat, err := readCatalog(args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, cat.Stats())
			}

			store, closeFn, err := openGraph(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			nodes, err := store.NodeCounts(cmd.Context())
			if err != nil {
				return err
			}
			rels, err := store.RelationshipCounts(cmd.Context())
			if err != nil {
				return err
			}
			makes, err := store.TopMakes(cmd.Context(), top)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"nodes": nodes, "relationships": rels, "top_makes": makes})
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of makes to list")
	addNeo4jFlags(cmd)
	return cmd
}

func newQueryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query YEAR MAKE",
		Short: "List the exported models of a make in a model year",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return &ExitError{Code: exitUsage, Err: fmt.Errorf("invalid year %q", args[0])}
			}
			mk := strings.ToUpper(strings.TrimSpace(args[1]))
			if err := domain.ValidateMake(mk); err != nil {
				return &ExitError{Code: exitUsage, Err: err}
			}

			store, closeFn, err := openGraph(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			models, err := store.ModelsFor(cmd.Context(), year, mk)
			if err != nil {
				return err
			}
			for _, m := range models {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
	addNeo4jFlags(cmd)
	return cmd
}
