// cmd/tools/catalog-seeder/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"neighborhood-matcher/internal/catalog"
	"neighborhood-matcher/internal/common/config"
	"neighborhood-matcher/internal/common/database"
	"neighborhood-matcher/internal/models"
)

func main() {
	file := flag.String("file", "", "Catalog JSON file (defaults to the built-in sample)")
	target := flag.String("target", "sqlite", "Destination: postgres, sqlite or elasticsearch")
	sqlitePath := flag.String("sqlite", "", "SQLite path (overrides database.sqlite.path)")
	configPath := flag.String("config", "", "Config file (defaults to configs/config.yaml)")
	enrich := flag.Bool("enrich", false, "Recompute dataQuality from the stock data sources before writing")
	dryRun := flag.Bool("dry-run", false, "Validate and report without writing")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, *file, *target, *sqlitePath, *configPath, *enrich, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, file, target, sqlitePath, configPath string, enrich, dryRun bool) error {
	neighborhoods := catalog.SampleNeighborhoods()
	if file != "" {
		loaded, err := catalog.LoadFile(file)
		if err != nil {
			return err
		}
		neighborhoods = loaded
	}
	fmt.Printf("Loaded %d neighborhoods\n", len(neighborhoods))

	if enrich {
		enriched, err := catalog.EnrichAll(neighborhoods, catalog.DefaultDataSources())
		if err != nil {
			return err
		}
		neighborhoods = enriched
	}

	report := catalog.ValidateConsistency(neighborhoods)
	printReport(report)

	if dryRun {
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if sqlitePath != "" {
		cfg.Database.SQLite.Path = sqlitePath
	}

	if err := write(ctx, cfg, target, neighborhoods); err != nil {
		return err
	}
	fmt.Printf("Seeded %d neighborhoods into %s\n", len(neighborhoods), target)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func write(ctx context.Context, cfg *config.Config, target string, neighborhoods []models.Neighborhood) error {
	switch target {
	case config.CatalogSourcePostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		return catalog.NewPostgresProvider(pg).Upsert(ctx, neighborhoods)

	case config.CatalogSourceSQLite:
		if cfg.Database.SQLite.Path == "" {
			return fmt.Errorf("no sqlite path: set -sqlite or database.sqlite.path")
		}
		lite, err := database.OpenSQLite(cfg.Database.SQLite.Path)
		if err != nil {
			return err
		}
		defer lite.Close()
		store := catalog.NewSQLiteStore(lite)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		return store.UpsertMany(ctx, neighborhoods)

	case config.CatalogSourceElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		if err := es.EnsureIndex(ctx, cfg.Catalog.Index, catalog.NeighborhoodMapping); err != nil {
			return err
		}
		return catalog.NewElasticsearchProvider(es, cfg.Catalog.Index).IndexMany(ctx, neighborhoods)

	default:
		return fmt.Errorf("unknown target %q", target)
	}
}

func printReport(report catalog.ConsistencyReport) {
	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
	if !report.Valid {
		fmt.Printf("Warning: %d consistency issues found\n", len(report.Issues))
	}
}
