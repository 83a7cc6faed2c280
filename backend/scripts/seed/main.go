package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"lineage-verifier/backend/internal/graph"
	"lineage-verifier/backend/internal/lineage"
	"lineage-verifier/backend/pkg/config"
	"lineage-verifier/backend/pkg/logger"
)

func main() {
	file := flag.String("file", "", "Chart file to seed (.xml or .json)")
	chart := flag.String("chart", "", "Chart name (default: file name without extension)")
	force := flag.Bool("force", false, "Replace the chart even if it already exists")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.Debug); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting chart seeding...")

	if *file == "" {
		log.Fatal("Missing -file")
	}
	name := *chart
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(*file), filepath.Ext(*file))
	}

	g, err := lineage.DecodeFile(*file)
	if err != nil {
		log.Fatal("Failed to read chart", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	repo := graph.NewRepository(driver)

	log.Info("Creating indexes...")
	repo.EnsureSchema(ctx)

	existing, err := repo.LoadLineage(ctx, name)
	if err == nil && !*force {
		log.Info("Chart already exists, skipping (use -force to replace)",
			zap.String("chart", name),
			zap.Int("persons", existing.Len()),
		)
		os.Exit(0)
	}
	if _, notFound := err.(graph.ErrChartNotFound); err != nil && !notFound {
		log.Fatal("Failed to check existing chart", zap.Error(err))
	}

	if err := repo.ReplaceChart(ctx, name, g); err != nil {
		log.Fatal("Failed to seed chart", zap.Error(err))
	}

	log.Info("Seeding completed",
		zap.String("chart", name),
		zap.Int("persons", g.Len()),
		zap.Int("edges", len(g.Edges())),
	)
}
