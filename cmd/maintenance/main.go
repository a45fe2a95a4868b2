// Command maintenance runs one-off data tasks against the marketplace database.
//
//	maintenance normalize [--dry-run]
//	maintenance seed [--per-business N]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/coderr/marketplace-api/internal/config"
	"github.com/coderr/marketplace-api/internal/database"
	"github.com/coderr/marketplace-api/internal/logger"
	"github.com/coderr/marketplace-api/internal/repository"
	"github.com/coderr/marketplace-api/internal/service"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const usage = "usage: maintenance [normalize [--dry-run] | seed [--per-business N]]"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	command, rest := args[0], args[1:]

	ctx := context.Background()
	cfg, err := config.LoadWithSecrets(ctx, zap.NewNop())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	switch command {
	case "normalize":
		flags := pflag.NewFlagSet("normalize", pflag.ContinueOnError)
		dryRun := flags.Bool("dry-run", false, "report changes without writing them")
		if err := flags.Parse(rest); err != nil {
			return err
		}
		db, err := database.NewDatabase(&cfg.Database, log)
		if err != nil {
			return err
		}
		return normalize(ctx, db, log, *dryRun)

	case "seed":
		flags := pflag.NewFlagSet("seed", pflag.ContinueOnError)
		perBusiness := flags.Int("per-business", 3, "offers each business user should have")
		if err := flags.Parse(rest); err != nil {
			return err
		}
		db, err := database.NewDatabase(&cfg.Database, log)
		if err != nil {
			return err
		}
		return seed(ctx, db, log, *perBusiness)

	default:
		return fmt.Errorf("unknown command: %s\n%s", command, usage)
	}
}

func normalize(ctx context.Context, db *gorm.DB, log *zap.Logger, dryRun bool) error {
	normalizer := service.NewOfferDetailNormalizer(db, repository.NewOfferDetailRepository(db), log)
	report, err := normalizer.NormalizeAll(ctx, dryRun)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func seed(ctx context.Context, db *gorm.DB, log *zap.Logger, perBusiness int) error {
	profileRepo := repository.NewProfileRepository(db)
	offers := service.NewOfferService(
		db,
		repository.NewOfferRepository(db),
		repository.NewOfferDetailRepository(db),
		profileRepo,
		log,
	)
	report, err := service.NewOfferSeeder(offers, profileRepo, log).Seed(ctx, perBusiness)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
