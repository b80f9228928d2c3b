package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-discounts/internal/domain/discount"
	"github.com/xenking/storefront-discounts/internal/repository"
)

func main() {
	var (
		databaseURL   string
		discountsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&discountsFile, "discounts-file", "db/seed/discounts.json", "path to discounts JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, discountsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, discountsFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	data, err := os.ReadFile(discountsFile)
	if err != nil {
		return errors.Wrap(err, "read discounts file")
	}

	var records []discount.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return errors.Wrap(err, "parse discounts file")
	}

	repo := repository.NewCatalogRepository(pool)
	for _, rec := range records {
		id, err := repo.Create(ctx, rec)
		if err != nil {
			return errors.Wrapf(err, "seed discount %s", rec.Code)
		}
		slog.Info("seeded discount", slog.String("code", rec.Code), slog.String("id", id))
	}

	slog.Info("seeded discounts", slog.Int("count", len(records)))
	return nil
}
