package main

import (
	"context"
	"flag"
	"time"

	"kharcha/internal/backend"
	"kharcha/internal/cli"
	"kharcha/internal/log"
	"kharcha/internal/seed"
)

func main() {
	categoriesOnly := flag.Bool("categories-only", false, "seed the built-in categories without sample transactions")
	force := flag.Bool("force", false, "seed even if the store already holds transactions")
	timeout := flag.Duration("timeout", 2*time.Minute, "give up after this long")
	flag.Parse()

	cfg, logger := cli.Bootstrap(log.ComponentSeed)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	res, err := backend.NewFactory(logger.Logger, nil).CreateBackend(ctx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}
	defer res.Cleanup()

	out, err := seed.Run(ctx, res.Store, seed.Options{
		Location:         cfg.Location(),
		SkipTransactions: *categoriesOnly,
		Force:            *force,
	}, logger)
	if err != nil {
		res.Cleanup()
		cli.Fatal(logger, "Seeding failed", err)
	}
	logger.Info("Seeding finished",
		"categories", out.Categories,
		"transactions", out.Transactions,
		"skipped", out.Skipped)
}
