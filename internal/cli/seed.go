package cli

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"quiz-session-engine/internal/bank"
	"quiz-session-engine/internal/infra/postgres"
)

// NewSeedCmd loads a YAML bank file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load question banks from a YAML file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML bank file (defaults to the embedded bank)")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	banks := bank.Default()
	if file != "" {
		if banks, err = bank.LoadFile(file); err != nil {
			return err
		}
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	loader := postgres.NewBankLoader(pool)
	ids := make([]string, 0, len(banks.Banks))
	for id := range banks.Banks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := loader.SaveBank(ctx, id, banks.Banks[id]); err != nil {
			return err
		}
		log.Printf("seeded bank %s (%d questions)", id, len(banks.Banks[id]))
	}
	return nil
}
