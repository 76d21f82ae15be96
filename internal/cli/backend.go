package cli

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/bank"
	"quiz-session-engine/internal/config"
	"quiz-session-engine/internal/infra/memory"
	"quiz-session-engine/internal/infra/postgres"
	infraredis "quiz-session-engine/internal/infra/redis"
	"quiz-session-engine/internal/leaderboard"
	"quiz-session-engine/internal/profile"
	"quiz-session-engine/internal/timer"
)

// loadConfig reads the config file; a missing file means defaults.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("config %s not found, using defaults", path)
		return config.Config{}, nil
	}
	return cfg, err
}

// buildService wires storage backends from cfg: Postgres when a URL is set,
// Redis when an address is set, memory otherwise.
func buildService(ctx context.Context, cfg config.Config, clock timer.Clock) (*app.QuizService, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	var loader memory.BankLoader
	var profiles profile.Store
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		loader = postgres.NewBankLoader(pool)

		db := postgres.OpenDB(cfg.Postgres.URL)
		closers = append(closers, func() { _ = db.Close() })
		profiles = postgres.NewProfileStore(db)
	} else {
		file := bank.Default()
		if cfg.Bank.File != "" {
			loaded, err := bank.LoadFile(cfg.Bank.File)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			file = loaded
		}
		loader = memory.NewFileBankLoader(file)
	}

	ttl := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	var banks app.BankRepository
	var board leaderboard.Board
	if redisClient != nil {
		banks = infraredis.NewBankRepository(redisClient, loader, ttl)
		board = infraredis.NewLeaderboard(redisClient)
		if profiles == nil {
			profiles = infraredis.NewProfileStore(redisClient)
		}
	} else {
		banks = memory.NewBankRepository(loader, ttl)
		board = memory.NewLeaderboard()
		if profiles == nil {
			profiles = memory.NewProfileStore()
		}
	}

	sessCfg, err := cfg.Session()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	service := app.NewQuizService(banks, profiles, board, app.Options{
		Session:   sessCfg,
		Daily:     cfg.DailyChallenge(sessCfg),
		DailyBank: cfg.DailyBank(),
		Clock:     clock,
	})
	return service, cleanup, nil
}
