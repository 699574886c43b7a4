package main

import (
	"context"
	"flag"
	"os"

	"bizadmin/internal/config"
	"bizadmin/internal/db"
	"bizadmin/internal/logger"
	"bizadmin/internal/migrate"
)

func main() {
	down := flag.Bool("down", false, "Roll back every applied migration instead of applying")
	flag.Parse()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		panic("load config: " + err.Error())
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer log.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatal("connect db", "err", err)
	}
	defer pool.Close()

	if *down {
		if err := migrate.Rollback(ctx, pool); err != nil {
			log.Fatal("roll back migrations", "err", err)
		}
		log.Info("migrations rolled back")
		return
	}
	if err := migrate.Apply(ctx, pool); err != nil {
		log.Fatal("apply migrations", "err", err)
	}
	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		log.Fatal("read schema version", "err", err)
	}
	log.Info("migrations applied", "version", version, "dirty", dirty)
}
