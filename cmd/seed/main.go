package main

import (
	"context"
	"flag"
	"os"

	"bizadmin/internal/config"
	"bizadmin/internal/db"
	"bizadmin/internal/logger"
	"bizadmin/internal/seed"
)

func main() {
	var admin seed.Admin
	flag.StringVar(&admin.Email, "admin-email", envOr("SEED_ADMIN_EMAIL", "admin@example.com"), "Email of the initial admin user")
	flag.StringVar(&admin.Name, "admin-name", envOr("SEED_ADMIN_NAME", "Administrator"), "Display name of the initial admin user")
	flag.StringVar(&admin.Password, "admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "Password of the initial admin user (min. 8 characters)")
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

	if err := seed.Apply(ctx, pool, admin); err != nil {
		log.Fatal("seed apply", "err", err)
	}
	log.Info("seed applied", "admin", admin.Email)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
