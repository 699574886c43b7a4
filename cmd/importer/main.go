package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bizadmin/internal/config"
	"bizadmin/internal/db"
	"bizadmin/internal/importer"
	"bizadmin/internal/logger"
	calcrepo "bizadmin/internal/repository/calculation"
	customerrepo "bizadmin/internal/repository/customer"
	onboardingrepo "bizadmin/internal/repository/onboarding"
	customersvc "bizadmin/internal/service/customer"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to customer CSV export")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

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

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("open file", "err", err)
	}
	defer f.Close()

	customers := customersvc.New(
		customerrepo.NewPostgres(pool, log),
		onboardingrepo.NewPostgres(pool, log),
		calcrepo.NewPostgres(pool, log),
		log,
	)
	imp := importer.NewCSVImporter(f, customers, log)

	start := time.Now()
	res, err := imp.Run(ctx)
	if err != nil {
		log.Fatal("import failed", "err", err, "customers_before_failure", res.Customers)
	}

	fmt.Printf("Imported %d customers with %d contacts in %s\n", res.Customers, res.Contacts, time.Since(start).Truncate(time.Millisecond))
	if len(res.Skipped) > 0 {
		fmt.Printf("Skipped %d duplicates: %s\n", len(res.Skipped), strings.Join(res.Skipped, ", "))
	}
	if len(res.SkippedContacts) > 0 {
		fmt.Printf("Skipped %d incomplete or invalid contacts in rows %v\n", len(res.SkippedContacts), res.SkippedContacts)
	}
}
