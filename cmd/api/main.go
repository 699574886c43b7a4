package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"bizadmin/internal/config"
	"bizadmin/internal/db"
	"bizadmin/internal/delivery"
	"bizadmin/internal/httpserver"
	"bizadmin/internal/logger"
	calcrepo "bizadmin/internal/repository/calculation"
	customerrepo "bizadmin/internal/repository/customer"
	onboardingrepo "bizadmin/internal/repository/onboarding"
	userrepo "bizadmin/internal/repository/user"
	authsvc "bizadmin/internal/service/auth"
	calcsvc "bizadmin/internal/service/calculation"
	customersvc "bizadmin/internal/service/customer"
	onboardingsvc "bizadmin/internal/service/onboarding"
	"bizadmin/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		panic("load config: " + err.Error())
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer log.Sync()
	log = log.With("bin", "api")

	ctx := context.Background()
	shutdownTracing := telemetry.Init(ctx, cfg.Telemetry, log)

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatal("connect to db", "err", err)
	}
	defer dbpool.Close()

	mailer, err := delivery.NewMailer(ctx, cfg.Mail, log)
	if err != nil {
		log.Fatal("init mailer", "err", err)
	}
	sender := delivery.NewSender(delivery.NewRenderer(cfg.CompanyName), mailer, cfg.Mail.From, cfg.CompanyName, log)

	customerRepo := customerrepo.NewPostgres(dbpool, log)
	onboardingRepo := onboardingrepo.NewPostgres(dbpool, log)
	calculationRepo := calcrepo.NewPostgres(dbpool, log)
	userRepo := userrepo.NewPostgres(dbpool)

	authService := authsvc.New(userRepo, cfg.JWTSecret, cfg.TokenTTL, log)
	if !authService.Enabled() {
		log.Warn("JWT_SECRET not set, API runs without authentication")
	}

	opts := httpserver.Options{CORSOrigins: cfg.CORSOrigins}
	if cfg.Telemetry.Enabled {
		opts.TracingService = cfg.Telemetry.ServiceName
	}
	srv, err := httpserver.New(cfg.HTTPAddr, log, dbpool, httpserver.Deps{
		CustomerSvc:    customersvc.New(customerRepo, onboardingRepo, calculationRepo, log),
		OnboardingSvc:  onboardingsvc.New(onboardingRepo, log),
		CalculationSvc: calcsvc.New(calculationRepo, sender, log),
		AuthSvc:        authService,
	}, opts)
	if err != nil {
		log.Fatal("init server", "err", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info("received signal, shutting down", "signal", sig.String())
	case err := <-serverErr:
		log.Error("server error", "err", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	} else {
		log.Info("server stopped")
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Warn("tracer shutdown", "err", err)
	}
}
