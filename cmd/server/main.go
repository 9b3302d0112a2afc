package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"posventa/internal/config"
	"posventa/internal/db"
	"posventa/internal/server"
	"posventa/internal/services"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedFlag        = flag.Bool("seed", false, "Insert sample products on startup")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()
	config.SetupLogger(cfg.Env)

	dbConn, err := db.Connect(db.Options{
		DSN:           cfg.DatabaseDSN,
		RunMigrations: cfg.RunMigrations,
		Seed:          *seedFlag,
		Debug:         os.Getenv("DB_DEBUG") == "1",
	})
	if err != nil {
		logrus.Fatalf("error de conexión a la base de datos: %v", err)
	}
	if *migrateOnlyFlag {
		logrus.Info("migraciones completadas")
		return
	}

	oplog := services.NewOpLogService(dbConn)
	oplog.Start()
	defer oplog.Close()

	licenses := services.NewLicenseService(dbConn, cfg.CodePoolFile, oplog)
	// Expired licenses are only reported; the frontend shows the alert.
	go func() {
		time.Sleep(2 * time.Second)
		licenses.LogExpired()
	}()

	handler := server.New(server.Deps{
		DB:       dbConn,
		Config:   cfg,
		OpLog:    oplog,
		Licenses: licenses,
	})
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: handler}

	go func() {
		logrus.WithFields(logrus.Fields{"env": cfg.Env, "addr": srv.Addr}).Info("servidor escuchando")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("señal de apagado recibida")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("error durante el apagado: %v", err)
	}
	logrus.Info("servidor detenido")
}
