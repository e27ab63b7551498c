// seed-admin создаёт первого администратора, если его ещё нет.
// Пароль нужно сменить при первом входе.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pribylovaa/go-shop-auth/internal/config"
	"github.com/pribylovaa/go-shop-auth/internal/mail"
	"github.com/pribylovaa/go-shop-auth/internal/pkg/redact"
	"github.com/pribylovaa/go-shop-auth/internal/service"
	"github.com/pribylovaa/go-shop-auth/internal/storage/postgres"
)

func main() {
	var configPath, email, name string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&email, "email", "admin@admin.ru", "admin email")
	flag.StringVar(&name, "name", "admin", "admin name")
	flag.Parse()

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}

	cfg := config.MustLoad(configPath)

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	str, err := postgres.New(ctx, cfg.DB.DatabaseURL)
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer str.Close()

	srvc := service.New(str, str, mail.LogSender{}, cfg.Auth)

	user, created, err := srvc.EnsureAdmin(ctx, email, name, password)
	if err != nil {
		log.Error("seed_admin_failed", slog.String("err", err.Error()))
		str.Close()
		os.Exit(1)
	}

	log.Info("seed_admin_done",
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(user.Email)),
		slog.Bool("created", created),
	)
}
