package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/terraincognita07/duet/internal/api"
	"github.com/terraincognita07/duet/internal/cli"
	"github.com/terraincognita07/duet/internal/config"
	"github.com/terraincognita07/duet/internal/db"
	"github.com/terraincognita07/duet/internal/i18n"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if len(os.Args) > 1 {
		if err := runCommand(context.Background(), cfg, os.Args[1], os.Args[2:], os.Stdout); err != nil {
			log.Fatalf("%s failed: %v", os.Args[1], err)
		}
		return
	}

	if err := serve(cfg); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func runCommand(ctx context.Context, cfg config.Config, name string, args []string, out io.Writer) error {
	switch name {
	case "pair":
		flags := flag.NewFlagSet("pair", flag.ContinueOnError)
		flags.SetOutput(out)
		owner := flags.String("owner", "", "owner user id")
		partner := flags.String("partner", "", "partner user id")
		if err := flags.Parse(args); err != nil {
			return err
		}
		return cli.RunPairCommand(ctx, cfg.DBPath, *owner, *partner, out)
	case "issue-token":
		flags := flag.NewFlagSet("issue-token", flag.ContinueOnError)
		flags.SetOutput(out)
		opts := cli.IssueTokenOptions{}
		flags.StringVar(&opts.UserID, "user", "", "user id")
		flags.StringVar(&opts.Role, "role", "owner", "owner or partner")
		flags.StringVar(&opts.Tier, "tier", "free", "free or premium")
		flags.StringVar(&opts.CoupleCode, "couple", "", "couple code")
		flags.DurationVar(&opts.TTL, "ttl", 24*time.Hour, "token lifetime")
		if err := flags.Parse(args); err != nil {
			return err
		}
		secret, err := cfg.RequireSecretKey()
		if err != nil {
			return err
		}
		opts.SecretKey = secret
		return cli.RunIssueTokenCommand(opts, out)
	case "partner-sync":
		flags := flag.NewFlagSet("partner-sync", flag.ContinueOnError)
		flags.SetOutput(out)
		opts := cli.PartnerSyncOptions{Stdin: os.Stdin}
		flags.StringVar(&opts.ServerURL, "server", "http://localhost:"+cfg.Port, "server base url")
		flags.StringVar(&opts.CoupleCode, "code", "", "couple code")
		flags.StringVar(&opts.CachePath, "cache", defaultCachePath(), "partner cache database")
		flags.StringVar(&opts.Token, "token", "", "bearer token (stored in the keyring when omitted)")
		if err := flags.Parse(args); err != nil {
			return err
		}
		return cli.RunPartnerSyncCommand(ctx, opts, out)
	default:
		return fmt.Errorf("unknown command %q (want pair, issue-token or partner-sync)", name)
	}
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "duet-partner.db"
	}
	return dir + string(os.PathSeparator) + "duet" + string(os.PathSeparator) + "partner.db"
}

func serve(cfg config.Config) error {
	secretKey, err := cfg.RequireSecretKey()
	if err != nil {
		return err
	}
	location, err := cfg.Location()
	if err != nil {
		log.Printf("invalid TZ %q, falling back to UTC", cfg.Timezone)
	}
	time.Local = location

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}

	i18nManager, err := i18n.NewManager(cfg.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("i18n init failed: %w", err)
	}

	handler, err := api.NewHandler(database, secretKey, cfg, location, i18nManager)
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}

	app := newApp(handler)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("server shutdown failed: %v", err)
		}
	}()

	log.Printf("Duet listening on http://0.0.0.0:%s (db: %s, tz: %s)", cfg.Port, cfg.DBPath, location.String())
	if err := app.Listen(":" + cfg.Port); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newApp(handler *api.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Duet",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	app.Use(handler.LanguageMiddleware)

	api.RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	return app
}
