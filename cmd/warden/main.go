package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "warden",
		Usage:   "community post moderation daemon",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "mongo-url",
			Usage:   "connection string for the document database",
			Value:   "mongodb://localhost:27017",
			EnvVars: []string{"MONGO_URL"},
		},
		&cli.StringFlag{
			Name:    "mongo-database",
			Value:   "we-conect",
			EnvVars: []string{"MONGO_DATABASE"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for HTTP APIs",
			Value:   ":8700",
			EnvVars: []string{"WARDEN_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":8701",
			EnvVars: []string{"WARDEN_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection for caching and counters, eg: redis://localhost:6379/0",
			EnvVars: []string{"WARDEN_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "gemini-api-key",
			Usage:   "API key for the generated-filter classification model",
			EnvVars: []string{"GEMINI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "gemini-model",
			EnvVars: []string{"GEMINI_MODEL"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "webhook for enforcement notifications",
			EnvVars: []string{"SLACK_WEBHOOK_URL"},
		},
		&cli.StringFlag{
			Name:    "uploads-dir",
			Usage:   "local directory holding uploaded post media",
			Value:   "data/warden/uploads",
			EnvVars: []string{"WARDEN_UPLOADS_DIR"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		srv, err := NewServer(ctx, Config{
			MongoURL:        cctx.String("mongo-url"),
			MongoDatabase:   cctx.String("mongo-database"),
			RedisURL:        cctx.String("redis-url"),
			GeminiAPIKey:    cctx.String("gemini-api-key"),
			GeminiModel:     cctx.String("gemini-model"),
			SlackWebhookURL: cctx.String("slack-webhook-url"),
			UploadsDir:      cctx.String("uploads-dir"),
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		if err := srv.Run(ctx, cctx.String("bind")); err != nil {
			return fmt.Errorf("failed to run moderation service: %w", err)
		}
		return nil
	},
}
