package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/config"
	"github.com/edel-social/edel-server/moderation"
	"github.com/edel-social/edel-server/s3/aws"
)

func main() {
	// A missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "edel-server",
		Usage: "anonymous social posting API with automatic content moderation",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "development logging and gin debug mode",
				EnvVars: []string{"DEBUG"},
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "postgres connection string, in-memory stores are used when empty",
				EnvVars: []string{"DATABASE_URL"},
			},
		},
		Commands: []*cli.Command{
			serveCmd,
			migrateCmd,
			setAdminCmd,
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "run the HTTP API",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "listen",
			Usage:   "address to listen on",
			Value:   config.DefaultListenAddress,
			EnvVars: []string{"LISTEN_ADDRESS"},
		},
		&cli.StringFlag{
			Name:     "jwt-secret",
			Usage:    "HS256 signing secret for access tokens",
			EnvVars:  []string{"JWT_SECRET_KEY", "JWT_SECRET"},
			Required: true,
		},
		&cli.DurationFlag{
			Name:    "token-ttl",
			Usage:   "lifetime of access tokens",
			Value:   auth.DefaultTokenTTL,
			EnvVars: []string{"TOKEN_TTL"},
		},
		&cli.StringFlag{
			Name:    "s3-bucket",
			Usage:   "bucket for uploads, kept in memory when empty",
			EnvVars: []string{"S3_BUCKET_NAME"},
		},
		&cli.StringFlag{
			Name:    "s3-region",
			Value:   "us-east-1",
			EnvVars: []string{"AWS_REGION"},
		},
		&cli.StringFlag{
			Name:    "s3-endpoint",
			Usage:   "S3 compatible endpoint override",
			EnvVars: []string{"S3_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "aws-access-key-id",
			EnvVars: []string{"AWS_ACCESS_KEY_ID"},
		},
		&cli.StringFlag{
			Name:    "aws-secret-access-key",
			EnvVars: []string{"AWS_SECRET_ACCESS_KEY"},
		},
		&cli.StringFlag{
			Name:    "object-base-url",
			Usage:   "public base URL of uploaded objects, derived from the bucket when empty",
			EnvVars: []string{"OBJECT_BASE_URL"},
		},
		&cli.StringFlag{
			Name:    "firebase-credentials",
			Usage:   "service account file for FCM pushes, pushes are disabled when empty",
			EnvVars: []string{"FIREBASE_CREDENTIALS_PATH"},
		},
		&cli.DurationFlag{
			Name:    "profile-cache-ttl",
			Value:   config.DefaultProfileCacheTTL,
			EnvVars: []string{"PROFILE_CACHE_TTL"},
		},
		&cli.StringFlag{
			Name:    "moderatecontent-api-key",
			EnvVars: []string{"MODERATECONTENT_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "openai-api-key",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "sightengine-api-user",
			EnvVars: []string{"SIGHTENGINE_API_USER"},
		},
		&cli.StringFlag{
			Name:    "sightengine-api-secret",
			EnvVars: []string{"SIGHTENGINE_API_SECRET"},
		},
	},
	Action: func(cctx *cli.Context) error {
		cfg := config.Config{
			ListenAddress: cctx.String("listen"),
			Debug:         cctx.Bool("debug"),
			JWTSecret:     cctx.String("jwt-secret"),
			TokenTTL:      cctx.Duration("token-ttl"),
			DatabaseURL:   cctx.String("database-url"),
			S3: aws.Config{
				Endpoint:        cctx.String("s3-endpoint"),
				Region:          cctx.String("s3-region"),
				Bucket:          cctx.String("s3-bucket"),
				AccessKeyID:     cctx.String("aws-access-key-id"),
				SecretAccessKey: cctx.String("aws-secret-access-key"),
			},
			ObjectBaseURL:           cctx.String("object-base-url"),
			FirebaseCredentialsFile: cctx.String("firebase-credentials"),
			ProfileCacheTTL:         cctx.Duration("profile-cache-ttl"),
			Moderation: moderation.Config{
				ModerateContentAPIKey: cctx.String("moderatecontent-api-key"),
				OpenAIAPIKey:          cctx.String("openai-api-key"),
				SightengineAPIUser:    cctx.String("sightengine-api-user"),
				SightengineAPISecret:  cctx.String("sightengine-api-secret"),
			},
		}

		log, err := newLogger(cfg.Debug)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		return serve(cctx.Context, log, cfg)
	},
}

var migrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "create the postgres schema",
	Action: func(cctx *cli.Context) error {
		url := cctx.String("database-url")
		if url == "" {
			return errors.New("--database-url is required")
		}

		db, err := openDatabase(cctx.Context, url)
		if err != nil {
			return err
		}
		return db.Close()
	},
}

var setAdminCmd = &cli.Command{
	Name:      "set-admin",
	Usage:     "grant or revoke admin rights",
	ArgsUsage: "<email>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "revoke",
			Usage: "revoke instead of grant",
		},
	},
	Action: func(cctx *cli.Context) error {
		email := cctx.Args().First()
		if email == "" {
			return errors.New("email is required")
		}

		url := cctx.String("database-url")
		if url == "" {
			return errors.New("--database-url is required")
		}

		db, err := openDatabase(cctx.Context, url)
		if err != nil {
			return err
		}
		defer db.Close()

		stores := newPostgresStores(db)
		user, err := stores.accounts.GetUserByEmail(cctx.Context, email)
		if err != nil {
			return fmt.Errorf("failed to find %s: %w", email, err)
		}

		isAdmin := !cctx.Bool("revoke")
		if err := stores.accounts.SetAdmin(cctx.Context, user.ID, isAdmin); err != nil {
			return err
		}

		fmt.Printf("%s (%s) admin=%v\n", email, user.ID, isAdmin)
		return nil
	},
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func serve(ctx context.Context, log *zap.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, log, cfg.WithDefaults())
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:              a.cfg.ListenAddress,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening", zap.String("address", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
