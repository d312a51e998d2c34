package main

import (
	"context"
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/edel-social/edel-server/account"
	accountmemory "github.com/edel-social/edel-server/account/memory"
	accountpg "github.com/edel-social/edel-server/account/postgres"
	"github.com/edel-social/edel-server/auth"
	"github.com/edel-social/edel-server/blob"
	blobmemory "github.com/edel-social/edel-server/blob/memory"
	blobpg "github.com/edel-social/edel-server/blob/postgres"
	"github.com/edel-social/edel-server/comment"
	commentmemory "github.com/edel-social/edel-server/comment/memory"
	commentpg "github.com/edel-social/edel-server/comment/postgres"
	"github.com/edel-social/edel-server/config"
	pg "github.com/edel-social/edel-server/database/postgres"
	"github.com/edel-social/edel-server/event"
	"github.com/edel-social/edel-server/like"
	likememory "github.com/edel-social/edel-server/like/memory"
	likepg "github.com/edel-social/edel-server/like/postgres"
	"github.com/edel-social/edel-server/moderation/pipeline"
	"github.com/edel-social/edel-server/notification"
	notificationmemory "github.com/edel-social/edel-server/notification/memory"
	notificationpg "github.com/edel-social/edel-server/notification/postgres"
	"github.com/edel-social/edel-server/post"
	postmemory "github.com/edel-social/edel-server/post/memory"
	postpg "github.com/edel-social/edel-server/post/postgres"
	"github.com/edel-social/edel-server/profile"
	profilecache "github.com/edel-social/edel-server/profile/cache"
	profilememory "github.com/edel-social/edel-server/profile/memory"
	profilepg "github.com/edel-social/edel-server/profile/postgres"
	"github.com/edel-social/edel-server/push"
	pushmemory "github.com/edel-social/edel-server/push/memory"
	pushpg "github.com/edel-social/edel-server/push/postgres"
	"github.com/edel-social/edel-server/report"
	reportmemory "github.com/edel-social/edel-server/report/memory"
	reportpg "github.com/edel-social/edel-server/report/postgres"
	"github.com/edel-social/edel-server/s3"
	"github.com/edel-social/edel-server/s3/aws"
	s3memory "github.com/edel-social/edel-server/s3/memory"
	"github.com/edel-social/edel-server/server"
)

type stores struct {
	accounts      account.Store
	profiles      profile.Store
	posts         post.Store
	likes         like.Store
	comments      comment.Store
	reports       report.Store
	notifications notification.Store
	pushTokens    push.TokenStore
	blobs         blob.Store
}

func newMemoryStores() stores {
	return stores{
		accounts:      accountmemory.NewInMemory(),
		profiles:      profilememory.NewInMemory(),
		posts:         postmemory.NewInMemory(),
		likes:         likememory.NewInMemory(),
		comments:      commentmemory.NewInMemory(),
		reports:       reportmemory.NewInMemory(),
		notifications: notificationmemory.NewInMemory(),
		pushTokens:    pushmemory.NewInMemory(),
		blobs:         blobmemory.NewInMemory(),
	}
}

func newPostgresStores(db *sqlx.DB) stores {
	return stores{
		accounts:      accountpg.NewInPostgres(db),
		profiles:      profilepg.NewInPostgres(db),
		posts:         postpg.NewInPostgres(db),
		likes:         likepg.NewInPostgres(db),
		comments:      commentpg.NewInPostgres(db),
		reports:       reportpg.NewInPostgres(db),
		notifications: notificationpg.NewInPostgres(db),
		pushTokens:    pushpg.NewInPostgres(db),
		blobs:         blobpg.NewInPostgres(db),
	}
}

func openDatabase(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := pg.Open(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pg.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}
	return db, nil
}

type app struct {
	cfg     config.Config
	handler http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, log *zap.Logger, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}

	var st stores
	if cfg.UsePostgres() {
		db, err := openDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		st = newPostgresStores(db)
		log.Info("Using postgres stores")
	} else {
		st = newMemoryStores()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}
	st.profiles = profilecache.NewInCache(st.profiles, cfg.ProfileCacheTTL)

	var opts []server.Option
	opts = append(opts, server.WithDebug(cfg.Debug))

	var objects s3.Store
	var locator s3.Locator
	if cfg.UseS3() {
		store, err := aws.NewAWSStore(log, cfg.S3)
		if err != nil {
			a.close()
			return nil, err
		}
		objects = store

		baseURL := cfg.ObjectBaseURL
		if baseURL == config.DefaultObjectBaseURL {
			baseURL = s3.AWSBaseURL(cfg.S3.Bucket, cfg.S3.Region)
		}
		locator = s3.NewLocator(baseURL)
	} else {
		objects = s3memory.NewInMemory()
		locator = s3.NewLocator(cfg.ObjectBaseURL)
		opts = append(opts, server.WithObjects(objects))
		log.Warn("S3_BUCKET_NAME not set, keeping uploads in memory")
	}

	pusher, err := newPusher(ctx, log, cfg, st.pushTokens)
	if err != nil {
		a.close()
		return nil, err
	}

	moderator := pipeline.New(log, cfg.Moderation)
	log.Info("Moderation enabled",
		zap.Strings("text_checkers", moderator.Checkers()),
		zap.Bool("image", moderator.ImageEnabled()),
	)

	revoked := auth.NewRevocations()
	a.closers = append(a.closers, revoked.Close)
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL, revoked)

	bus := event.NewActivityBus()
	a.closers = append(a.closers, bus.Wait)

	notifier := notification.NewNotifier(log, st.notifications, pusher)
	bus.AddHandler(notifier)

	uploader := blob.NewUploader(log, st.blobs, objects, locator, moderator)
	authorizer := account.NewAuthorizer(log, st.accounts)

	routes := []server.Routes{
		account.NewServer(log, st.accounts, st.profiles, account.UserContent{
			Posts:         st.posts,
			Comments:      st.comments,
			Likes:         st.likes,
			Notifications: st.notifications,
			PushTokens:    st.pushTokens,
		}, issuer),
		profile.NewServer(log, st.profiles, st.accounts, st.posts, moderator, uploader, issuer),
		post.NewServer(log, st.posts, st.profiles, st.likes, moderator, uploader, issuer),
		like.NewServer(log, st.likes, st.posts, st.profiles, bus, issuer),
		comment.NewServer(log, st.comments, st.posts, st.profiles, moderator, bus, issuer),
		report.NewServer(log, st.reports, st.posts, authorizer, issuer),
		notification.NewServer(log, st.notifications, notifier, issuer),
		push.NewServer(log, st.pushTokens, issuer),
		blob.NewServer(log, st.blobs),
	}

	a.handler = server.New(log, routes, opts...)
	return a, nil
}

func newPusher(ctx context.Context, log *zap.Logger, cfg config.Config, tokens push.TokenStore) (push.Pusher, error) {
	if !cfg.UseFCM() {
		log.Warn("Firebase credentials not set, push notifications are disabled")
		return &push.NoOpPusher{}, nil
	}

	fb, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase: %w", err)
	}

	client, err := fb.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
	}

	return push.NewFCMPusher(log, tokens, client), nil
}
