package main

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-account-service/accounts"
	"github.com/jrsteele09/go-account-service/avatars"
	avatarminio "github.com/jrsteele09/go-account-service/avatars/minio"
	avatars3 "github.com/jrsteele09/go-account-service/avatars/s3"
	"github.com/jrsteele09/go-account-service/internal/config"
	"github.com/jrsteele09/go-account-service/notify"
	"github.com/jrsteele09/go-account-service/notify/sendgrid"
	"github.com/jrsteele09/go-account-service/server"
	"github.com/jrsteele09/go-account-service/sessions"
	"github.com/jrsteele09/go-account-service/token"
	"github.com/jrsteele09/go-account-service/users"
	usermongo "github.com/jrsteele09/go-account-service/users/mongo"
	userpostgres "github.com/jrsteele09/go-account-service/users/postgres"
	fakeuserrepo "github.com/jrsteele09/go-account-service/users/repofake"
	usersqlite "github.com/jrsteele09/go-account-service/users/sqlite"
	"github.com/rs/zerolog/log"
)

type app struct {
	server   *server.Server
	notifier *notify.Notifier
	closers  []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("failed to close resource")
		}
	}
}

// buildApp wires the stores, services and HTTP server selected by c
func buildApp(ctx context.Context, c *config.Config) (*app, error) {
	a := &app{}

	userRepo, err := a.openUserRepo(ctx, c.Store)
	if err != nil {
		a.close()
		return nil, err
	}

	avatarStore, err := openAvatarStore(ctx, c, userRepo)
	if err != nil {
		a.close()
		return nil, err
	}

	transport, err := newTransport(c.Mail)
	if err != nil {
		a.close()
		return nil, err
	}
	a.notifier = notify.New(transport,
		notify.WithSender(c.Mail.From, c.Mail.FromName),
		notify.WithTimeout(c.Mail.SendTimeout),
		notify.WithLogger(log.Logger.With().Str("component", "notify").Logger()),
	)

	tokens := token.New(token.NewHMACSigner(c.Session.Secret), token.WithTTL(c.Session.TTL))
	sessionManager := sessions.NewManager(userRepo, tokens)

	accountService := accounts.New(userRepo, sessionManager, avatarStore, a.notifier,
		accounts.WithPasswordPolicy(users.PasswordPolicy{
			MinLength:    c.Password.MinLength,
			Forbidden:    c.Password.Forbidden,
			Blocklist:    c.Password.Blocklist,
			RequireUpper: c.Password.RequireUpper,
			RequireLower: c.Password.RequireLower,
			RequireDigit: c.Password.RequireDigit,
		}),
		accounts.WithAvatarMaxBytes(c.Avatar.MaxBytes),
	)

	a.server = server.New(c, accountService, sessionManager)
	return a, nil
}

func (a *app) openUserRepo(ctx context.Context, c config.Store) (users.UserRepo, error) {
	log.Info().Str("driver", c.Driver).Msg("opening user store")

	switch c.Driver {
	case config.StorePostgres:
		db, err := userpostgres.Open(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres user store: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return userpostgres.NewUserRepo(db), nil
	case config.StoreMongo:
		repo, err := usermongo.Open(ctx, c.MongoURI, c.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("open mongo user store: %w", err)
		}
		a.closers = append(a.closers, func() error { return repo.Close(context.Background()) })
		return repo, nil
	case config.StoreSQLite:
		repo, err := usersqlite.Open(ctx, c.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite user store: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	default:
		log.Warn().Msg("using the in-memory user store, accounts are lost on restart")
		return fakeuserrepo.NewFakeUserRepo(), nil
	}
}

func openAvatarStore(ctx context.Context, c *config.Config, userRepo users.UserRepo) (avatars.Store, error) {
	switch c.Avatar.Backend {
	case config.AvatarMinio:
		store, err := avatarminio.Connect(ctx, c.Minio.Endpoint, c.Minio.AccessKey, c.Minio.SecretKey, c.Minio.Bucket, c.Minio.UseSSL)
		if err != nil {
			return nil, fmt.Errorf("connect minio avatar store: %w", err)
		}
		return store, nil
	case config.AvatarS3:
		store, err := avatars3.Connect(ctx, avatars3.Options{
			Region:       c.S3.Region,
			Bucket:       c.S3.Bucket,
			BaseEndpoint: c.S3.BaseEndpoint,
			AccessKey:    c.S3.AccessKey,
			SecretKey:    c.S3.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("connect s3 avatar store: %w", err)
		}
		return store, nil
	default:
		return avatars.NewInlineStore(userRepo), nil
	}
}

func newTransport(c config.Mail) (notify.Transport, error) {
	if c.SendGridAPIKey == "" {
		log.Info().Msg("SENDGRID_API_KEY not set, emails are logged instead of sent")
		return notify.NewLogTransport(log.Logger), nil
	}
	transport, err := sendgrid.New(c.SendGridAPIKey)
	if err != nil {
		return nil, fmt.Errorf("create sendgrid transport: %w", err)
	}
	return transport, nil
}
