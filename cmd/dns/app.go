package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"namereg/internal/browser"
	"namereg/internal/directory"
	"namereg/internal/discovery"
	"namereg/internal/identity"
	"namereg/internal/locator"
	"namereg/internal/logging"
	"namereg/internal/nameconfig"
	"namereg/internal/records"
	"namereg/internal/registry"
	"namereg/internal/settings"
)

const identityFile = "identity.json"

// app holds everything a command needs.
type app struct {
	settings     *settings.Settings
	logger       *zap.Logger
	identity     identity.Keys
	records      records.Records
	closeRecords func() error
	registry     *registry.Registry
	dirs         *directory.Store
	browser      *browser.Browser
}

func openApp(ctx context.Context, s *settings.Settings) (*app, error) {
	logger, err := logging.New(s.Log.Level, s.Log.Format)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.Home, 0700); err != nil {
		return nil, err
	}
	home := osfs.New(s.Home)

	keys, err := identity.LoadOrCreateKeys(home, identityFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	var opts []nameconfig.Option
	opts = append(opts, nameconfig.WithLogger(logger))
	if s.PassphraseEnv != "" {
		if passphrase := os.Getenv(s.PassphraseEnv); passphrase != "" {
			opts = append(opts, nameconfig.WithPassphrase([]byte(passphrase)))
		}
	}
	config := nameconfig.NewStore(home, opts...)

	if s.Discovery != "" {
		if err := s.Locate(ctx, discovery.NewClient(s.Discovery, nil)); err != nil {
			return nil, fmt.Errorf("failed to locate services: %w", err)
		}
		logger.Debug("located services", zap.String("records", s.Records.URL), zap.String("storage", s.Storage.URL))
	}

	store, closeRecords, err := settings.OpenRecords(s.Records, logger)
	if err != nil {
		return nil, err
	}

	reg, err := registry.New(config, store, registry.WithLogger(logger))
	if err != nil {
		return nil, multierr.Append(err, closeRecords())
	}

	blobs, err := settings.OpenStorage(ctx, s.Storage)
	if err != nil {
		return nil, multierr.Append(err, closeRecords())
	}
	dirs := directory.NewStore(blobs)

	return &app{
		settings:     s,
		logger:       logger,
		identity:     keys,
		records:      store,
		closeRecords: closeRecords,
		registry:     reg,
		dirs:         dirs,
		browser: browser.New(reg, dirs,
			browser.WithParser(locator.NewParser(s.Scheme, s.DefaultService)),
			browser.WithHomePage(s.HomePage),
			browser.WithLogger(logger)),
	}, nil
}

func (a *app) Close() error {
	err := a.closeRecords()
	_ = a.logger.Sync()
	return err
}
