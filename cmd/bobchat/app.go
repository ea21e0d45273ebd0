package main

import (
	"context"
	"fmt"

	"github.com/bobchat/cli/config"
	"github.com/bobchat/cli/internal/attachments"
	"github.com/bobchat/cli/internal/auth"
	"github.com/bobchat/cli/internal/backend"
	"github.com/bobchat/cli/internal/conversation"
	"github.com/bobchat/cli/internal/messaging"
	"github.com/bobchat/cli/internal/storage"
	"github.com/bobchat/cli/internal/tui"
)

var runProgram = tui.Run

// app holds the services shared by every command
type app struct {
	cfg     *config.Config
	kv      storage.KV
	client  *backend.Client
	auth    *auth.Service
	gateway *messaging.Gateway

	store *conversation.Store
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	kv, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	a := &app{
		cfg:     cfg,
		kv:      kv,
		client:  client,
		auth:    auth.NewService(client, kv),
		gateway: messaging.NewGateway(client, messaging.WithThreadID(cfg.Backend.ThreadID)),
	}
	if _, err := a.auth.Restore(ctx); err != nil {
		kv.Close()
		return nil, err
	}
	return a, nil
}

// conversations loads the store on first use; login and logout never need it
func (a *app) conversations(ctx context.Context) (*conversation.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := conversation.Load(ctx, a.kv)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

func (a *app) cache() (*attachments.Cache, error) {
	return attachments.NewCache(a.cfg.Paths.AttachmentDir)
}

func (a *app) tuiDeps(ctx context.Context) (tui.Deps, error) {
	store, err := a.conversations(ctx)
	if err != nil {
		return tui.Deps{}, err
	}
	cache, err := a.cache()
	if err != nil {
		return tui.Deps{}, err
	}
	return tui.Deps{
		Config:  a.cfg,
		Store:   store,
		Gateway: a.gateway,
		Auth:    a.auth,
		Backend: a.client,
		Cache:   cache,
	}, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}
