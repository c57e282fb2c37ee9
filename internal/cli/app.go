package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ismaelvargas20/motochat/internal/api"
	"github.com/ismaelvargas20/motochat/internal/broadcast"
	"github.com/ismaelvargas20/motochat/internal/cache"
	"github.com/ismaelvargas20/motochat/internal/chat"
	"github.com/ismaelvargas20/motochat/internal/config"
	"github.com/ismaelvargas20/motochat/internal/logging"
	"github.com/ismaelvargas20/motochat/internal/moderation"
	"github.com/ismaelvargas20/motochat/internal/session"
)

// App bundles the wired subsystems behind every command: config, REST
// client, conversation store, session state, message cache, broadcaster,
// inbox orchestration and the moderation workflow.
type App struct {
	Config      *config.Config
	Client      *api.Client
	Store       *chat.Store
	Resolver    *chat.Resolver
	Session     *session.Manager
	Cache       *cache.Store
	Broadcaster *broadcast.Broadcaster
	Inbox       *chat.Inbox
	Workflow    *moderation.Workflow
}

// newApp loads configuration and wires the application graph. The message
// cache is optional: a failure to open it degrades to cache-less operation
// instead of refusing to start.
func newApp(cmd *cobra.Command) (*App, error) {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")

	var cfg *config.Config
	var err error
	if cfgPath != "" {
		cfg, err = config.LoadFromFile(cfgPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})

	if cfg.Client.ID == "" {
		return nil, errors.New("client.id is not configured; set it in the config file or MOTOCHAT_CLIENT_ID")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	client := api.NewClient(api.ClientConfig{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		RetryCount: cfg.API.RetryCount,
		RetryWait:  cfg.API.RetryWait,
		AuthToken:  cfg.API.AuthToken,
	})

	store, err := chat.NewStore(cfg.Client.ID, client)
	if err != nil {
		return nil, err
	}
	resolver := chat.NewResolver(store, client, cfg.Client.DisplayName)

	sess := session.New(cfg.SessionPath())
	if err := sess.Load(); err != nil {
		logging.Warn().Err(err).Msg("session state unreadable, starting fresh")
	}

	var msgCache *cache.Store
	if c, err := cache.Open(cfg.CachePath(), cfg.Cache.BusyTimeoutMs); err != nil {
		logging.Warn().Err(err).Msg("message cache unavailable, continuing without it")
	} else {
		msgCache = c
	}

	broadcaster, err := broadcast.New(broadcast.Config{SignalPath: cfg.SignalPath()})
	if err != nil {
		return nil, err
	}

	inbox := chat.NewInbox(chat.InboxConfig{
		Store:        store,
		Resolver:     resolver,
		Feed:         client,
		Open:         sess,
		RefreshDelay: cfg.Broadcast.RefreshDelay,
	})

	var modCache moderation.MessageCache
	if msgCache != nil {
		modCache = msgCache
	}
	workflow := moderation.New(client, sess, modCache)

	return &App{
		Config:      cfg,
		Client:      client,
		Store:       store,
		Resolver:    resolver,
		Session:     sess,
		Cache:       msgCache,
		Broadcaster: broadcaster,
		Inbox:       inbox,
		Workflow:    workflow,
	}, nil
}

// NewThread creates a thread controller wired to this app's store, cache
// and broadcaster.
func (a *App) NewThread() *chat.Thread {
	var mc chat.MessageCache
	if a.Cache != nil {
		mc = a.Cache
	}
	return chat.NewThread(a.Client, a.Store, mc, a.Broadcaster)
}

// Close flushes session state and releases the cache and broadcaster.
func (a *App) Close() {
	a.Inbox.Close()
	if err := a.Session.Close(); err != nil {
		logging.Warn().Err(err).Msg("failed to flush session state")
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	_ = a.Broadcaster.Close()
}

// requireAdmin gates moderation commands on the configured role. The
// backend enforces authorization anyway; this just fails earlier with a
// clearer message.
func (a *App) requireAdmin() error {
	if !a.Config.Client.Admin {
		return errors.New("this command needs an admin session; set client.admin in the config")
	}
	return nil
}

// friendlyError rewrites backend errors that have a specific remedy.
func friendlyError(err error) error {
	if errors.Is(err, api.ErrNoPermission) {
		return fmt.Errorf("no permission for this action; check your auth token and retry: %w", err)
	}
	return err
}
