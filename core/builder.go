package core

import (
	"context"
	"fmt"
	stdnet "net"
	"os"
	"time"

	"github.com/cryptonaira/nairadesk/api"
	"github.com/cryptonaira/nairadesk/database"
	"github.com/cryptonaira/nairadesk/database/rtdb"
	"github.com/cryptonaira/nairadesk/database/sqlstore"
	"github.com/cryptonaira/nairadesk/events"
	"github.com/cryptonaira/nairadesk/models"
	"github.com/cryptonaira/nairadesk/net"
	"github.com/cryptonaira/nairadesk/notifications"
	"github.com/cryptonaira/nairadesk/orders"
	"github.com/cryptonaira/nairadesk/repo"
	"github.com/cryptonaira/nairadesk/wallet"
	"github.com/pkg/errors"
)

// DefaultKeepAlive is the interval between keep-alive notices.
const DefaultKeepAlive = time.Minute * 20

// NewNode constructs and returns a DeskNode using the given cfg.
func NewNode(ctx context.Context, cfg *repo.Config) (*DeskNode, error) {
	repo.SetupLogging(cfg.LogDir, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	desk, err := repo.LoadDesk(cfg.DeskFile)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, err
	}
	db, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tg, err := net.NewTelegram(cfg.BotToken)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "connecting to telegram")
	}
	log.Infof("Authorized as @%s", tg.Username())

	rates := wallet.NewExchangeRateProvider(wallet.RateConfig{
		URL:          cfg.RateAPI,
		BuyMarkup:    desk.BuyMarkup,
		SellMarkup:   desk.SellMarkup,
		FallbackRate: desk.FallbackRate,
	})

	bus := events.NewBus()
	node := newNode(nodeConfig{
		gateway:   tg,
		listener:  tg,
		db:        db,
		rates:     rates,
		bus:       bus,
		desk:      desk,
		adminChat: cfg.AdminChatID,
		timeout:   cfg.Timeout,
		keepAlive: cfg.KeepAlive,
	})

	lis, err := stdnet.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "listening on port %d", cfg.Port)
	}
	node.gateway, err = api.NewGateway(node, &api.GatewayConfig{
		Listener: lis,
		NoCors:   cfg.APINoCors,
		Username: cfg.APIUsername,
		Password: cfg.APIPassword,
	})
	if err != nil {
		lis.Close()
		db.Close()
		return nil, err
	}
	node.notifier = notifications.NewNotifier(bus, db, node.gateway.NotifyWebsockets)

	return node, nil
}

type nodeConfig struct {
	gateway   net.Gateway
	listener  updateListener
	db        database.Store
	rates     orders.RateSource
	bus       events.Bus
	desk      *models.Desk
	adminChat int64
	timeout   time.Duration
	keepAlive time.Duration

	// tickInterval overrides the countdown tick in tests.
	tickInterval time.Duration
}

func newNode(cfg nodeConfig) *DeskNode {
	if cfg.bus == nil {
		cfg.bus = events.NewBus()
	}
	if cfg.keepAlive <= 0 {
		cfg.keepAlive = DefaultKeepAlive
	}

	processor := orders.NewProcessor(orders.Config{
		Gateway:      cfg.gateway,
		Rates:        cfg.rates,
		Bus:          cfg.bus,
		AdminChatID:  cfg.adminChat,
		Desk:         cfg.desk,
		Timeout:      cfg.timeout,
		TickInterval: cfg.tickInterval,
	})

	return &DeskNode{
		gw:                cfg.gateway,
		listener:          cfg.listener,
		processor:         processor,
		registrar:         newRegistrar(cfg.db, cfg.gateway, cfg.bus, cfg.adminChat, processor),
		rates:             cfg.rates,
		db:                cfg.db,
		eventBus:          cfg.bus,
		adminChat:         cfg.adminChat,
		keepAliveInterval: cfg.keepAlive,
		shutdown:          make(chan struct{}),
	}
}

// openStore picks the document store. A credential blob selects the
// realtime database; otherwise documents go to sqlite or postgres.
func openStore(ctx context.Context, cfg *repo.Config) (database.Store, error) {
	if cfg.UseRealtimeDB() {
		log.Info("Using the realtime database document store")
		return rtdb.Open(ctx, cfg.DatabaseURL, []byte(cfg.FirebaseCredentials))
	}
	if cfg.DatabaseURL == "" {
		log.Infof("Using the sqlite document store in %s", cfg.DataDir)
	} else {
		log.Info("Using the SQL document store at DATABASE_URL")
	}
	return sqlstore.Open(cfg.DataDir, cfg.DatabaseURL)
}
