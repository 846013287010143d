package services

import (
	"github.com/soundlog/soundlog/src/internal/config"
	"github.com/soundlog/soundlog/src/internal/ports"
)

// App wires the full service layer over a repository pair. The chat-command
// surface consumes these services directly; the daemon only drives the
// poller.
type App struct {
	Gateway  *Gateway
	Stats    *Stats
	Importer *Importer
	Accounts *Accounts
	Poller   *Poller
}

func NewApp(users ports.UserRepository, history ports.HistoryRepository, cfg *config.DaemonConfig, newClient ClientFactory) *App {
	gateway := NewGateway(users, cfg.Catalog, newClient)
	return &App{
		Gateway:  gateway,
		Stats:    NewStats(history),
		Importer: NewImporter(history, gateway),
		Accounts: NewAccounts(users, history),
		Poller:   NewPoller(users, history, gateway, cfg.Poll),
	}
}
