package engagementledger

import (
	"log/slog"
	"time"

	httpadapter "agora/contexts/civic-engagement/engagement-ledger/adapters/http"
	"agora/contexts/civic-engagement/engagement-ledger/adapters/memory"
	"agora/contexts/civic-engagement/engagement-ledger/application"
	"agora/contexts/civic-engagement/engagement-ledger/application/commands"
	"agora/contexts/civic-engagement/engagement-ledger/application/queries"
	"agora/contexts/civic-engagement/engagement-ledger/domain/entities"
	"agora/contexts/civic-engagement/engagement-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Entities        ports.EntityRepository
	Ledger          ports.LedgerRepository
	Comments        ports.CommentRepository
	Outbox          ports.OutboxWriter
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	LockTimeout     time.Duration
	ConflictRetries int
	RetryBackoff    time.Duration
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	locks := application.NewEntityLocks()
	engagementUseCase := commands.EngagementUseCase{
		Entities:        deps.Entities,
		Ledger:          deps.Ledger,
		Outbox:          deps.Outbox,
		Locks:           locks,
		Clock:           deps.Clock,
		IDGen:           deps.IDGen,
		LockTimeout:     deps.LockTimeout,
		ConflictRetries: deps.ConflictRetries,
		RetryBackoff:    deps.RetryBackoff,
		Logger:          deps.Logger,
	}
	catalogUseCase := commands.CatalogUseCase{
		Entities:    deps.Entities,
		Comments:    deps.Comments,
		Locks:       locks,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		LockTimeout: deps.LockTimeout,
		Logger:      deps.Logger,
	}
	countsUseCase := queries.CountsUseCase{
		Entities: deps.Entities,
		Ledger:   deps.Ledger,
		Comments: deps.Comments,
	}
	return Module{
		Handler: httpadapter.Handler{
			Engagement: engagementUseCase,
			Catalog:    catalogUseCase,
			Counts:     countsUseCase,
			Logger:     deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Entity, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Entities:    store,
		Ledger:      store,
		Comments:    store,
		Outbox:      store,
		Clock:       store,
		IDGen:       store,
		LockTimeout: 2 * time.Second,
		Logger:      logger,
	})
	module.Store = store
	return module
}
