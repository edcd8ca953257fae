package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/ayamansour/souqsync/internal/cart"
	syncworker "github.com/ayamansour/souqsync/internal/sync"
	"github.com/ayamansour/souqsync/internal/upstream"
	"github.com/ayamansour/souqsync/internal/wishlist"
	pkgerrors "github.com/ayamansour/souqsync/pkg/errors"
	"github.com/ayamansour/souqsync/pkg/logger"
	"github.com/ayamansour/souqsync/pkg/metrics"
)

// Manager is the engine registry. Engines are created lazily on first use
// and torn down on shutdown or guest adoption.
type Manager struct {
	upstream  *upstream.Client
	snapshots *SnapshotRepository
	metrics   *metrics.SyncMetrics
	logg      *logger.Logger
	queueSize int

	mu      sync.Mutex
	engines map[string]*Engine
}

// NewManager wires the registry. snapshots may be nil, which disables guest
// persistence (tests mostly run without a database).
func NewManager(client *upstream.Client, snapshots *SnapshotRepository, m *metrics.SyncMetrics, queueSize int, logg *logger.Logger) (*Manager, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upstream client is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &Manager{
		upstream:  client,
		snapshots: snapshots,
		metrics:   m,
		logg:      logg,
		queueSize: queueSize,
		engines:   map[string]*Engine{},
	}, nil
}

// Resolve returns the engine for the identity, building it on first use.
func (m *Manager) Resolve(ctx context.Context, id Identity) (*Engine, error) {
	if id.SessionKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session key is required")
	}

	m.mu.Lock()
	if engine, ok := m.engines[id.Key()]; ok {
		m.mu.Unlock()
		return engine, nil
	}
	m.mu.Unlock()

	engine, err := m.build(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.engines[id.Key()]; ok {
		// Lost the race; drop the freshly built engine.
		engine.close()
		return existing, nil
	}
	m.engines[id.Key()] = engine
	return engine, nil
}

func (m *Manager) build(ctx context.Context, id Identity) (*Engine, error) {
	api := m.upstream.ForSession(id.Token, id.SessionKey)
	store := cart.NewStore()

	worker, err := syncworker.NewWorker(api, store, m.queueSize, m.metrics, m.logg)
	if err != nil {
		return nil, err
	}
	cartSvc, err := cart.NewService(store, worker, m.logg)
	if err != nil {
		return nil, err
	}

	wishStore := wishlist.NewStore()
	coord, err := wishlist.NewCoordinator(wishStore, togglerAdapter{api: api}, func() bool { return id.Authenticated }, m.logg)
	if err != nil {
		return nil, err
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	go worker.Run(workerCtx)

	engine := &Engine{
		identity: id,
		cart:     cartSvc,
		store:    store,
		wishlist: coord,
		worker:   worker,
		cancel:   cancel,
		logg:     m.logg,
	}

	if id.Authenticated {
		// The marketplace owns the authenticated cart and wishlist; pull both.
		loadWishlist(ctx, api, coord, m.logg)
		cartSvc.Refresh(ctx)
	} else if m.snapshots != nil {
		lines, err := m.snapshots.ListBySession(ctx, id.SessionKey)
		if err != nil {
			m.logg.Error(ctx, "guest snapshot restore failed", err)
		} else if len(lines) > 0 {
			store.ApplyReconciled(lines)
		}
	}

	return engine, nil
}

// Adopt merges a guest session's cart into the caller's authenticated
// engine, then deletes the guest state. Quantities merge by composite id;
// a trailing refresh reconciles against the authoritative server cart.
func (m *Manager) Adopt(ctx context.Context, guestSessionKey string, authed Identity) error {
	if !authed.Authenticated {
		return pkgerrors.New(pkgerrors.CodeLoginRequired, "sign in to adopt a guest session")
	}
	if guestSessionKey == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest session key is required")
	}

	guestID := Identity{SessionKey: guestSessionKey}

	var lines []cart.Line
	m.mu.Lock()
	guestEngine, live := m.engines[guestID.Key()]
	m.mu.Unlock()
	if live {
		lines = guestEngine.cart.Lines()
	} else if m.snapshots != nil {
		restored, err := m.snapshots.ListBySession(ctx, guestSessionKey)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load guest snapshot")
		}
		lines = restored
	}

	target, err := m.Resolve(ctx, authed)
	if err != nil {
		return err
	}

	for _, line := range lines {
		if _, err := target.cart.AddItem(ctx, cart.AddItemInput{
			ProductID:    line.CompositeID,
			Name:         line.Name,
			Brand:        line.Brand,
			Image:        line.Image,
			PartNumber:   line.PartNumber,
			RentalID:     line.RentalID,
			Installation: line.Installation,
			Price:        line.Price,
			Quantity:     line.Quantity,
			MaxQuantity:  line.MaxQuantity,
		}); err != nil {
			return err
		}
	}
	target.cart.Refresh(ctx)

	m.dropGuest(ctx, guestID)
	return nil
}

func (m *Manager) dropGuest(ctx context.Context, guestID Identity) {
	m.mu.Lock()
	engine, ok := m.engines[guestID.Key()]
	delete(m.engines, guestID.Key())
	m.mu.Unlock()
	if ok {
		engine.close()
	}
	if m.snapshots != nil {
		if err := m.snapshots.DeleteSession(ctx, guestID.SessionKey); err != nil {
			m.logg.Error(ctx, "guest snapshot delete failed", err)
		}
	}
}

// PruneStaleGuests deletes guest snapshots idle for longer than maxAge.
// Run once at startup; an active guest re-persists on its next mutation.
func (m *Manager) PruneStaleGuests(ctx context.Context, maxAge time.Duration) error {
	if m.snapshots == nil || maxAge <= 0 {
		return nil
	}

	keys, err := m.snapshots.StaleSessionKeys(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list stale guest snapshots")
	}

	var errs error
	for _, key := range keys {
		errs = multierr.Append(errs, m.snapshots.DeleteSession(ctx, key))
	}
	if len(keys) > 0 {
		m.logg.Info(m.logg.WithField(ctx, "sessions", len(keys)), "pruned stale guest snapshots")
	}
	return errs
}

// Shutdown stops every engine and flushes guest snapshots.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	engines := make([]*Engine, 0, len(m.engines))
	for _, engine := range m.engines {
		engines = append(engines, engine)
	}
	m.engines = map[string]*Engine{}
	m.mu.Unlock()

	var errs error
	for _, engine := range engines {
		engine.close()
		if m.snapshots != nil && !engine.identity.Authenticated {
			errs = multierr.Append(errs, m.snapshots.ReplaceSession(ctx, engine.identity.SessionKey, engine.cart.Lines()))
		}
	}
	return errs
}

// FlushGuest persists the current guest cart snapshot. Called after guest
// cart mutations so a restart keeps the cart.
func (m *Manager) FlushGuest(ctx context.Context, engine *Engine) {
	if m.snapshots == nil || engine == nil || engine.identity.Authenticated {
		return
	}
	if err := m.snapshots.ReplaceSession(ctx, engine.identity.SessionKey, engine.cart.Lines()); err != nil {
		m.logg.Error(ctx, "guest snapshot flush failed", err)
	}
}
