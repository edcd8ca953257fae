package cart

import (
	"context"
	"strings"

	"github.com/ayamansour/souqsync/internal/identity"
	pkgerrors "github.com/ayamansour/souqsync/pkg/errors"
	"github.com/ayamansour/souqsync/pkg/logger"
)

// Service exposes the cart contracts for one session: optimistic local
// mutations with fire-and-forget upstream synchronization behind them.
type Service struct {
	store *Store
	sink  CommandSink
	logg  *logger.Logger
}

// NewService builds a cart service over the provided store and command sink.
func NewService(store *Store, sink CommandSink, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart store is required")
	}
	if sink == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "command sink is required")
	}
	return &Service{store: store, sink: sink, logg: logg}, nil
}

// AddItemInput is the payload for adding a product (or rental) to the cart.
// ProductID may be a bare backend id or a composite id from a previous
// session; it is normalized either way.
type AddItemInput struct {
	ProductID    string
	Name         string
	Brand        string
	Image        string
	PartNumber   string
	RentalID     string
	Installation bool
	Price        float64
	Quantity     int
	MaxQuantity  int
}

// AddItem applies the optimistic local add and schedules the upstream sync.
// A sync failure never rolls the local add back; the next reconciliation
// corrects any drift.
func (s *Service) AddItem(ctx context.Context, in AddItemInput) (Line, error) {
	base := identity.NormalizeBaseID(in.ProductID)
	keyBase := base
	if keyBase == "" {
		// No backend identity: the line exists locally only.
		keyBase = strings.TrimSpace(in.ProductID)
	}

	compositeID := identity.CompositeKey(identity.KeyInput{
		BaseID:       keyBase,
		Installation: in.Installation,
		RentalID:     in.RentalID,
		Variant: identity.Variant{
			Name:       in.Name,
			PartNumber: in.PartNumber,
			Price:      in.Price,
			Brand:      in.Brand,
			Image:      in.Image,
		},
	})

	quantity := in.Quantity
	if quantity < 1 {
		quantity = 1
	}

	merged := s.store.Add(Line{
		CompositeID:   compositeID,
		BaseProductID: base,
		Name:          in.Name,
		Brand:         in.Brand,
		Image:         in.Image,
		PartNumber:    in.PartNumber,
		RentalID:      in.RentalID,
		Installation:  in.Installation,
		Price:         in.Price,
		Quantity:      quantity,
		MaxQuantity:   in.MaxQuantity,
	})

	s.dispatch(ctx, Command{
		Op:        OpAdd,
		ProductID: identity.NormalizeUpstreamID(in.ProductID),
		Quantity:  merged.Quantity,
		Price:     merged.Price,
		Fallback:  &merged,
	})

	return merged, nil
}

// UpdateQuantity clamps to a minimum of 1 locally, then schedules the
// upstream update keyed by the normalized base id.
func (s *Service) UpdateQuantity(ctx context.Context, compositeID string, quantity int) (Line, error) {
	upstreamID := identity.NormalizeUpstreamID(compositeID)

	line, ok := s.store.SetQuantity(compositeID, quantity)
	if !ok {
		if upstreamID.IsNull() {
			// Sentinel/empty ids are a local no-op, not an error.
			return Line{}, nil
		}
		return Line{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	s.dispatch(ctx, Command{
		Op:        OpUpdate,
		ProductID: upstreamID,
		Quantity:  line.Quantity,
		Price:     line.Price,
		Fallback:  &line,
	})
	return line, nil
}

// RemoveItem drops the line locally regardless of the upstream outcome.
// Removal is idempotent; unknown composite ids are not an error.
func (s *Service) RemoveItem(ctx context.Context, compositeID string) error {
	removed, ok := s.store.Remove(compositeID)
	if !ok {
		return nil
	}

	s.dispatch(ctx, Command{
		Op:        OpRemove,
		ProductID: identity.NormalizeUpstreamID(compositeID),
		Fallback:  &removed,
	})
	return nil
}

// Clear empties the cart locally and fires a best-effort upstream clear.
func (s *Service) Clear(ctx context.Context) {
	s.store.Clear()
	s.dispatch(ctx, Command{Op: OpClear, ProductID: identity.NullUpstreamID})
}

// Refresh schedules a pull of the authoritative upstream snapshot.
func (s *Service) Refresh(ctx context.Context) {
	s.dispatch(ctx, Command{Op: OpRefresh, ProductID: identity.NullUpstreamID})
}

// ApplyServerItems reconciles an upstream snapshot into the store. Called by
// the sync worker with whatever list the upstream returned.
func (s *Service) ApplyServerItems(items []ServerItem, fallback *Line) {
	s.store.ApplyServerItems(items, fallback)
}

// Lines returns the current cart snapshot.
func (s *Service) Lines() []Line {
	return s.store.Lines()
}

// Get looks up a single line.
func (s *Service) Get(compositeID string) (Line, bool) {
	return s.store.Get(compositeID)
}

// Subtotal sums the display totals of all lines.
func (s *Service) Subtotal() float64 {
	var total float64
	for _, line := range s.Lines() {
		total += line.Subtotal()
	}
	return total
}

// FillMissing patches enrichment data onto a stored line.
func (s *Service) FillMissing(compositeID, name, brand, image string, price float64) bool {
	return s.store.FillMissing(compositeID, name, brand, image, price)
}

// dispatch hands a command to the sink unless its line never resolved to a
// backend identity. Clear and refresh carry no id and always go through.
func (s *Service) dispatch(ctx context.Context, cmd Command) {
	if cmd.Op != OpClear && cmd.Op != OpRefresh {
		if cmd.ProductID.IsNull() {
			return
		}
		// A sentinel-keyed line (composite id like "undefined|v:...") exists
		// locally only; its composite string survives upstream-id coercion,
		// so check the base id too.
		if cmd.Fallback != nil && identity.NormalizeBaseID(cmd.Fallback.CompositeID) == "" {
			return
		}
	}
	if !s.sink.Enqueue(cmd) && s.logg != nil {
		s.logg.Warn(ctx, "sync command dropped: queue full")
	}
}
