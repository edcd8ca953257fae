package wishlist

import (
	"context"

	"github.com/ayamansour/souqsync/internal/identity"
	pkgerrors "github.com/ayamansour/souqsync/pkg/errors"
	"github.com/ayamansour/souqsync/pkg/logger"
)

// Toggler flips server-side wishlist membership for a normalized product id.
// The returned flag is the server's resulting membership and is authoritative.
type Toggler interface {
	Toggle(ctx context.Context, productID string) (inWishlist bool, err error)
}

// Coordinator applies wishlist mutations optimistically and settles them
// against the upstream toggle endpoint. The store is rolled back whenever the
// server's reported membership disagrees with the optimistic assumption, so
// after every call the local set matches the last known server state.
type Coordinator struct {
	store         *Store
	toggler       Toggler
	authenticated func() bool
	logg          *logger.Logger
}

// NewCoordinator builds a coordinator. authenticated reports whether the
// session carries a signed-in user; guests cannot mutate the wishlist.
func NewCoordinator(store *Store, toggler Toggler, authenticated func() bool, logg *logger.Logger) (*Coordinator, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist store is required")
	}
	if toggler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist toggler is required")
	}
	if authenticated == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authentication probe is required")
	}
	return &Coordinator{store: store, toggler: toggler, authenticated: authenticated, logg: logg}, nil
}

// Add puts the item in the wishlist optimistically, then settles with the
// server. Guests get a login-required error before anything mutates. Items
// with no usable id are ignored.
func (c *Coordinator) Add(ctx context.Context, item Item) error {
	id := identity.NormalizeBaseID(item.ID)
	if id == "" {
		return nil
	}
	if !c.authenticated() {
		return pkgerrors.New(pkgerrors.CodeLoginRequired, "sign in to save items to your wishlist")
	}

	snapshot := c.store.Items()
	item.ID = id
	c.store.Add(item)

	inWishlist, err := c.toggler.Toggle(ctx, id)
	if err != nil {
		c.rollback(ctx, snapshot, id, err)
		return nil
	}
	if !inWishlist {
		// Server reports the item ended up removed. Trust it.
		c.rollback(ctx, snapshot, id, nil)
	}
	return nil
}

// Remove drops the item optimistically, then settles with the server.
// Removing an absent id is a no-op and never reaches the network.
func (c *Coordinator) Remove(ctx context.Context, id string) error {
	normalized := identity.NormalizeBaseID(id)
	if normalized == "" {
		return nil
	}
	if !c.authenticated() {
		return pkgerrors.New(pkgerrors.CodeLoginRequired, "sign in to manage your wishlist")
	}

	snapshot := c.store.Items()
	if !c.store.Remove(normalized) {
		return nil
	}

	inWishlist, err := c.toggler.Toggle(ctx, normalized)
	if err != nil {
		c.rollback(ctx, snapshot, normalized, err)
		return nil
	}
	if inWishlist {
		c.rollback(ctx, snapshot, normalized, nil)
	}
	return nil
}

// Items returns the current wishlist snapshot.
func (c *Coordinator) Items() []Item {
	return c.store.Items()
}

// Contains reports membership for the normalized id.
func (c *Coordinator) Contains(id string) bool {
	return c.store.Contains(id)
}

// Load replaces the local set with a server snapshot, typically on sign-in.
func (c *Coordinator) Load(items []Item) {
	c.store.Replace(items)
}

// Reset empties the local set. Called on logout; the wishlist is never kept
// for guests.
func (c *Coordinator) Reset() {
	c.store.Clear()
}

func (c *Coordinator) rollback(ctx context.Context, snapshot []Item, id string, cause error) {
	c.store.Replace(snapshot)
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithField(ctx, "product_id", id)
	if cause != nil {
		c.logg.Error(ctx, "wishlist toggle failed, rolled back", cause)
		return
	}
	c.logg.Warn(ctx, "wishlist toggle disagreed with optimistic state, rolled back")
}
