// Package session owns the per-session engines: each browsing session gets
// its own cart store, wishlist coordinator, and sync worker, keyed by the
// authenticated user id or the guest session cookie.
package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ayamansour/souqsync/internal/cart"
	"github.com/ayamansour/souqsync/internal/identity"
	syncworker "github.com/ayamansour/souqsync/internal/sync"
	"github.com/ayamansour/souqsync/internal/upstream"
	"github.com/ayamansour/souqsync/internal/wishlist"
	"github.com/ayamansour/souqsync/pkg/logger"
)

// Identity names the caller of a request: always a session key, plus the
// user when a valid access token was presented.
type Identity struct {
	SessionKey    string
	Token         string
	UserID        uuid.UUID
	Authenticated bool
}

// Key is the engine registry key. Authenticated users share one engine
// across devices; guests are keyed by their session cookie.
func (id Identity) Key() string {
	if id.Authenticated {
		return "user:" + id.UserID.String()
	}
	return "guest:" + id.SessionKey
}

// Engine bundles the session-scoped state and its background worker.
type Engine struct {
	identity Identity
	cart     *cart.Service
	store    *cart.Store
	wishlist *wishlist.Coordinator
	worker   *syncworker.Worker
	cancel   context.CancelFunc
	logg     *logger.Logger
}

// Cart exposes the session's cart contracts.
func (e *Engine) Cart() *cart.Service {
	return e.cart
}

// Wishlist exposes the session's wishlist contracts.
func (e *Engine) Wishlist() *wishlist.Coordinator {
	return e.wishlist
}

// Identity reports who this engine belongs to.
func (e *Engine) Identity() Identity {
	return e.identity
}

// close cancels the worker and waits for its drain pass.
func (e *Engine) close() {
	e.cancel()
	<-e.worker.Done()
}

// togglerAdapter narrows the upstream session client to the wishlist's
// toggle contract.
type togglerAdapter struct {
	api *upstream.SessionClient
}

func (t togglerAdapter) Toggle(ctx context.Context, productID string) (bool, error) {
	res, err := t.api.ToggleWishlist(ctx, identity.NormalizeUpstreamID(productID))
	if err != nil {
		return false, err
	}
	return res.InWishlist, nil
}

// loadWishlist pulls the server-side wishlist into the coordinator. Failures
// leave the wishlist empty; a later mutation will surface the problem.
func loadWishlist(ctx context.Context, api *upstream.SessionClient, coord *wishlist.Coordinator, logg *logger.Logger) {
	entries, err := api.GetWishlist(ctx)
	if err != nil {
		if logg != nil {
			logg.Warn(ctx, fmt.Sprintf("initial wishlist load failed: %v", err))
		}
		return
	}
	if ctx.Err() != nil {
		// The session went away while the call was in flight.
		return
	}

	items := make([]wishlist.Item, 0, len(entries))
	for _, entry := range entries {
		id := entry.ProductID
		if id.IsNull() {
			id = entry.ID
		}
		items = append(items, wishlist.Item{ID: id.String(), Name: entry.ProductName})
	}
	coord.Load(items)
}
