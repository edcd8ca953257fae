// Package sync runs the per-session background worker that executes cart
// commands against the marketplace and folds the returned snapshots back
// into the local store.
package sync

import (
	"context"
	"time"

	"go.uber.org/multierr"

	"github.com/ayamansour/souqsync/internal/cart"
	"github.com/ayamansour/souqsync/internal/identity"
	"github.com/ayamansour/souqsync/internal/upstream"
	pkgerrors "github.com/ayamansour/souqsync/pkg/errors"
	"github.com/ayamansour/souqsync/pkg/logger"
	"github.com/ayamansour/souqsync/pkg/metrics"
)

const (
	defaultQueueSize = 64
	drainTimeout     = 5 * time.Second
)

// CartAPI is the slice of the upstream session client the worker drives.
type CartAPI interface {
	GetCart(ctx context.Context) (upstream.CartSnapshot, error)
	AddCartItem(ctx context.Context, id identity.UpstreamID, quantity int, price float64) (upstream.CartSnapshot, error)
	UpdateCartItemQuantity(ctx context.Context, id identity.UpstreamID, quantity int) (upstream.CartSnapshot, error)
	RemoveCartItem(ctx context.Context, id identity.UpstreamID) (upstream.CartSnapshot, error)
	ClearCart(ctx context.Context) error
}

// Applier receives reconciled snapshots. Implemented by the cart service.
type Applier interface {
	ApplyServerItems(items []cart.ServerItem, fallback *cart.Line)
}

// Worker consumes one session's command queue in order. A single consumer
// keeps upstream calls for a session strictly FIFO.
type Worker struct {
	api     CartAPI
	applier Applier
	queue   chan cart.Command
	metrics *metrics.SyncMetrics
	logg    *logger.Logger
	done    chan struct{}
}

// NewWorker builds a worker with a bounded command queue.
func NewWorker(api CartAPI, applier Applier, queueSize int, m *metrics.SyncMetrics, logg *logger.Logger) (*Worker, error) {
	if api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart api is required")
	}
	if applier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "applier is required")
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Worker{
		api:     api,
		applier: applier,
		queue:   make(chan cart.Command, queueSize),
		metrics: m,
		logg:    logg,
		done:    make(chan struct{}),
	}, nil
}

// Enqueue hands a command to the worker without blocking. Reports false when
// the queue is full; the caller's optimistic state stands either way.
func (w *Worker) Enqueue(cmd cart.Command) bool {
	select {
	case w.queue <- cmd:
		w.metrics.QueueDepthAdd(1)
		return true
	default:
		return false
	}
}

// Run consumes commands until the context is canceled, then drains whatever
// is still queued on a short deadline so pending mutations reach the
// marketplace. Snapshots returned during the drain are discarded: the
// session is gone, so its local state must not change anymore. Returns the
// accumulated drain errors.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return w.drain()
		case cmd := <-w.queue:
			w.metrics.QueueDepthAdd(-1)
			w.process(ctx, cmd, true)
		}
	}
}

// Done is closed once Run has returned.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) drain() error {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	var errs error
	for {
		select {
		case cmd := <-w.queue:
			w.metrics.QueueDepthAdd(-1)
			errs = multierr.Append(errs, w.process(ctx, cmd, false))
		default:
			return errs
		}
	}
}

// process runs one command. Failures leave local state untouched; the next
// successful snapshot corrects any drift. applyResult is false during the
// shutdown drain, where returned snapshots are discarded.
func (w *Worker) process(ctx context.Context, cmd cart.Command, applyResult bool) error {
	start := time.Now()

	var (
		snap      upstream.CartSnapshot
		err       error
		reconcile = true
	)
	switch cmd.Op {
	case cart.OpAdd:
		snap, err = w.api.AddCartItem(ctx, cmd.ProductID, cmd.Quantity, cmd.Price)
	case cart.OpUpdate:
		snap, err = w.api.UpdateCartItemQuantity(ctx, cmd.ProductID, cmd.Quantity)
	case cart.OpRemove:
		snap, err = w.api.RemoveCartItem(ctx, cmd.ProductID)
	case cart.OpClear:
		err = w.api.ClearCart(ctx)
		reconcile = false
	case cart.OpRefresh:
		snap, err = w.api.GetCart(ctx)
	default:
		return nil
	}

	op := string(cmd.Op)
	w.metrics.ObserveDuration(op, time.Since(start))
	if err != nil {
		w.metrics.IncFailure(op)
		if w.logg != nil {
			w.logg.Error(w.logg.WithField(ctx, "operation", op), "cart sync failed, keeping local state", err)
		}
		return err
	}
	w.metrics.IncSuccess(op)

	if reconcile && applyResult {
		w.applier.ApplyServerItems(convertItems(snap.Items), cmd.Fallback)
	}
	return nil
}

func convertItems(items []upstream.CartItem) []cart.ServerItem {
	out := make([]cart.ServerItem, 0, len(items))
	for _, item := range items {
		out = append(out, cart.ServerItem{
			ProductID: item.ProductID.String(),
			ID:        item.ID.String(),
			Name:      item.Name,
			Brand:     item.Brand,
			Image:     item.Image,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	return out
}
