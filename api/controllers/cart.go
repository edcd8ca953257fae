// Package controllers translates HTTP requests into session engine calls.
package controllers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/ayamansour/souqsync/api/middleware"
	"github.com/ayamansour/souqsync/api/responses"
	"github.com/ayamansour/souqsync/api/validators"
	"github.com/ayamansour/souqsync/internal/cart"
	"github.com/ayamansour/souqsync/internal/catalog"
	"github.com/ayamansour/souqsync/internal/session"
	pkgerrors "github.com/ayamansour/souqsync/pkg/errors"
	"github.com/ayamansour/souqsync/pkg/logger"
)

type cartView struct {
	Items    []cart.Line `json:"items"`
	Subtotal float64     `json:"subtotal"`
}

func resolveEngine(r *http.Request, manager *session.Manager) (*session.Engine, error) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session identity missing from request")
	}
	return manager.Resolve(r.Context(), id)
}

// CartFetch returns the session's current cart. Lines missing display
// fields are filled from the catalog in the storefront language.
func CartFetch(manager *session.Manager, enricher *catalog.Enricher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := resolveEngine(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if enricher != nil {
			enrichLines(r.Context(), enricher, middleware.LangFromContext(r.Context()), engine.Cart())
		}
		responses.WriteSuccess(w, cartView{
			Items:    engine.Cart().Lines(),
			Subtotal: engine.Cart().Subtotal(),
		})
	}
}

// enrichLines fills blank display fields on stored lines from the catalog.
// Catalog failures leave the line as stored.
func enrichLines(ctx context.Context, enricher *catalog.Enricher, lang string, svc *cart.Service) {
	for _, line := range svc.Lines() {
		if line.Name != "" && line.Brand != "" && line.Image != "" && line.Price != 0 {
			continue
		}
		enrichment, err := enricher.Lookup(ctx, line.BaseProductID, lang)
		if err != nil {
			continue
		}
		svc.FillMissing(line.CompositeID, enrichment.Name, enrichment.Brand, enrichment.Image, enrichment.Price)
	}
}

type cartAddRequest struct {
	ProductID    string  `json:"productId" validate:"required"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand"`
	Image        string  `json:"image"`
	PartNumber   string  `json:"partNumber"`
	RentalID     string  `json:"rentalId"`
	Installation bool    `json:"installation"`
	Price        float64 `json:"price" validate:"gte=0"`
	Quantity     int     `json:"quantity" validate:"gte=0"`
	MaxQuantity  int     `json:"maxQuantity" validate:"gte=0"`
}

// CartAdd applies an optimistic add and schedules the upstream sync.
func CartAdd(manager *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cartAddRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine, err := resolveEngine(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := engine.Cart().AddItem(r.Context(), cart.AddItemInput{
			ProductID:    req.ProductID,
			Name:         req.Name,
			Brand:        req.Brand,
			Image:        req.Image,
			PartNumber:   req.PartNumber,
			RentalID:     req.RentalID,
			Installation: req.Installation,
			Price:        req.Price,
			Quantity:     req.Quantity,
			MaxQuantity:  req.MaxQuantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		manager.FlushGuest(r.Context(), engine)
		responses.WriteSuccessStatus(w, http.StatusCreated, line)
	}
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// CartUpdateQuantity overwrites one line's quantity.
func CartUpdateQuantity(manager *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compositeID, err := compositeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine, err := resolveEngine(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := engine.Cart().UpdateQuantity(r.Context(), compositeID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		manager.FlushGuest(r.Context(), engine)
		responses.WriteSuccess(w, line)
	}
}

// CartRemove drops one line. Removing an unknown line succeeds.
func CartRemove(manager *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compositeID, err := compositeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine, err := resolveEngine(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := engine.Cart().RemoveItem(r.Context(), compositeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		manager.FlushGuest(r.Context(), engine)
		responses.WriteSuccess(w, cartView{
			Items:    engine.Cart().Lines(),
			Subtotal: engine.Cart().Subtotal(),
		})
	}
}

// CartClear empties the cart.
func CartClear(manager *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := resolveEngine(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine.Cart().Clear(r.Context())
		manager.FlushGuest(r.Context(), engine)
		responses.WriteSuccess(w, cartView{Items: []cart.Line{}})
	}
}

// CartRefresh schedules a reconciliation against the upstream snapshot.
func CartRefresh(manager *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := resolveEngine(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine.Cart().Refresh(r.Context())
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
	}
}

// compositeIDParam decodes the composite id path segment. Composite ids
// carry '|' separators, so clients URL-escape them.
func compositeIDParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "compositeId")
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "composite id is required")
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid composite id encoding")
	}
	return decoded, nil
}
