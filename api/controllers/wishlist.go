package controllers

import (
	"net/http"

	"github.com/ayamansour/souqsync/api/responses"
	"github.com/ayamansour/souqsync/api/validators"
	"github.com/ayamansour/souqsync/internal/session"
	"github.com/ayamansour/souqsync/internal/wishlist"
	"github.com/ayamansour/souqsync/pkg/logger"
)

type wishlistView struct {
	Items []wishlist.Item `json:"items"`
}

// WishlistFetch returns the session's wishlist. Guests always see an empty
// list; the wishlist only exists for signed-in users.
func WishlistFetch(manager *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := resolveEngine(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := engine.Wishlist().Items()
		if items == nil {
			items = []wishlist.Item{}
		}
		responses.WriteSuccess(w, wishlistView{Items: items})
	}
}

type wishlistToggleRequest struct {
	ID            string  `json:"id" validate:"required"`
	Name          string  `json:"name"`
	Brand         string  `json:"brand"`
	Image         string  `json:"image"`
	Price         float64 `json:"price" validate:"gte=0"`
	OriginalPrice float64 `json:"originalPrice" validate:"gte=0"`
}

type wishlistToggleResponse struct {
	InWishlist bool `json:"inWishlist"`
}

// WishlistToggle adds the item when absent and removes it when present,
// settling against the upstream toggle endpoint either way.
func WishlistToggle(manager *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wishlistToggleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine, err := resolveEngine(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coord := engine.Wishlist()
		if coord.Contains(req.ID) {
			err = coord.Remove(r.Context(), req.ID)
		} else {
			err = coord.Add(r.Context(), wishlist.Item{
				ID:            req.ID,
				Name:          req.Name,
				Brand:         req.Brand,
				Image:         req.Image,
				Price:         req.Price,
				OriginalPrice: req.OriginalPrice,
			})
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, wishlistToggleResponse{InWishlist: coord.Contains(req.ID)})
	}
}
