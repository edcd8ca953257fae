// Package upstream is the HTTP client for the marketplace API the gateway
// fronts. The marketplace keys cart lines by base product id only; every
// call here speaks that id space, never the gateway's composite ids.
package upstream

import "github.com/ayamansour/souqsync/internal/identity"

// CartItem is one entry of the marketplace's cart snapshot. Ids arrive as
// strings or legacy numbers; pointer fields distinguish absent from zero.
type CartItem struct {
	ProductID identity.UpstreamID `json:"productId"`
	ID        identity.UpstreamID `json:"id"`
	Name      string              `json:"name,omitempty"`
	Brand     string              `json:"brand,omitempty"`
	Image     string              `json:"image,omitempty"`
	Price     *float64            `json:"price,omitempty"`
	Quantity  *int                `json:"quantity,omitempty"`
}

// CartSnapshot is the authoritative cart list returned by every cart
// mutation and by GetCart.
type CartSnapshot struct {
	Items []CartItem `json:"items"`
}

// WishlistEntry is one entry of the marketplace's wishlist listing.
type WishlistEntry struct {
	ProductID   identity.UpstreamID `json:"productId"`
	ID          identity.UpstreamID `json:"id"`
	ProductName string              `json:"productName,omitempty"`
}

// ToggleResult is the marketplace's answer to a wishlist toggle. InWishlist
// is the resulting membership and is authoritative.
type ToggleResult struct {
	Success    bool `json:"success"`
	InWishlist bool `json:"inWishlist"`
}

// Product is the catalog record used for enrichment lookups. Names come in
// both storefront languages.
type Product struct {
	ID     identity.UpstreamID `json:"id"`
	NameAr string              `json:"nameAr,omitempty"`
	NameEn string              `json:"nameEn,omitempty"`
	Brand  string              `json:"brand,omitempty"`
	Price  float64             `json:"price,omitempty"`
	Images []string            `json:"images,omitempty"`
}

// Name picks the display name for a storefront language, falling back to
// whichever language is populated.
func (p Product) Name(lang string) string {
	if lang == "ar" {
		if p.NameAr != "" {
			return p.NameAr
		}
		return p.NameEn
	}
	if p.NameEn != "" {
		return p.NameEn
	}
	return p.NameAr
}

// Image returns the primary product image, if any.
func (p Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type addCartItemRequest struct {
	ID       identity.UpstreamID `json:"id"`
	Quantity int                 `json:"quantity"`
	Price    float64             `json:"price"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type toggleWishlistRequest struct {
	ProductID identity.UpstreamID `json:"productId"`
}
