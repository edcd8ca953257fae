package identity

import (
	"strconv"
	"strings"
)

// Variant carries the attributes that make two cart lines with the same base
// product id different purchases: a different listing name, part number,
// effective price, brand, or image means different sale terms.
type Variant struct {
	Name       string
	PartNumber string
	Price      float64
	Brand      string
	Image      string
}

// Signature renders the variant tuple as a stable string.
func (v Variant) Signature() string {
	return strings.Join([]string{
		v.Name,
		v.PartNumber,
		FormatPrice(v.Price),
		v.Brand,
		v.Image,
	}, "|")
}

// KeyInput is everything that participates in a composite id.
type KeyInput struct {
	BaseID       string
	Installation bool
	RentalID     string
	Variant      Variant
}

// CompositeKey builds the client-side line identity. Field order is part of
// the contract: the produced string is compared byte-for-byte to decide
// whether an add merges into an existing line or opens a new one.
//
//	base[|inst][|r:<rentalID>]|v:<name>|<part>|<price>|<brand>|<image>
func CompositeKey(in KeyInput) string {
	var b strings.Builder
	b.WriteString(in.BaseID)
	if in.Installation {
		b.WriteString("|inst")
	}
	if in.RentalID != "" {
		b.WriteString("|r:")
		b.WriteString(in.RentalID)
	}
	b.WriteString("|v:")
	b.WriteString(in.Variant.Signature())
	return b.String()
}

// FormatPrice renders a price the way the storefront client does when it
// interpolates a number into a key: shortest representation that round-trips.
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
