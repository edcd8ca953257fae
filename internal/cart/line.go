// Package cart owns the session-local cart state: composite-keyed line
// items, optimistic mutations, and reconciliation of upstream snapshots
// that only know products by their base id.
package cart

import "github.com/ayamansour/souqsync/internal/identity"

// DefaultMaxQuantity bounds a line when neither the add request nor the
// stored line carries a stock limit.
const DefaultMaxQuantity = 99

// Line is one cart entry. CompositeID is client-side identity and unique
// within a store; BaseProductID is what the marketplace knows. Several lines
// may share a BaseProductID when their sale terms differ.
type Line struct {
	CompositeID   string  `json:"compositeId"`
	BaseProductID string  `json:"baseProductId"`
	Name          string  `json:"name,omitempty"`
	Brand         string  `json:"brand,omitempty"`
	Image         string  `json:"image,omitempty"`
	PartNumber    string  `json:"partNumber,omitempty"`
	RentalID      string  `json:"rentalId,omitempty"`
	Installation  bool    `json:"installation,omitempty"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	MaxQuantity   int     `json:"maxQuantity,omitempty"`
}

// Subtotal is the display total for the line.
func (l Line) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// ServerItem is one entry of an authoritative upstream cart snapshot.
// Pointer fields distinguish "absent" from zero so reconciliation can apply
// its precedence rules.
type ServerItem struct {
	ProductID string
	ID        string
	Name      string
	Brand     string
	Image     string
	Price     *float64
	Quantity  *int
}

func (it ServerItem) rawID() string {
	if it.ProductID != "" {
		return it.ProductID
	}
	return it.ID
}

// CommandOp names a background synchronization command.
type CommandOp string

const (
	OpAdd     CommandOp = "add"
	OpUpdate  CommandOp = "update"
	OpRemove  CommandOp = "remove"
	OpClear   CommandOp = "clear"
	OpRefresh CommandOp = "refresh"
)

// Command is the unit of work handed to the session's sync worker. Only
// base-id-derived identity crosses the wire; composite-only fields stay in
// Fallback for reconciling the response.
type Command struct {
	Op        CommandOp
	ProductID identity.UpstreamID
	Quantity  int
	Price     float64
	Fallback  *Line
}

// CommandSink accepts commands for background execution. Enqueue reports
// false when the command was dropped (queue full or worker stopped).
type CommandSink interface {
	Enqueue(cmd Command) bool
}
