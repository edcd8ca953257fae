package models

import (
	"time"

	"github.com/google/uuid"
)

// CartSnapshotLine persists one guest-session cart line so the session survives
// a gateway restart. Composite ids are client-side identity and are stored as-is.
type CartSnapshotLine struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SessionKey    string    `gorm:"column:session_key;index;not null"`
	CompositeID   string    `gorm:"column:composite_id;not null"`
	BaseProductID string    `gorm:"column:base_product_id;not null"`
	Name          string    `gorm:"column:name"`
	Brand         string    `gorm:"column:brand"`
	Image         string    `gorm:"column:image"`
	PartNumber    string    `gorm:"column:part_number"`
	RentalID      string    `gorm:"column:rental_id"`
	Installation  bool      `gorm:"column:installation;not null;default:false"`
	Price         float64   `gorm:"column:price;not null;default:0"`
	Quantity      int       `gorm:"column:quantity;not null;default:1"`
	MaxQuantity   int       `gorm:"column:max_quantity;not null;default:0"`
	Position      int       `gorm:"column:position;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table used by goose migrations.
func (CartSnapshotLine) TableName() string {
	return "cart_snapshot_lines"
}
