package session

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ayamansour/souqsync/internal/cart"
	"github.com/ayamansour/souqsync/pkg/db"
	"github.com/ayamansour/souqsync/pkg/db/models"
)

// SnapshotRepository persists guest cart lines so a guest session survives a
// gateway restart. Authenticated carts live upstream and are never stored here.
type SnapshotRepository struct {
	client *db.Client
}

// NewSnapshotRepository binds the repo to the shared DB client.
func NewSnapshotRepository(client *db.Client) *SnapshotRepository {
	return &SnapshotRepository{client: client}
}

// ListBySession loads the persisted lines for a session in display order.
func (r *SnapshotRepository) ListBySession(ctx context.Context, sessionKey string) ([]cart.Line, error) {
	var rows []models.CartSnapshotLine
	err := r.client.DB().WithContext(ctx).
		Where("session_key = ?", sessionKey).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	lines := make([]cart.Line, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, cart.Line{
			CompositeID:   row.CompositeID,
			BaseProductID: row.BaseProductID,
			Name:          row.Name,
			Brand:         row.Brand,
			Image:         row.Image,
			PartNumber:    row.PartNumber,
			RentalID:      row.RentalID,
			Installation:  row.Installation,
			Price:         row.Price,
			Quantity:      row.Quantity,
			MaxQuantity:   row.MaxQuantity,
		})
	}
	return lines, nil
}

// ReplaceSession overwrites the persisted snapshot for a session in one
// transaction. An empty line list just deletes whatever was stored.
func (r *SnapshotRepository) ReplaceSession(ctx context.Context, sessionKey string, lines []cart.Line) error {
	return r.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("session_key = ?", sessionKey).Delete(&models.CartSnapshotLine{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}

		rows := make([]models.CartSnapshotLine, 0, len(lines))
		for i, line := range lines {
			rows = append(rows, models.CartSnapshotLine{
				ID:            uuid.New(),
				SessionKey:    sessionKey,
				CompositeID:   line.CompositeID,
				BaseProductID: line.BaseProductID,
				Name:          line.Name,
				Brand:         line.Brand,
				Image:         line.Image,
				PartNumber:    line.PartNumber,
				RentalID:      line.RentalID,
				Installation:  line.Installation,
				Price:         line.Price,
				Quantity:      line.Quantity,
				MaxQuantity:   line.MaxQuantity,
				Position:      i,
			})
		}
		return tx.Create(&rows).Error
	})
}

// DeleteSession drops the persisted snapshot, used after guest adoption.
func (r *SnapshotRepository) DeleteSession(ctx context.Context, sessionKey string) error {
	return r.client.DB().WithContext(ctx).
		Where("session_key = ?", sessionKey).
		Delete(&models.CartSnapshotLine{}).Error
}

// StaleSessionKeys lists the sessions whose snapshot has not been touched
// since the cutoff. Feeds the startup prune of abandoned guest carts.
func (r *SnapshotRepository) StaleSessionKeys(ctx context.Context, cutoff time.Time) ([]string, error) {
	var keys []string
	err := r.client.DB().WithContext(ctx).
		Model(&models.CartSnapshotLine{}).
		Select("session_key").
		Group("session_key").
		Having("MAX(updated_at) < ?", cutoff).
		Scan(&keys).Error
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
