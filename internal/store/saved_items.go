package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm/clause"

	"partvault/internal/models"
)

func (s *Store) ListSavedItems(ctx context.Context, userID string) ([]models.SavedItem, error) {
	var rows []savedItemRow
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.SavedItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.SavedItem{PartSlug: row.PartSlug, CreatedAt: row.CreatedAt})
	}
	return out, nil
}

// SaveItem inserts a saved-item row. Saving an already-saved part keeps the
// original timestamp.
func (s *Store) SaveItem(ctx context.Context, userID, partSlug string) (models.SavedItem, error) {
	partSlug = strings.TrimSpace(partSlug)
	if partSlug == "" {
		return models.SavedItem{}, errors.New("part slug is required")
	}

	if _, err := s.GetPart(ctx, partSlug); err != nil {
		return models.SavedItem{}, err
	}

	row := savedItemRow{
		UserID:    userID,
		PartSlug:  partSlug,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "part_slug"}},
			DoNothing: true,
		}).
		Create(&row).Error; err != nil {
		return models.SavedItem{}, err
	}

	var fetched savedItemRow
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND part_slug = ?", userID, partSlug).
		Take(&fetched).Error; err != nil {
		return models.SavedItem{}, err
	}
	return models.SavedItem{PartSlug: fetched.PartSlug, CreatedAt: fetched.CreatedAt}, nil
}

func (s *Store) DeleteSavedItem(ctx context.Context, userID, partSlug string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND part_slug = ?", userID, partSlug).
		Delete(&savedItemRow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
