package store

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm/clause"

	"partvault/internal/models"
)

// ListCategories returns every part category ordered by name ascending. The
// category table is read-only from the API's point of view.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []categoryRow
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Category{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

// SeedCategories inserts any of the given category names that are missing.
// Existing rows keep their ids.
func (s *Store) SeedCategories(ctx context.Context, names []string) error {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		row := categoryRow{
			ID:   strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()),
			Name: name,
		}
		if err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoNothing: true,
			}).
			Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
