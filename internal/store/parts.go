package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"partvault/internal/models"
)

var (
	ErrPartNotFound = errors.New("part not found")
	// ErrPartOwnedByAnother is returned when an upsert targets a slug that
	// belongs to a different principal. The slug namespace is global, so this
	// is the metadata-side twin of the storage ownership rule.
	ErrPartOwnedByAnother = errors.New("part slug is owned by another user")
)

// UpsertPart creates or replaces the metadata record for req.Slug. The
// denormalized main image URL is preserved across upserts; it changes only
// through SetMainImageURL/ClearMainImageURL.
func (s *Store) UpsertPart(ctx context.Context, ownerID string, req models.PartUpsertRequest) (models.Part, error) {
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		return models.Part{}, errors.New("slug is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return models.Part{}, errors.New("name is required")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	row := partRow{
		PartSlug:         slug,
		OwnerID:          ownerID,
		Name:             req.Name,
		Make:             req.Make,
		Model:            req.Model,
		Condition:        req.Condition,
		PriceCents:       req.PriceCents,
		Stock:            req.Stock,
		CategoryID:       req.CategoryID,
		FeaturesJSON:     marshalStrings(req.Features),
		CompatModelsJSON: marshalStrings(req.CompatModels),
		CompatYearsJSON:  marshalStrings(req.CompatYears),
		WeightGrams:      req.WeightGrams,
		Dimensions:       req.Dimensions,
		Material:         req.Material,
		WarrantyMonths:   req.WarrantyMonths,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing partRow
		err := tx.Where("part_slug = ?", slug).Take(&existing).Error
		switch {
		case err == nil:
			if existing.OwnerID != ownerID {
				return ErrPartOwnedByAnother
			}
			row.CreatedAt = existing.CreatedAt
			row.MainImageURL = existing.MainImageURL
		case errors.Is(err, gorm.ErrRecordNotFound):
			// First insert for this slug.
		default:
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "part_slug"}},
			UpdateAll: true,
		}).Create(&row).Error
	})
	if err != nil {
		return models.Part{}, err
	}
	return partFromRow(row), nil
}

func (s *Store) GetPart(ctx context.Context, slug string) (models.Part, error) {
	var row partRow
	err := s.db.WithContext(ctx).Where("part_slug = ?", slug).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Part{}, ErrPartNotFound
	}
	if err != nil {
		return models.Part{}, err
	}
	return partFromRow(row), nil
}

func (s *Store) ListPartsByOwner(ctx context.Context, ownerID string) ([]models.Part, error) {
	var rows []partRow
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Part, 0, len(rows))
	for _, row := range rows {
		out = append(out, partFromRow(row))
	}
	return out, nil
}

// SetMainImageURL refreshes the denormalized main-image URL. Called by the
// asset service on every successful upload to the "main" slot.
func (s *Store) SetMainImageURL(ctx context.Context, slug, url string) error {
	return s.updateMainImageURL(ctx, slug, url)
}

// ClearMainImageURL is the invalidation half of the cache obligation: called
// when the "main" slot is deleted.
func (s *Store) ClearMainImageURL(ctx context.Context, slug string) error {
	return s.updateMainImageURL(ctx, slug, "")
}

// ClearMainImageURLByValue clears the cached main-image URL on every part of
// the owner that still points at url. Used after a batch delete, where only
// the object paths are known.
func (s *Store) ClearMainImageURLByValue(ctx context.Context, ownerID, url string) (int64, error) {
	if url == "" {
		return 0, nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res := s.db.WithContext(ctx).Model(&partRow{}).
		Where("owner_id = ? AND main_image_url = ?", ownerID, url).
		Updates(map[string]any{"main_image_url": "", "updated_at": now})
	return res.RowsAffected, res.Error
}

func (s *Store) updateMainImageURL(ctx context.Context, slug, url string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res := s.db.WithContext(ctx).Model(&partRow{}).
		Where("part_slug = ?", slug).
		Updates(map[string]any{"main_image_url": url, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPartNotFound
	}
	return nil
}

func partFromRow(row partRow) models.Part {
	return models.Part{
		Slug:           row.PartSlug,
		Name:           row.Name,
		Make:           row.Make,
		Model:          row.Model,
		Condition:      row.Condition,
		PriceCents:     row.PriceCents,
		Stock:          row.Stock,
		CategoryID:     row.CategoryID,
		Features:       unmarshalStrings(row.FeaturesJSON),
		CompatModels:   unmarshalStrings(row.CompatModelsJSON),
		CompatYears:    unmarshalStrings(row.CompatYearsJSON),
		WeightGrams:    row.WeightGrams,
		Dimensions:     row.Dimensions,
		Material:       row.Material,
		WarrantyMonths: row.WarrantyMonths,
		MainImageURL:   row.MainImageURL,
		OwnerID:        row.OwnerID,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
