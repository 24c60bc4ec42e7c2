package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"manualexec/internal/models"
	"manualexec/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- documents --------------------------------------------------------------

func (s *Store) PutDocument(ctx context.Context, snap *models.DocumentSnapshot, pointers []models.DocumentLatest) error {
	if s == nil || s.db == nil {
		return errors.New("document repository unavailable")
	}
	if snap == nil {
		return errors.New("snapshot is nil")
	}
	return s.InTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(snap).Error; err != nil {
			return err
		}
		for i := range pointers {
			p := pointers[i]
			p.DocType = strings.TrimSpace(p.DocType)
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "doc_type"}, {Name: "doc_key"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"snapshot_id",
					"body",
					"updated_at",
				}),
			}).Create(&p).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetDocumentLatest(ctx context.Context, docType, key string) (*models.DocumentLatest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.DocumentLatest
	err := s.db.WithContext(ctx).Model(&models.DocumentLatest{}).
		Where("doc_type = ? AND doc_key = ?", strings.TrimSpace(docType), key).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetDocumentSnapshot(ctx context.Context, docType, snapshotID string) (*models.DocumentSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.DocumentSnapshot
	err := s.db.WithContext(ctx).Model(&models.DocumentSnapshot{}).
		Where("doc_type = ? AND snapshot_id = ?", strings.TrimSpace(docType), strings.TrimSpace(snapshotID)).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListDocumentSnapshots(ctx context.Context, params repository.ListDocumentSnapshotsParams) ([]models.DocumentSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.DocumentSnapshot{}).
		Where("doc_type = ?", strings.TrimSpace(params.DocType))
	if params.DocKey != nil {
		query = query.Where("doc_key = ?", *params.DocKey)
	}
	query = applyOrder(query, "id", params.Asc, "id")
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.DocumentSnapshot
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountDocumentSnapshots(ctx context.Context, docType, snapshotPrefix string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := s.db.WithContext(ctx).Model(&models.DocumentSnapshot{}).
		Where("doc_type = ?", strings.TrimSpace(docType))
	if p := strings.TrimSpace(snapshotPrefix); p != "" {
		query = query.Where("snapshot_id LIKE ?", p+"%")
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) DeleteDocuments(ctx context.Context, docType string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	docType = strings.TrimSpace(docType)
	var removed int64
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		res := tx.Where("doc_type = ?", docType).Delete(&models.DocumentSnapshot{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return tx.Where("doc_type = ?", docType).Delete(&models.DocumentLatest{}).Error
	})
	return removed, err
}

// --- system settings --------------------------------------------------------

func (s *Store) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.Key = strings.TrimSpace(item.Key)
	if item.Key == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value",
			"description",
			"updated_by",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var item models.SystemSetting
	err := s.db.WithContext(ctx).Model(&models.SystemSetting{}).Where("key = ?", key).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) ([]models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.SystemSetting{})
	if params.Prefix != nil && strings.TrimSpace(*params.Prefix) != "" {
		query = query.Where("key LIKE ?", strings.TrimSpace(*params.Prefix)+"%")
	}
	query = applyOrder(query, params.OrderBy, params.Asc, "key")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.SystemSetting
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
