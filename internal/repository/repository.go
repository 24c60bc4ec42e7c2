package repository

import (
	"context"

	"manualexec/internal/models"
)

type DocumentRepository interface {
	// PutDocument inserts the snapshot and upserts every latest pointer in
	// one transaction, so a reader sees either all of them or none.
	PutDocument(ctx context.Context, snap *models.DocumentSnapshot, pointers []models.DocumentLatest) error
	GetDocumentLatest(ctx context.Context, docType, key string) (*models.DocumentLatest, error)
	GetDocumentSnapshot(ctx context.Context, docType, snapshotID string) (*models.DocumentSnapshot, error)
	ListDocumentSnapshots(ctx context.Context, params ListDocumentSnapshotsParams) ([]models.DocumentSnapshot, error)
	CountDocumentSnapshots(ctx context.Context, docType, snapshotPrefix string) (int64, error)
	DeleteDocuments(ctx context.Context, docType string) (int64, error)
}

type SystemSettingsRepository interface {
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	ListSystemSettings(ctx context.Context, params ListSystemSettingsParams) ([]models.SystemSetting, error)
}

type Repository interface {
	DocumentRepository
	SystemSettingsRepository
}

type ListDocumentSnapshotsParams struct {
	DocType string
	DocKey  *string
	Limit   int
	Offset  int
	Asc     *bool
}

type ListSystemSettingsParams struct {
	Limit   int
	Offset  int
	Prefix  *string
	OrderBy string
	Asc     *bool
}
