package models

import (
	"time"

	"gorm.io/datatypes"
)

// DocumentSnapshot is one immutable, append-only copy of a pipeline document.
type DocumentSnapshot struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	DocType    string `gorm:"type:varchar(64);not null;index:idx_doc_snap_type_key,priority:1"`
	DocKey     string `gorm:"type:varchar(200);not null;default:'';index:idx_doc_snap_type_key,priority:2"`
	SnapshotID string `gorm:"type:varchar(200);not null;uniqueIndex"`

	Body      datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (DocumentSnapshot) TableName() string {
	return "document_snapshots"
}

// DocumentLatest is the replaceable pointer per (doc_type, doc_key). The
// empty key is the global latest of a type.
type DocumentLatest struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	DocType    string `gorm:"type:varchar(64);not null;uniqueIndex:uq_doc_latest_type_key,priority:1"`
	DocKey     string `gorm:"type:varchar(200);not null;default:'';uniqueIndex:uq_doc_latest_type_key,priority:2"`
	SnapshotID string `gorm:"type:varchar(200);not null"`

	Body      datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"type:timestamptz;autoUpdateTime;index"`
}

func (DocumentLatest) TableName() string {
	return "document_latest"
}
