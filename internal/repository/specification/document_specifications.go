package specification

import (
	"gorm.io/gorm"

	"github.com/wheslancardoso/backend-mindmesh/internal/entity"
)

type ByFileHash struct {
	FileHash string
}

func (s ByFileHash) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("file_hash = ?", s.FileHash)
}

type ByStatus struct {
	Status entity.DocumentStatus
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}
