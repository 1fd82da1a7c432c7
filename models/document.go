package models

import (
	"time"
)

// AppraisalDocument is the metadata of a supporting file kept in the external blob store.
type AppraisalDocument struct {
	DocumentID   int        `gorm:"primaryKey;column:document_id" json:"document_id"`
	AppraisalID  int        `gorm:"column:appraisal_id;index" json:"appraisal_id"`
	UploadedBy   int        `gorm:"column:uploaded_by" json:"uploaded_by"`
	OriginalName string     `gorm:"column:original_name" json:"original_name"`
	StorageKey   string     `gorm:"column:storage_key;size:191;uniqueIndex" json:"storage_key"`
	MimeType     string     `gorm:"column:mime_type;size:120" json:"mime_type"`
	FileSize     int64      `gorm:"column:file_size" json:"file_size"`
	CreateAt     time.Time  `gorm:"column:create_at;autoCreateTime" json:"create_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (AppraisalDocument) TableName() string {
	return "appraisal_documents"
}

// IsAllowedMimeType reports whether the file type can be attached to an appraisal.
func (d *AppraisalDocument) IsAllowedMimeType() bool {
	validTypes := []string{
		"application/pdf",
		"image/jpeg",
		"image/png",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}
	for _, validType := range validTypes {
		if d.MimeType == validType {
			return true
		}
	}
	return false
}
