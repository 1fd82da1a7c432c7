package models

import "time"

type AuditLog struct {
	AuditID      int       `gorm:"primaryKey;column:audit_id" json:"audit_id"`
	UserID       int       `gorm:"column:user_id;index" json:"user_id"`
	Action       string    `gorm:"column:action;size:40" json:"action"`
	EntityType   string    `gorm:"column:entity_type;size:40" json:"entity_type"`
	EntityID     *int      `gorm:"column:entity_id" json:"entity_id"`
	EntityNumber *string   `gorm:"column:entity_number;size:40" json:"entity_number"`
	NewValues    *string   `gorm:"column:new_values;type:text" json:"new_values"`
	Description  *string   `gorm:"column:description" json:"description"`
	IPAddress    string    `gorm:"column:ip_address;size:64" json:"ip_address"`
	UserAgent    *string   `gorm:"column:user_agent" json:"user_agent"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
