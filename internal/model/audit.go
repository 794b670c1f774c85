package model

import "time"

type SettingAudit struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Component string    `json:"component" gorm:"size:100;index:idx_component_name"`
	Name      string    `json:"name" gorm:"size:100;index:idx_component_name"`
	OldValue  string    `json:"old_value" gorm:"type:longtext"`
	NewValue  string    `json:"new_value" gorm:"type:longtext"`
	Action    string    `json:"action" gorm:"size:16"`
	Operator  string    `json:"operator" gorm:"size:64"`
	TraceID   string    `json:"trace_id" gorm:"size:36;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

const (
	ActionSet   = "set"
	ActionUnset = "unset"
)
