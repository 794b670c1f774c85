package model

import "time"

// ConfigPlugin is one plugin-scoped setting row, keyed by (plugin, name).
type ConfigPlugin struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Plugin    string    `gorm:"size:100;not null;uniqueIndex:idx_plugin_name" json:"plugin"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:idx_plugin_name" json:"name"`
	Value     string    `gorm:"type:longtext" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ConfigPlugin) TableName() string {
	return "config_plugins"
}
