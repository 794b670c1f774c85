package resp

import "time"

type SettingItem struct {
	Component string `json:"component"`
	Name      string `json:"name"`
	Value     string `json:"value"`
}

type SettingListResponse struct {
	Component string            `json:"component"`
	Settings  map[string]string `json:"settings"`
}

type AuditLogItem struct {
	ID        int64     `json:"id"`
	Component string    `json:"component"`
	Name      string    `json:"name"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	Action    string    `json:"action"`
	Operator  string    `json:"operator"`
	TraceID   string    `json:"trace_id"`
	CreatedAt time.Time `json:"created_at"`
}
