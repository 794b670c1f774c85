package repository

import (
	"context"
	"errors"
)

var ErrSettingNotFound = errors.New("setting not found")

// SettingStore is the plugin configuration store. Values are addressed by
// a component ("theme_moove") and a setting name ("scssh5p").
type SettingStore interface {
	Get(ctx context.Context, component, name string) (string, bool, error)
	Set(ctx context.Context, component, name, value string) error
	Unset(ctx context.Context, component, name string) error
	List(ctx context.Context, component string) (map[string]string, error)
	Health(ctx context.Context) error
}
