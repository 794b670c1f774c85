package repository

import (
	"context"

	"moove/internal/model"

	"gorm.io/gorm"
)

// AuditInterface records setting changes made through the admin API.
type AuditInterface interface {
	Create(ctx context.Context, audit *model.SettingAudit) error
	ListByName(ctx context.Context, component, name string) ([]model.SettingAudit, error)
}

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, audit *model.SettingAudit) error {
	return r.db.WithContext(ctx).Create(audit).Error
}

func (r *AuditRepository) ListByName(ctx context.Context, component, name string) ([]model.SettingAudit, error) {
	var audits []model.SettingAudit
	err := r.db.WithContext(ctx).
		Where("component = ? AND name = ?", component, name).
		Order("created_at DESC").
		Find(&audits).Error
	return audits, err
}

// NopAudit is used when no audit database is configured.
type NopAudit struct{}

func (NopAudit) Create(context.Context, *model.SettingAudit) error { return nil }

func (NopAudit) ListByName(context.Context, string, string) ([]model.SettingAudit, error) {
	return []model.SettingAudit{}, nil
}
