package repository

import (
	"context"
	"errors"
	"fmt"

	"moove/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore keeps settings in the config_plugins table.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, component, name string) (string, bool, error) {
	var row model.ConfigPlugin
	err := s.db.WithContext(ctx).
		Where("plugin = ? AND name = ?", component, name).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sql get %s/%s: %w", component, name, err)
	}
	return row.Value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, component, name, value string) error {
	row := model.ConfigPlugin{Plugin: component, Name: name, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plugin"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("sql set %s/%s: %w", component, name, err)
	}
	return nil
}

func (s *SQLStore) Unset(ctx context.Context, component, name string) error {
	err := s.db.WithContext(ctx).
		Where("plugin = ? AND name = ?", component, name).
		Delete(&model.ConfigPlugin{}).Error
	if err != nil {
		return fmt.Errorf("sql unset %s/%s: %w", component, name, err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, component string) (map[string]string, error) {
	var rows []model.ConfigPlugin
	if err := s.db.WithContext(ctx).Where("plugin = ?", component).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sql list %s: %w", component, err)
	}
	res := make(map[string]string, len(rows))
	for _, r := range rows {
		res[r.Name] = r.Value
	}
	return res, nil
}

func (s *SQLStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
