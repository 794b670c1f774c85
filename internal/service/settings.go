package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"moove/internal/model"
	"moove/internal/repository"
	"moove/pkg/logger"

	"go.uber.org/zap"
)

var (
	ErrInvalidComponent = errors.New("invalid component")
	ErrInvalidName      = errors.New("invalid setting name")
)

var (
	componentPattern = regexp.MustCompile(`^[a-z][a-z0-9]*_[a-z0-9_]+$`)
	namePattern      = regexp.MustCompile(`^[a-z][a-z0-9_]{0,99}$`)
)

// SettingService is the administrative front of the setting store. Every
// write is audited with the operator and trace id found in the context.
type SettingService struct {
	store repository.SettingStore
	audit repository.AuditInterface
}

func NewSettingService(store repository.SettingStore, audit repository.AuditInterface) *SettingService {
	if audit == nil {
		audit = repository.NopAudit{}
	}
	return &SettingService{store: store, audit: audit}
}

func validateSetting(component, name string) error {
	if !componentPattern.MatchString(component) {
		return fmt.Errorf("%w: %q", ErrInvalidComponent, component)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func (s *SettingService) Get(ctx context.Context, component, name string) (string, error) {
	if err := validateSetting(component, name); err != nil {
		return "", err
	}
	value, found, err := s.store.Get(ctx, component, name)
	if err != nil {
		return "", err
	}
	if !found {
		return "", repository.ErrSettingNotFound
	}
	return value, nil
}

func (s *SettingService) List(ctx context.Context, component string) (map[string]string, error) {
	if !componentPattern.MatchString(component) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidComponent, component)
	}
	return s.store.List(ctx, component)
}

func (s *SettingService) Set(ctx context.Context, component, name, value string) error {
	if err := validateSetting(component, name); err != nil {
		return err
	}
	old, _, err := s.store.Get(ctx, component, name)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, component, name, value); err != nil {
		logger.Error("failed to save setting", zap.String("component", component), zap.String("name", name), zap.Error(err))
		return err
	}
	s.record(ctx, &model.SettingAudit{
		Component: component,
		Name:      name,
		OldValue:  old,
		NewValue:  value,
		Action:    model.ActionSet,
	})
	return nil
}

func (s *SettingService) Unset(ctx context.Context, component, name string) error {
	if err := validateSetting(component, name); err != nil {
		return err
	}
	old, found, err := s.store.Get(ctx, component, name)
	if err != nil {
		return err
	}
	if !found {
		return repository.ErrSettingNotFound
	}
	if err := s.store.Unset(ctx, component, name); err != nil {
		return err
	}
	s.record(ctx, &model.SettingAudit{
		Component: component,
		Name:      name,
		OldValue:  old,
		Action:    model.ActionUnset,
	})
	return nil
}

func (s *SettingService) Audits(ctx context.Context, component, name string) ([]model.SettingAudit, error) {
	if err := validateSetting(component, name); err != nil {
		return nil, err
	}
	return s.audit.ListByName(ctx, component, name)
}

// record stores the audit row. The setting itself is already written, so a
// failed audit is logged and not returned.
func (s *SettingService) record(ctx context.Context, audit *model.SettingAudit) {
	audit.Operator = GetOperator(ctx)
	audit.TraceID = GetTraceID(ctx)
	if err := s.audit.Create(ctx, audit); err != nil {
		logger.Error("failed to create setting audit",
			zap.String("component", audit.Component),
			zap.String("name", audit.Name),
			zap.String("trace_id", audit.TraceID),
			zap.Error(err))
		return
	}
	logger.Info("setting changed",
		zap.String("component", audit.Component),
		zap.String("name", audit.Name),
		zap.String("action", audit.Action),
		zap.String("operator", audit.Operator))
}
