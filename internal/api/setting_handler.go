package api

import (
	"context"
	"errors"
	"net/http"

	"moove/internal/dto/req"
	"moove/internal/dto/resp"
	"moove/internal/model"
	"moove/internal/repository"
	"moove/internal/service"

	"github.com/gin-gonic/gin"
)

type SettingProvider interface {
	Get(ctx context.Context, component, name string) (string, error)
	List(ctx context.Context, component string) (map[string]string, error)
	Set(ctx context.Context, component, name, value string) error
	Unset(ctx context.Context, component, name string) error
	Audits(ctx context.Context, component, name string) ([]model.SettingAudit, error)
}

type SettingHandler struct {
	service SettingProvider
	store   repository.SettingStore
}

func NewSettingHandler(service SettingProvider, store repository.SettingStore) *SettingHandler {
	return &SettingHandler{service: service, store: store}
}

// settingError maps service errors onto status codes.
func settingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidComponent), errors.Is(err, service.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrSettingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "setting not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *SettingHandler) ListSettings(c *gin.Context) {
	component := c.Param("component")
	values, err := h.service.List(c.Request.Context(), component)
	if err != nil {
		settingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.SettingListResponse{Component: component, Settings: values})
}

func (h *SettingHandler) GetSetting(c *gin.Context) {
	var uri req.SettingURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid setting"})
		return
	}
	value, err := h.service.Get(c.Request.Context(), uri.Component, uri.Name)
	if err != nil {
		settingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.SettingItem{Component: uri.Component, Name: uri.Name, Value: value})
}

func (h *SettingHandler) SetSetting(c *gin.Context) {
	var uri req.SettingURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid setting"})
		return
	}
	var body req.SetSettingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON format error"})
		return
	}
	if err := h.service.Set(c.Request.Context(), uri.Component, uri.Name, *body.Value); err != nil {
		settingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.SettingItem{Component: uri.Component, Name: uri.Name, Value: *body.Value})
}

func (h *SettingHandler) UnsetSetting(c *gin.Context) {
	var uri req.SettingURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid setting"})
		return
	}
	if err := h.service.Unset(c.Request.Context(), uri.Component, uri.Name); err != nil {
		settingError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SettingHandler) GetSettingAudits(c *gin.Context) {
	var uri req.SettingURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid setting"})
		return
	}
	audits, err := h.service.Audits(c.Request.Context(), uri.Component, uri.Name)
	if err != nil {
		settingError(c, err)
		return
	}
	items := make([]resp.AuditLogItem, 0, len(audits))
	for _, a := range audits {
		items = append(items, resp.AuditLogItem{
			ID:        a.ID,
			Component: a.Component,
			Name:      a.Name,
			OldValue:  a.OldValue,
			NewValue:  a.NewValue,
			Action:    a.Action,
			Operator:  a.Operator,
			TraceID:   a.TraceID,
			CreatedAt: a.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *SettingHandler) HealthCheck(c *gin.Context) {
	if err := h.store.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
