package ems

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded when a wizard result is saved.
const (
	AuditSiteCreate    = "site_create"
	AuditDeviceCreate  = "device_create"
	AuditProfileCreate = "profile_create"
	AuditUserCreate    = "user_create"
)

// AuditEntry records who did what to which resource, and when.
type AuditEntry struct {
	ID           string    `yaml:"id" json:"id"`
	Timestamp    time.Time `yaml:"timestamp" json:"timestamp"`
	UserID       string    `yaml:"user_id" json:"user_id"`
	Action       string    `yaml:"action" json:"action"`
	ResourceType string    `yaml:"resource_type" json:"resource_type"`
	ResourceID   string    `yaml:"resource_id" json:"resource_id"`
	Success      bool      `yaml:"success" json:"success"`
	Error        string    `yaml:"error,omitempty" json:"error,omitempty"`
}

// Key implements store.Record. Keys sort in time order.
func (e AuditEntry) Key() string { return e.ID }

// NewAuditEntry builds the entry for one action. A non-nil err marks it
// failed.
func NewAuditEntry(user, action, resourceType, resourceID string, err error, now time.Time) AuditEntry {
	now = now.UTC()
	e := AuditEntry{
		ID:           now.Format("20060102T150405.000000000Z") + "-" + uuid.NewString()[:8],
		Timestamp:    now,
		UserID:       user,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Success:      err == nil,
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}
