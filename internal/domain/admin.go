package domain

import "time"

// Admin roles.
const (
	AdminRoleAdmin      = "admin"
	AdminRoleSuperAdmin = "super_admin"
)

// AdminUser is a row in the AdminUsers table gating /api/admin routes.
type AdminUser struct {
	DiscordID int64
	Username  string
	Role      string
	AddedBy   int64
	CreatedAt time.Time
}

// IsSuperAdmin reports whether the admin may perform restricted operations.
func (a *AdminUser) IsSuperAdmin() bool {
	return a.Role == AdminRoleSuperAdmin
}

// AuditLogEntry records an admin action for the audit trail.
type AuditLogEntry struct {
	ID            int64          `json:"id"`
	AdminID       int64          `json:"admin_id,string"`
	AdminUsername string         `json:"admin_username"`
	ActionType    string         `json:"action_type"`
	TargetType    string         `json:"target_type,omitempty"`
	TargetID      string         `json:"target_id,omitempty"`
	Changes       map[string]any `json:"changes,omitempty"`
	IPAddress     string         `json:"ip_address,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// GlobalSetting is a key/value row of bot-wide configuration managed from
// the admin dashboard, grouped by category.
type GlobalSetting struct {
	Category  string    `json:"category"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedBy int64     `json:"updated_by,string"`
	UpdatedAt time.Time `json:"updated_at"`
}
