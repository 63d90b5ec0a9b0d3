package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserSummary describes one directory entry returned by the API.
type UserSummary struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Department  string    `json:"department,omitempty"`
	Role        string    `json:"role,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewUserSummary maps a domain user onto the API view.
func NewUserSummary(user domain.User) UserSummary {
	return UserSummary{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Department:  user.Department,
		Role:        user.Role,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
	}
}

// ListUsersResponse is one directory page.
type ListUsersResponse struct {
	Items      []UserSummary `json:"items"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
}

// PermissionsResponse carries a user's fully expanded grant map plus the
// revision token for optimistic concurrency.
type PermissionsResponse struct {
	UserID      string          `json:"user_id"`
	Permissions domain.GrantSet `json:"permissions"`
	Revision    int64           `json:"revision"`
}

// UpdatePermissionsRequest is the payload for single-user updates. At least
// one of permissions or role must be present.
type UpdatePermissionsRequest struct {
	UserID           string          `json:"user_id" binding:"required"`
	Permissions      domain.GrantSet `json:"permissions"`
	Role             string          `json:"role"`
	Reset            bool            `json:"reset"`
	ExpectedRevision *int64          `json:"expected_revision"`
}

// UpdatePermissionsResponse reports the committed revision.
type UpdatePermissionsResponse struct {
	UserID   string `json:"user_id"`
	Revision int64  `json:"revision"`
	Status   string `json:"status"`
}

// BulkUpdateRequest applies one shared delta and/or role to many users.
type BulkUpdateRequest struct {
	UserIDs     []string        `json:"user_ids" binding:"required"`
	Permissions domain.GrantSet `json:"permissions"`
	Role        string          `json:"role"`
	Reset       bool            `json:"reset"`
}

// BulkOutcomeResponse is one user's bulk result, in request order.
type BulkOutcomeResponse struct {
	UserID    string `json:"user_id"`
	Status    string `json:"status"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// BulkUpdateResponse summarises a bulk run.
type BulkUpdateResponse struct {
	Results   []BulkOutcomeResponse `json:"results"`
	Total     int                   `json:"total"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	TimedOut  int                   `json:"timed_out"`
}

// FieldsResponse is the full permission schema as a module-to-fields map,
// mirroring the registry definition.
type FieldsResponse map[string][]string

// RoleSummary describes one role template.
type RoleSummary struct {
	Name    string              `json:"name"`
	Modules map[string][]string `json:"modules"`
}

// RolesResponse lists the available role templates in definition order.
type RolesResponse struct {
	Roles []RoleSummary `json:"roles"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
