package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Vardandatasciences/riskavaire-access/internal/registry"
	"github.com/Vardandatasciences/riskavaire-access/internal/transport/http/middleware"
	"github.com/Vardandatasciences/riskavaire-access/internal/usecase"
)

// PermissionHandler serves grant reads, single-user updates, bulk updates,
// and the permission schema listing.
type PermissionHandler struct {
	grants      *usecase.GrantService
	updates     *usecase.UpdateService
	registry    *registry.Registry
	bulkTimeout time.Duration
}

// NewPermissionHandler builds a permission handler instance.
func NewPermissionHandler(grants *usecase.GrantService, updates *usecase.UpdateService, reg *registry.Registry) *PermissionHandler {
	return &PermissionHandler{
		grants:   grants,
		updates:  updates,
		registry: reg,
	}
}

// WithBulkTimeout bounds bulk update wall time. Zero disables the bound.
func (h *PermissionHandler) WithBulkTimeout(timeout time.Duration) *PermissionHandler {
	h.bulkTimeout = timeout
	return h
}

var updateErrorCases = []ErrorCase{
	{Err: usecase.ErrMalformedRequest, Status: http.StatusBadRequest, Message: "request must carry a permission delta or a role"},
	{Err: usecase.ErrInvalidField, Status: http.StatusBadRequest, Message: "permission delta references an unknown module or field"},
	{Err: usecase.ErrUnknownRole, Status: http.StatusBadRequest, Message: "unknown role template"},
	{Err: usecase.ErrUnknownUser, Status: http.StatusNotFound, Message: "user not found or inactive"},
	{Err: usecase.ErrStoreConflict, Status: http.StatusConflict, Message: "permissions changed since they were read; reload and retry"},
}

// GetForUser returns the user's grants expanded over the full schema.
func (h *PermissionHandler) GetForUser(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "user id is required"))
		return
	}

	grants, err := h.grants.GetGrants(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, err, updateErrorCases, http.StatusInternalServerError, "failed to load permissions")
		return
	}

	c.JSON(http.StatusOK, PermissionsResponse{
		UserID:      grants.UserID,
		Permissions: grants.Grants,
		Revision:    grants.Revision,
	})
}

// Update applies a single-user permission change.
func (h *PermissionHandler) Update(c *gin.Context) {
	var req UpdatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	revision, err := h.updates.UpdatePermissions(c.Request.Context(), middleware.GetUserID(c), usecase.UpdateInput{
		UserID:           req.UserID,
		Delta:            req.Permissions,
		Role:             req.Role,
		Reset:            req.Reset,
		ExpectedRevision: req.ExpectedRevision,
	})
	if err != nil {
		RespondWithMappedError(c, err, updateErrorCases, http.StatusInternalServerError, "failed to update permissions")
		return
	}

	c.JSON(http.StatusOK, UpdatePermissionsResponse{
		UserID:   req.UserID,
		Revision: revision,
		Status:   "ok",
	})
}

// BulkUpdate applies one delta and/or role to many users with best-effort
// semantics. The response is 200 even when some users fail; per-user status
// lives in the results list.
func (h *PermissionHandler) BulkUpdate(c *gin.Context) {
	var req BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	ctx := c.Request.Context()
	if h.bulkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.bulkTimeout)
		defer cancel()
	}

	outcomes, err := h.updates.BulkUpdate(ctx, middleware.GetUserID(c), usecase.BulkInput{
		UserIDs: req.UserIDs,
		Delta:   req.Permissions,
		Role:    req.Role,
		Reset:   req.Reset,
	})
	if err != nil {
		RespondWithMappedError(c, err, updateErrorCases, http.StatusInternalServerError, "failed to run bulk update")
		return
	}

	resp := BulkUpdateResponse{
		Results: make([]BulkOutcomeResponse, 0, len(outcomes)),
		Total:   len(outcomes),
	}
	for _, outcome := range outcomes {
		resp.Results = append(resp.Results, BulkOutcomeResponse{
			UserID:    outcome.UserID,
			Status:    string(outcome.Status),
			ErrorKind: outcome.ErrorKind,
		})
		switch outcome.Status {
		case usecase.BulkSuccess:
			resp.Succeeded++
		case usecase.BulkTimeout:
			resp.TimedOut++
		default:
			resp.Failed++
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Fields returns the permission schema as a module-to-fields map.
func (h *PermissionHandler) Fields(c *gin.Context) {
	modules := h.registry.ListModules()

	resp := make(FieldsResponse, len(modules))
	for _, mod := range modules {
		resp[mod.Name] = mod.Fields
	}

	c.JSON(http.StatusOK, resp)
}
