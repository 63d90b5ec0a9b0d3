package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Vardandatasciences/riskavaire-access/internal/usecase"
)

// UserHandler serves the administrator directory listing.
type UserHandler struct {
	directory *usecase.DirectoryService
}

// NewUserHandler builds a user handler instance.
func NewUserHandler(directory *usecase.DirectoryService) *UserHandler {
	return &UserHandler{directory: directory}
}

// List returns one page of directory users matching the query filters.
func (h *UserHandler) List(c *gin.Context) {
	input := usecase.ListUsersInput{
		Search:     c.Query("search"),
		Department: c.Query("department_id"),
	}

	if raw := c.Query("include_inactive"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "include_inactive must be a boolean"))
			return
		}
		input.IncludeInactive = include
	}

	page, ok := parsePositiveInt(c, "page")
	if !ok {
		return
	}
	pageSize, ok := parsePositiveInt(c, "page_size")
	if !ok {
		return
	}
	input.Page = page
	input.PageSize = pageSize

	result, err := h.directory.ListUsers(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, usecase.ErrMalformedRequest) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid pagination parameters"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list users"))
		return
	}

	items := make([]UserSummary, 0, len(result.Users))
	for _, user := range result.Users {
		items = append(items, NewUserSummary(user))
	}

	c.JSON(http.StatusOK, ListUsersResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
	})
}

// parsePositiveInt reads a 1-indexed pagination parameter. An absent
// parameter yields zero, letting the directory service apply its defaults;
// an explicit zero or negative is malformed.
func parsePositiveInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, name+" must be a positive integer"))
		return 0, false
	}
	return value, true
}
