package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Vardandatasciences/riskavaire-access/internal/usecase"
)

// RoleHandler serves the role template catalogue.
type RoleHandler struct {
	templates *usecase.TemplateService
}

// NewRoleHandler builds a role handler instance.
func NewRoleHandler(templates *usecase.TemplateService) *RoleHandler {
	return &RoleHandler{templates: templates}
}

// List returns every role template in definition order.
func (h *RoleHandler) List(c *gin.Context) {
	templates := h.templates.ListTemplates()

	resp := RolesResponse{Roles: make([]RoleSummary, 0, len(templates))}
	for _, tpl := range templates {
		resp.Roles = append(resp.Roles, RoleSummary{
			Name:    tpl.Name,
			Modules: tpl.Modules,
		})
	}

	c.JSON(http.StatusOK, resp)
}
