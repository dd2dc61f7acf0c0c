package endpoints

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deviflow/deviflow/internal/db"
	"github.com/deviflow/deviflow/internal/http/api"
	"github.com/deviflow/deviflow/internal/http/api/admin/control/packets"
	"github.com/deviflow/deviflow/internal/model"
)

type AutomationController struct {
	store db.Store
}

func NewAutomationController(store db.Store) *AutomationController {
	return &AutomationController{store: store}
}

func AutomationModule(store db.Store) api.Module {
	ctl := NewAutomationController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/automations", ctl.listAutomations)
		c.POST("/automations", ctl.createAutomation)
		c.PATCH("/automations/:id", ctl.updateAutomation)
		c.DELETE("/automations/:id", ctl.deleteAutomation)
	})
}

func automationResponse(a model.Automation) packets.AutomationResponse {
	return packets.AutomationResponse{
		ID:        a.ID,
		GalleryID: a.GalleryID,
		Name:      a.Name,
		Enabled:   a.Enabled,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
}

func (a *AutomationController) listAutomations(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	list, err := a.store.ListAutomations(user.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list automations"}
	}

	response := make([]packets.AutomationResponse, 0, len(list))
	for _, it := range list {
		response = append(response, automationResponse(it))
	}
	return gin.H{"automations": response}, nil
}

func (a *AutomationController) createAutomation(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateAutomationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	gallery, err := a.store.GetGalleryByID(request.GalleryID)
	if err != nil || gallery.UserID != user.ID {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "gallery not found"}
	}

	enabled := true
	if request.Enabled != nil {
		enabled = *request.Enabled
	}

	automation, err := a.store.CreateAutomation(user.ID, request.GalleryID, request.Name, enabled)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create automation"}
	}
	return api.Created(gin.H{"automation": automationResponse(automation)}), nil
}

func (a *AutomationController) updateAutomation(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	owned, err := a.store.GetAutomationByID(id)
	if err != nil || owned.UserID != user.ID {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "automation not found"}
	}

	var request packets.UpdateAutomationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if request.GalleryID != nil {
		gallery, err := a.store.GetGalleryByID(*request.GalleryID)
		if err != nil || gallery.UserID != user.ID {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "gallery not found"}
		}
	}

	automation, err := a.store.UpdateAutomation(id, request.Name, request.GalleryID, request.Enabled)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update automation"}
	}
	return gin.H{"automation": automationResponse(automation)}, nil
}

func (a *AutomationController) deleteAutomation(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	owned, err := a.store.GetAutomationByID(id)
	if err != nil || owned.UserID != user.ID {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "automation not found"}
	}

	if err := a.store.DeleteAutomation(id); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete automation"}
	}
	return api.NoContent(), nil
}
