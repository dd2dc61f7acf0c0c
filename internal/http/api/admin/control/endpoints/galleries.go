package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/deviflow/deviflow/internal/db"
	"github.com/deviflow/deviflow/internal/http/api"
	"github.com/deviflow/deviflow/internal/http/api/admin/control/packets"
	"github.com/deviflow/deviflow/internal/model"
)

type GalleryController struct {
	store db.Store
}

func NewGalleryController(store db.Store) *GalleryController {
	return &GalleryController{store: store}
}

func GalleryModule(store db.Store) api.Module {
	ctl := NewGalleryController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/galleries", ctl.listGalleries)
		c.GET("/galleries/:id", ctl.getGallery)
		c.POST("/galleries", ctl.createGallery)
		c.PATCH("/galleries/:id", ctl.updateGallery)
		c.DELETE("/galleries/:id", ctl.deleteGallery)

		// gallery <-> deviation membership and ordering
		c.POST("/galleries/:id/items", ctl.addItem)
		c.DELETE("/galleries/:id/items/:deviation_id", ctl.removeItem)
		c.PUT("/galleries/:id/items/reorder", ctl.reorderItems)
	})
}

func (g *GalleryController) ownedGallery(ctx *gin.Context, user *model.User) (model.Gallery, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return model.Gallery{}, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	gallery, err := g.store.GetGalleryByID(id)
	if err != nil || gallery.UserID != user.ID {
		return model.Gallery{}, &api.APIError{Code: http.StatusNotFound, Message: "gallery not found"}
	}
	return gallery, nil
}

func (g *GalleryController) listGalleries(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	list, err := g.store.ListGalleries(user.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list galleries"}
	}
	return gin.H{"galleries": list}, nil
}

func (g *GalleryController) getGallery(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	gallery, apiErr := g.ownedGallery(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	return gin.H{"gallery": gallery}, nil
}

func (g *GalleryController) createGallery(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateGalleryRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	gallery, err := g.store.CreateGallery(user.ID, request.Name, request.Description)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create gallery"}
	}
	return api.Created(gin.H{"gallery": gallery}), nil
}

func (g *GalleryController) updateGallery(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	gallery, apiErr := g.ownedGallery(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdateGalleryRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	updated, err := g.store.UpdateGallery(gallery.ID, request.Name, request.Description, request.SortOrder)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update gallery"}
	}
	return gin.H{"gallery": updated}, nil
}

func (g *GalleryController) deleteGallery(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	gallery, apiErr := g.ownedGallery(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := g.store.DeleteGallery(gallery.ID); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete gallery"}
	}
	return api.NoContent(), nil
}

func (g *GalleryController) addItem(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	gallery, apiErr := g.ownedGallery(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.AddGalleryItemRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	deviation, err := g.store.GetDeviationByID(request.DeviationID)
	if err != nil || deviation.UserID != user.ID {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "deviation not found"}
	}

	if err := g.store.AddDeviationToGallery(gallery.ID, request.DeviationID); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not add deviation to gallery"}
	}
	return gin.H{"message": "added"}, nil
}

func (g *GalleryController) removeItem(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	gallery, apiErr := g.ownedGallery(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	deviationID, err := strconv.Atoi(ctx.Param("deviation_id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid deviation id"}
	}

	if err := g.store.RemoveDeviationFromGallery(gallery.ID, deviationID); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not remove deviation from gallery"}
	}
	return gin.H{"message": "removed"}, nil
}

func (g *GalleryController) reorderItems(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	gallery, apiErr := g.ownedGallery(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.ReorderGalleryItemsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := g.store.ReorderGalleryItems(gallery.ID, request.DeviationIDs); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not reorder gallery items"}
	}
	return gin.H{"message": "reordered"}, nil
}
