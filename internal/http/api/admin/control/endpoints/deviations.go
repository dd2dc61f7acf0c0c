package endpoints

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/db"
	"github.com/deviflow/deviflow/internal/http/api"
	"github.com/deviflow/deviflow/internal/http/api/admin/control/packets"
	"github.com/deviflow/deviflow/internal/model"
	"github.com/deviflow/deviflow/internal/storage"
)

type DeviationController struct {
	store   db.Store
	storage storage.Storage
}

func NewDeviationController(store db.Store, storageSystem storage.Storage) *DeviationController {
	return &DeviationController{store: store, storage: storageSystem}
}

func DeviationModule(store db.Store, storageSystem storage.Storage) api.Module {
	ctl := NewDeviationController(store, storageSystem)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/deviations", ctl.listDeviations)
		c.GET("/deviations/:id", ctl.getDeviation)
		c.PATCH("/deviations/:id", ctl.updateDeviation)
		c.DELETE("/deviations/:id", ctl.deleteDeviation)
		c.POST("/deviations/:id/publish", ctl.publishDeviation)
		c.POST("/deviations/:id/schedule", ctl.scheduleDeviation)
		c.POST("/deviations/batch-delete", ctl.batchDelete)
		c.POST("/deviations/batch-schedule", ctl.batchSchedule)
	})
}

func (d *DeviationController) listDeviations(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var status *string
	if raw := ctx.Query("status"); raw != "" {
		switch raw {
		case model.DeviationDraft, model.DeviationScheduled, model.DeviationPublished:
			status = &raw
		default:
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid status filter"}
		}
	}
	var galleryID *int
	if raw := ctx.Query("gallery_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid gallery_id"}
		}
		galleryID = &id
	}

	list, err := d.store.ListDeviations(user.ID, status, galleryID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list deviations"}
	}
	return gin.H{"deviations": list}, nil
}

func (d *DeviationController) ownedDeviation(id int, user *model.User) (model.Deviation, *api.APIError) {
	deviation, err := d.store.GetDeviationByID(id)
	if err != nil || deviation.UserID != user.ID {
		return model.Deviation{}, &api.APIError{Code: http.StatusNotFound, Message: "deviation not found"}
	}
	return deviation, nil
}

func (d *DeviationController) getDeviation(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	deviation, apiErr := d.ownedDeviation(id, user)
	if apiErr != nil {
		return nil, apiErr
	}
	return gin.H{"deviation": deviation}, nil
}

func (d *DeviationController) updateDeviation(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	if _, apiErr := d.ownedDeviation(id, user); apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdateDeviationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if request.GalleryID != nil {
		gallery, err := d.store.GetGalleryByID(*request.GalleryID)
		if err != nil || gallery.UserID != user.ID {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "gallery not found"}
		}
	}

	deviation, err := d.store.UpdateDeviation(id, request.Title, request.Description, request.GalleryID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update deviation"}
	}
	return gin.H{"deviation": deviation}, nil
}

// deleteDeviation removes the row first, then tries to clean up storage.
// The database row is the source of truth; a failed storage delete is
// logged and swallowed.
func (d *DeviationController) deleteDeviation(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	deviation, apiErr := d.ownedDeviation(id, user)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := d.store.DeleteDeviation(id); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete deviation"}
	}

	if err := d.storage.Delete(deviation.URL); err != nil {
		log.Error().Err(err).Int("deviation_id", id).Msg("storage cleanup failed after deviation delete")
	}
	return api.NoContent(), nil
}

func (d *DeviationController) publishDeviation(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	deviation, apiErr := d.ownedDeviation(id, user)
	if apiErr != nil {
		return nil, apiErr
	}
	if deviation.Status == model.DeviationPublished {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "deviation is already published"}
	}

	if err := d.store.PublishDeviation(id, time.Now().UTC()); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not publish deviation"}
	}
	updated, err := d.store.GetDeviationByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load deviation"}
	}
	return gin.H{"deviation": updated}, nil
}

func (d *DeviationController) scheduleDeviation(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	deviation, apiErr := d.ownedDeviation(id, user)
	if apiErr != nil {
		return nil, apiErr
	}
	if deviation.Status == model.DeviationPublished {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "deviation is already published"}
	}

	var request packets.ScheduleDeviationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if !request.ScheduledAt.After(time.Now()) {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "scheduled_at must be in the future"}
	}

	if err := d.store.ScheduleDeviation(id, request.ScheduledAt.UTC()); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not schedule deviation"}
	}
	updated, err := d.store.GetDeviationByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load deviation"}
	}
	return gin.H{"deviation": updated}, nil
}

// batchDelete fans out over independent deletes; per-item outcomes are
// reported back, nothing is rolled back.
func (d *DeviationController) batchDelete(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.BatchDeleteRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	results := make([]packets.BatchResult, 0, len(request.DeviationIDs))
	for _, id := range request.DeviationIDs {
		result := packets.BatchResult{DeviationID: id}

		deviation, err := d.store.GetDeviationByID(id)
		switch {
		case err != nil:
			result.Error = "not found"
		case deviation.UserID != user.ID:
			result.Error = "forbidden"
		default:
			if err := d.store.DeleteDeviation(id); err != nil {
				result.Error = "could not delete"
				break
			}
			if err := d.storage.Delete(deviation.URL); err != nil {
				log.Error().Err(err).Int("deviation_id", id).Msg("storage cleanup failed during batch delete")
			}
			result.OK = true
		}
		results = append(results, result)
	}
	return gin.H{"results": results}, nil
}

func (d *DeviationController) batchSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.BatchScheduleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if !request.ScheduledAt.After(time.Now()) {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "scheduled_at must be in the future"}
	}

	results := make([]packets.BatchResult, 0, len(request.DeviationIDs))
	for _, id := range request.DeviationIDs {
		result := packets.BatchResult{DeviationID: id}

		deviation, err := d.store.GetDeviationByID(id)
		switch {
		case err != nil:
			result.Error = "not found"
		case deviation.UserID != user.ID:
			result.Error = "forbidden"
		case deviation.Status == model.DeviationPublished:
			result.Error = "already published"
		default:
			if err := d.store.ScheduleDeviation(id, request.ScheduledAt.UTC()); err != nil {
				result.Error = "could not schedule"
				break
			}
			result.OK = true
		}
		results = append(results, result)
	}
	return gin.H{"results": results}, nil
}
