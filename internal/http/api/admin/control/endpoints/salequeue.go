package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/db"
	"github.com/deviflow/deviflow/internal/events"
	"github.com/deviflow/deviflow/internal/http/api"
	"github.com/deviflow/deviflow/internal/http/api/admin/control/packets"
	"github.com/deviflow/deviflow/internal/model"
	"github.com/deviflow/deviflow/internal/sales"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type SaleQueueController struct {
	store db.Store
}

func NewSaleQueueController(store db.Store) *SaleQueueController {
	return &SaleQueueController{store: store}
}

func SaleQueueModule(store db.Store) api.Module {
	ctl := NewSaleQueueController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/sale-queue", ctl.addToQueue)
		c.GET("/sale-queue", ctl.listQueue)
		c.DELETE("/sale-queue/:id", ctl.removeFromQueue)
		c.POST("/sale-queue/:id/skip", ctl.skipItem)
	})
}

func (s *SaleQueueController) addToQueue(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.AddToSaleQueueRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if len(request.DeviationIDs) == 0 {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "deviation_ids must not be empty"}
	}

	preset, err := s.store.GetPricePresetByID(request.PricePresetID)
	if err != nil || preset.UserID != user.ID {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "price preset not found"}
	}

	response := packets.EnqueueResponse{Results: make([]packets.EnqueueResult, 0, len(request.DeviationIDs))}
	for _, deviationID := range request.DeviationIDs {
		result := packets.EnqueueResult{DeviationID: deviationID}

		deviation, err := s.store.GetDeviationByID(deviationID)
		switch {
		case err != nil || deviation.UserID != user.ID:
			result.Outcome = "error"
			result.Error = "deviation not found"
		case deviation.Status != model.DeviationPublished:
			result.Outcome = "error"
			result.Error = "deviation is not published"
		default:
			active, err := s.store.HasActiveSaleItem(deviationID)
			if err != nil {
				result.Outcome = "error"
				result.Error = "could not check queue"
				break
			}
			if active {
				// already pending or processing; not an error
				result.Outcome = "skipped"
				response.Skipped++
				break
			}
			if _, err := s.store.EnqueueSaleItem(deviationID, request.PricePresetID); err != nil {
				result.Outcome = "error"
				result.Error = "could not enqueue"
				break
			}
			result.Outcome = "created"
			response.Created++
		}
		response.Results = append(response.Results, result)
	}

	if response.Created > 0 {
		events.Publish(user.ID, "sale_queue.enqueued", gin.H{
			"created":         response.Created,
			"price_preset_id": request.PricePresetID,
		})
	}
	return api.Created(response), nil
}

func (s *SaleQueueController) listQueue(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var status *string
	if raw := ctx.Query("status"); raw != "" && raw != "all" {
		switch raw {
		case sales.StatusPending, sales.StatusProcessing, sales.StatusCompleted, sales.StatusFailed, sales.StatusSkipped:
			status = &raw
		default:
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid status filter"}
		}
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	items, total, err := s.store.ListSaleQueue(user.ID, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list sale queue"}
	}

	return packets.SaleQueueListResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// skipItem bypasses a pending sale without deleting the row, keeping it
// visible in history as skipped.
func (s *SaleQueueController) skipItem(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	item, ownerID, err := s.store.GetSaleQueueItemWithOwner(id)
	if err != nil || ownerID != user.ID {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "queue item not found"}
	}
	if item.Status != sales.StatusPending {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "Only pending queue items can be skipped"}
	}

	skipped, err := s.store.SkipSaleItem(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not skip queue item"}
	}
	if !skipped {
		// raced with the worker claiming the row
		return nil, &api.APIError{Code: http.StatusConflict, Message: "Only pending queue items can be skipped"}
	}
	return gin.H{"message": "skipped"}, nil
}

func (s *SaleQueueController) removeFromQueue(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	item, ownerID, err := s.store.GetSaleQueueItemWithOwner(id)
	if err != nil || ownerID != user.ID {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "queue item not found"}
	}

	// an in-flight sale cannot be pulled
	if item.Status == sales.StatusProcessing {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "Cannot remove a queue item while it is processing"}
	}

	if err := s.store.DeleteSaleQueueItem(id); err != nil {
		log.Error().Err(err).Int("item_id", id).Msg("removeFromQueue failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not remove queue item"}
	}
	return api.NoContent(), nil
}
