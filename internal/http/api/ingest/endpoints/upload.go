package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/db"
	"github.com/deviflow/deviflow/internal/events"
	"github.com/deviflow/deviflow/internal/http/api"
	"github.com/deviflow/deviflow/internal/model"
	"github.com/deviflow/deviflow/internal/storage"
)

// IngestController receives renders pushed by machine clients (ComfyUI
// output nodes) authenticated with an API key.
type IngestController struct {
	store   db.Store
	storage storage.Storage
}

func NewIngestController(store db.Store, storageSystem storage.Storage) *IngestController {
	return &IngestController{store: store, storage: storageSystem}
}

func IngestModule(store db.Store, storageSystem storage.Storage) api.Module {
	ctl := NewIngestController(store, storageSystem)
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/comfyui/upload", ctl.ingestDeviation)
	})
}

// ingestDeviation stores the uploaded file and files it as a draft, so the
// render shows up in the dashboard ready to schedule.
func (i *IngestController) ingestDeviation(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "missing file"}
	}

	title := ctx.PostForm("title")
	if title == "" {
		title = fileHeader.Filename
	}
	var description *string
	if d := ctx.PostForm("description"); d != "" {
		description = &d
	}

	var galleryID *int
	if raw := ctx.PostForm("gallery_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid gallery_id"}
		}
		gallery, err := i.store.GetGalleryByID(id)
		if err != nil || gallery.UserID != user.ID {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "gallery not found"}
		}
		galleryID = &id
	}

	url, err := i.storage.SaveFile(fileHeader, fileHeader.Filename)
	if err != nil {
		log.Error().Err(err).Msg("ingest upload failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not store file"}
	}

	deviation, err := i.store.CreateDeviation(model.Deviation{
		UserID:      user.ID,
		GalleryID:   galleryID,
		Title:       title,
		Description: description,
		URL:         url,
		Status:      model.DeviationDraft,
	})
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create deviation"}
	}

	events.Publish(user.ID, "deviation.ingested", gin.H{"deviation_id": deviation.ID})
	return api.Created(gin.H{"deviation": deviation}), nil
}
