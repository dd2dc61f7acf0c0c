package endpoints

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/db"
	"github.com/deviflow/deviflow/internal/http/api"
	"github.com/deviflow/deviflow/internal/http/api/admin/control/packets"
	"github.com/deviflow/deviflow/internal/model"
	"github.com/deviflow/deviflow/internal/redis"
	"github.com/deviflow/deviflow/internal/storage"
)

// upload sessions expire with the presigned URL
const uploadSessionTTL = 15 * time.Minute

type UploadController struct {
	store   db.Store
	storage storage.Storage
}

func NewUploadController(store db.Store, storageSystem storage.Storage) *UploadController {
	return &UploadController{store: store, storage: storageSystem}
}

func UploadModule(store db.Store, storageSystem storage.Storage) api.Module {
	ctl := NewUploadController(store, storageSystem)
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/uploads", ctl.createUpload)
		c.POST("/uploads/complete", ctl.completeUpload)
		c.POST("/uploads/direct", ctl.directUpload)
	})
}

func newUploadToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// createUpload starts the presigned-URL handshake: the client PUTs the file
// straight to object storage, then calls /uploads/complete with the token.
func (u *UploadController) createUpload(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateUploadRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	presigned, err := u.storage.PresignUpload(request.FileName, uploadSessionTTL)
	if err != nil {
		if err == storage.ErrPresignUnsupported {
			return nil, &api.APIError{Code: http.StatusNotImplemented, Message: "presigned uploads require object storage; use /uploads/direct"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not presign upload"}
	}

	token, err := newUploadToken()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create upload token"}
	}

	session := redis.UploadSession{
		UserID:    user.ID,
		ObjectKey: presigned.ObjectKey,
		FileName:  request.FileName,
		PublicURL: presigned.PublicURL,
	}
	if err := redis.SaveUploadSession(ctx.Request.Context(), token, session, uploadSessionTTL); err != nil {
		log.Error().Err(err).Msg("failed to save upload session")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create upload session"}
	}

	return api.Created(packets.UploadHandshakeResponse{
		Token:     token,
		UploadURL: presigned.UploadURL,
		PublicURL: presigned.PublicURL,
	}), nil
}

// completeUpload links the stored object to a new draft deviation.
func (u *UploadController) completeUpload(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CompleteUploadRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	session, err := redis.GetUploadSession(ctx.Request.Context(), request.Token)
	if err != nil {
		if err == redis.ErrNoSession {
			return nil, &api.APIError{Code: http.StatusGone, Message: "upload session expired or unknown"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load upload session"}
	}
	if session.UserID != user.ID {
		return nil, &api.APIError{Code: http.StatusGone, Message: "upload session expired or unknown"}
	}

	if request.GalleryID != nil {
		gallery, err := u.store.GetGalleryByID(*request.GalleryID)
		if err != nil || gallery.UserID != user.ID {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "gallery not found"}
		}
	}

	deviation, err := u.store.CreateDeviation(model.Deviation{
		UserID:      user.ID,
		GalleryID:   request.GalleryID,
		Title:       request.Title,
		Description: request.Description,
		URL:         session.PublicURL,
		Status:      model.DeviationDraft,
	})
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create deviation"}
	}

	if err := redis.DeleteUploadSession(ctx.Request.Context(), request.Token); err != nil {
		log.Error().Err(err).Msg("failed to drop upload session")
	}
	return api.Created(gin.H{"deviation": deviation}), nil
}

// directUpload accepts the file body in a multipart form, for deployments
// without presign-capable storage.
func (u *UploadController) directUpload(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	title := ctx.PostForm("title")
	if title == "" {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "missing required form fields"}
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "missing file"}
	}

	url, err := u.storage.SaveFile(fileHeader, fileHeader.Filename)
	if err != nil {
		log.Error().Err(err).Msg("direct upload failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not store file"}
	}

	deviation, err := u.store.CreateDeviation(model.Deviation{
		UserID: user.ID,
		Title:  title,
		URL:    url,
		Status: model.DeviationDraft,
	})
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create deviation"}
	}
	return api.Created(gin.H{"deviation": deviation}), nil
}
