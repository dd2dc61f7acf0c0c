package endpoints

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/db"
	"github.com/deviflow/deviflow/internal/http/api"
	"github.com/deviflow/deviflow/internal/http/api/admin/auth/packets"
	"github.com/deviflow/deviflow/internal/http/middleware"
	"github.com/deviflow/deviflow/internal/model"
)

type AuthController struct {
	store  db.Store
	secret string
}

func NewAuthController(store db.Store, secret string) *AuthController {
	return &AuthController{store: store, secret: secret}
}

// SessionModule exposes the public signup/login endpoints.
func SessionModule(store db.Store, secret string) api.Module {
	ctl := NewAuthController(store, secret)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/auth/signup", ctl.signup)
		c.PUBLIC_POST("/auth/login", ctl.login)
	})
}

// ProfileModule exposes the authenticated profile and API key endpoints.
func ProfileModule(store db.Store) api.Module {
	ctl := NewAuthController(store, "")
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/auth/current_profile", ctl.getProfile)
		c.PUT("/auth/current_profile", ctl.updateProfile)
		c.POST("/auth/api-key", ctl.mintAPIKey)
	})
}

func (a *AuthController) signup(ctx *gin.Context) (any, *api.APIError) {
	var request packets.SignupRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if existing, err := a.store.GetUserByEmail(request.Email); err == nil && existing != nil {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "email already registered"}
	}

	hashed, err := middleware.HashPassword(request.Password)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not hash password"}
	}

	id, err := a.store.CreateUser(request.Email, hashed, request.Name)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create user"}
	}

	token, err := middleware.GenerateJWT(id, a.secret)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not issue token"}
	}
	return api.Created(packets.TokenResponse{Token: token}), nil
}

func (a *AuthController) login(ctx *gin.Context) (any, *api.APIError) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	user, err := a.store.GetUserByEmail(request.Email)
	if err != nil || !middleware.CheckPassword(user.HashedPassword, request.Password) {
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: middleware.ErrInvalidCredentials.Error()}
	}

	token, err := middleware.GenerateJWT(user.ID, a.secret)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not issue token"}
	}
	return packets.TokenResponse{Token: token}, nil
}

func profileOf(user *model.User) packets.ProfileResponse {
	return packets.ProfileResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		HasAPIKey: user.APIKey != nil,
	}
}

func (a *AuthController) getProfile(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	return profileOf(user), nil
}

func (a *AuthController) updateProfile(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	email := user.Email
	if request.Email != nil {
		email = *request.Email
	}
	name := user.Name
	if request.Name != nil {
		name = request.Name
	}

	if err := a.store.UpdateUserProfile(user.ID, email, name); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update profile"}
	}
	updated, err := a.store.GetUserByID(user.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load profile"}
	}
	return profileOf(updated), nil
}

// mintAPIKey issues (or rotates) the ingest API key. The key is returned
// once; only its presence is reported afterwards.
func (a *AuthController) mintAPIKey(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not generate key"}
	}
	key := hex.EncodeToString(buf)

	if err := a.store.SetUserAPIKey(user.ID, key); err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("mintAPIKey failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not save key"}
	}
	return api.Created(packets.APIKeyResponse{APIKey: key}), nil
}
