package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deviflow/deviflow/internal/http/middleware"
	"github.com/deviflow/deviflow/internal/model"
)

// APIError is the flat (status, message) error pair every handler returns;
// the resolver serializes it as {"error": message}.
type APIError struct {
	Code    int
	Message string
}

type HandlerFuncWithAuth func(ctx *gin.Context, user *model.User) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

// statusResponse lets a handler pick a non-200 success status.
type statusResponse struct {
	code int
	body any
}

// Created wraps a body so the resolver replies 201.
func Created(body any) any { return statusResponse{code: http.StatusCreated, body: body} }

// NoContent makes the resolver reply 204 with an empty body.
func NoContent() any { return statusResponse{code: http.StatusNoContent} }

func writeResult(ctx *gin.Context, result any) {
	switch r := result.(type) {
	case statusResponse:
		if r.body == nil {
			ctx.Status(r.code)
			return
		}
		ctx.JSON(r.code, r.body)
	default:
		ctx.JSON(http.StatusOK, result)
	}
}

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := middleware.GetCurrentUser(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		result, apiErr := h(ctx, user)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}

		writeResult(ctx, result)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}

		writeResult(ctx, result)
	}
}
