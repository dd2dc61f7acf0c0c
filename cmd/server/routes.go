package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/deviflow/deviflow/internal/db"
	"github.com/deviflow/deviflow/internal/http/api"
	authapi "github.com/deviflow/deviflow/internal/http/api/admin/auth/endpoints"
	adminapi "github.com/deviflow/deviflow/internal/http/api/admin/control/endpoints"
	ingestapi "github.com/deviflow/deviflow/internal/http/api/ingest/endpoints"
	"github.com/deviflow/deviflow/internal/http/middleware"
	"github.com/deviflow/deviflow/internal/storage"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, env Environment, store db.Store, storageSystem storage.Storage) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"X-Api-Key",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Auth:   false,
	},
		authapi.SessionModule(store, env.SecretKey),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: env.SecretKey,
		Store:     store,
	},
		// control modules
		adminapi.DeviationModule(store, storageSystem),
		adminapi.GalleryModule(store),
		adminapi.AutomationModule(store),
		adminapi.ScheduleRuleModule(store),
		adminapi.SaleQueueModule(store),
		adminapi.PricePresetModule(store),
		adminapi.UploadModule(store, storageSystem),
		// session endpoints that require auth
		authapi.ProfileModule(store),
	)

	// machine clients authenticate with an API key instead of a JWT
	api.MountGroup(r, api.GroupConfig{
		Prefix:     "/api/ingest",
		Middleware: []gin.HandlerFunc{middleware.APIKeyMiddleware(store)},
	},
		ingestapi.IngestModule(store, storageSystem),
	)

	// Static content
	if !env.UseSpaces {
		r.Static("/uploads", "./uploads")
	}
}
