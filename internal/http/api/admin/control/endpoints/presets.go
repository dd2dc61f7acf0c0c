package endpoints

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/deviflow/deviflow/internal/db"
	"github.com/deviflow/deviflow/internal/http/api"
	"github.com/deviflow/deviflow/internal/http/api/admin/control/packets"
	"github.com/deviflow/deviflow/internal/model"
	"github.com/deviflow/deviflow/internal/sales"
)

type PricePresetController struct {
	store db.Store
}

func NewPricePresetController(store db.Store) *PricePresetController {
	return &PricePresetController{store: store}
}

func PricePresetModule(store db.Store) api.Module {
	ctl := NewPricePresetController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/price-presets", ctl.listPresets)
		c.POST("/price-presets", ctl.createPreset)
		c.PATCH("/price-presets/:id", ctl.updatePreset)
		c.DELETE("/price-presets/:id", ctl.deletePreset)
	})
}

func (p *PricePresetController) listPresets(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	list, err := p.store.ListPricePresets(user.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list price presets"}
	}
	return gin.H{"price_presets": list}, nil
}

func (p *PricePresetController) createPreset(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreatePricePresetRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := sales.ValidatePreset(sales.Preset{
		PricingMode: request.PricingMode,
		Price:       request.Price,
		MinPrice:    request.MinPrice,
		MaxPrice:    request.MaxPrice,
	}); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	preset, err := p.store.CreatePricePreset(model.PricePreset{
		UserID:      user.ID,
		Name:        request.Name,
		Currency:    request.Currency,
		Description: request.Description,
		IsDefault:   request.IsDefault,
		PricingMode: request.PricingMode,
		Price:       request.Price,
		MinPrice:    request.MinPrice,
		MaxPrice:    request.MaxPrice,
	})
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create price preset"}
	}
	return api.Created(gin.H{"price_preset": preset}), nil
}

func (p *PricePresetController) ownedPreset(ctx *gin.Context, user *model.User) (model.PricePreset, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return model.PricePreset{}, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	preset, err := p.store.GetPricePresetByID(id)
	if err != nil || preset.UserID != user.ID {
		return model.PricePreset{}, &api.APIError{Code: http.StatusNotFound, Message: "price preset not found"}
	}
	return preset, nil
}

func (p *PricePresetController) updatePreset(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	existing, apiErr := p.ownedPreset(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdatePricePresetRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	// Pricing is a variant: a request touching any pricing field must
	// carry the complete new variant; a request touching none keeps the
	// stored pricing untouched.
	mode := existing.PricingMode
	price, minPrice, maxPrice := existing.Price, existing.MinPrice, existing.MaxPrice
	if request.PricingMode != nil || request.Price != nil || request.MinPrice != nil || request.MaxPrice != nil {
		if request.PricingMode != nil {
			mode = *request.PricingMode
		}
		price, minPrice, maxPrice = request.Price, request.MinPrice, request.MaxPrice
	}
	if err := sales.ValidatePreset(sales.Preset{
		PricingMode: mode,
		Price:       price,
		MinPrice:    minPrice,
		MaxPrice:    maxPrice,
	}); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	preset, err := p.store.UpdatePricePreset(existing.ID, db.PricePresetUpdate{
		Name:        request.Name,
		Currency:    request.Currency,
		Description: request.Description,
		IsDefault:   request.IsDefault,
		SortOrder:   request.SortOrder,
		PricingMode: &mode,
		Price:       price,
		MinPrice:    minPrice,
		MaxPrice:    maxPrice,
	})
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update price preset"}
	}
	return gin.H{"price_preset": preset}, nil
}

func (p *PricePresetController) deletePreset(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	preset, apiErr := p.ownedPreset(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	switch err := p.store.DeletePricePresetGuarded(preset.ID); err {
	case nil:
		return api.NoContent(), nil
	case db.ErrPresetInUse:
		return nil, &api.APIError{Code: http.StatusConflict, Message: "Cannot delete a price preset referenced by queued sale items"}
	case sql.ErrNoRows:
		// raced with another delete between the ownership check and here
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "price preset not found"}
	default:
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete price preset"}
	}
}
