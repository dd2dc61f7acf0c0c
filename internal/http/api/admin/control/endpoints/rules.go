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
	"github.com/deviflow/deviflow/internal/rules"
)

type ScheduleRuleController struct {
	store db.Store
}

func NewScheduleRuleController(store db.Store) *ScheduleRuleController {
	return &ScheduleRuleController{store: store}
}

func ScheduleRuleModule(store db.Store) api.Module {
	ctl := NewScheduleRuleController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/automation-schedule-rules", ctl.listRules)
		c.POST("/automation-schedule-rules", ctl.createRule)
		c.PATCH("/automation-schedule-rules/:id", ctl.updateRule)
		c.DELETE("/automation-schedule-rules/:id", ctl.deleteRule)
	})
}

func ruleResponse(r model.AutomationScheduleRule) packets.ScheduleRuleResponse {
	resp := packets.ScheduleRuleResponse{
		ID:                    r.ID,
		AutomationID:          r.AutomationID,
		Type:                  r.Type,
		TimeOfDay:             r.TimeOfDay,
		DaysOfWeek:            r.DaysOfWeek,
		IntervalMinutes:       r.IntervalMinutes,
		DeviationsPerInterval: r.DeviationsPerInterval,
		DailyQuota:            r.DailyQuota,
		Priority:              r.Priority,
		Enabled:               r.Enabled,
		CreatedAt:             r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             r.UpdatedAt.Format(time.RFC3339),
	}
	if r.LastRunAt != nil {
		s := r.LastRunAt.Format(time.RFC3339)
		resp.LastRunAt = &s
	}
	return resp
}

// ownedAutomation resolves an automation and hides cross-user rows behind
// the same 404 as missing ones.
func (s *ScheduleRuleController) ownedAutomation(automationID int, user *model.User) (model.Automation, *api.APIError) {
	automation, err := s.store.GetAutomationByID(automationID)
	if err != nil || automation.UserID != user.ID {
		return model.Automation{}, &api.APIError{Code: http.StatusNotFound, Message: "automation not found"}
	}
	return automation, nil
}

func (s *ScheduleRuleController) listRules(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	automationID, err := strconv.Atoi(ctx.Query("automation_id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid automation_id"}
	}

	if _, apiErr := s.ownedAutomation(automationID, user); apiErr != nil {
		return nil, apiErr
	}

	list, err := s.store.ListScheduleRules(automationID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list rules"}
	}

	response := make([]packets.ScheduleRuleResponse, 0, len(list))
	for _, r := range list {
		response = append(response, ruleResponse(r))
	}
	return gin.H{"rules": response}, nil
}

func (s *ScheduleRuleController) createRule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateScheduleRuleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if _, apiErr := s.ownedAutomation(request.AutomationID, user); apiErr != nil {
		return nil, apiErr
	}

	payload := rules.Payload{
		TimeOfDay:             request.TimeOfDay,
		DaysOfWeek:            request.DaysOfWeek,
		IntervalMinutes:       request.IntervalMinutes,
		DeviationsPerInterval: request.DeviationsPerInterval,
		DailyQuota:            request.DailyQuota,
	}
	if err := rules.ValidateCreate(request.Type, payload); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	rule := model.AutomationScheduleRule{
		AutomationID:          request.AutomationID,
		Type:                  request.Type,
		TimeOfDay:             request.TimeOfDay,
		DaysOfWeek:            request.DaysOfWeek,
		IntervalMinutes:       request.IntervalMinutes,
		DeviationsPerInterval: request.DeviationsPerInterval,
		DailyQuota:            request.DailyQuota,
		Enabled:               true,
	}
	if request.Priority != nil {
		rule.Priority = *request.Priority
	}
	if request.Enabled != nil {
		rule.Enabled = *request.Enabled
	}

	created, err := s.store.CreateScheduleRule(rule)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create rule"}
	}
	return api.Created(gin.H{"rule": ruleResponse(created)}), nil
}

// ownedRule fetches a rule and checks ownership through its parent
// automation; missing and cross-user collapse into the same 404.
func (s *ScheduleRuleController) ownedRule(ctx *gin.Context, user *model.User) (model.AutomationScheduleRule, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return model.AutomationScheduleRule{}, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	rule, err := s.store.GetScheduleRuleByID(id)
	if err != nil {
		return model.AutomationScheduleRule{}, &api.APIError{Code: http.StatusNotFound, Message: "rule not found"}
	}
	automation, err := s.store.GetAutomationByID(rule.AutomationID)
	if err != nil || automation.UserID != user.ID {
		return model.AutomationScheduleRule{}, &api.APIError{Code: http.StatusNotFound, Message: "rule not found"}
	}
	return rule, nil
}

func (s *ScheduleRuleController) updateRule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	rule, apiErr := s.ownedRule(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdateScheduleRuleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	payload := rules.Payload{
		TimeOfDay:             request.TimeOfDay,
		DaysOfWeek:            request.DaysOfWeek,
		IntervalMinutes:       request.IntervalMinutes,
		DeviationsPerInterval: request.DeviationsPerInterval,
		DailyQuota:            request.DailyQuota,
	}
	if err := rules.ValidateUpdate(rule.Type, payload); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	updated, err := s.store.UpdateScheduleRule(rule.ID, db.ScheduleRuleUpdate{
		TimeOfDay:             request.TimeOfDay,
		DaysOfWeek:            request.DaysOfWeek,
		IntervalMinutes:       request.IntervalMinutes,
		DeviationsPerInterval: request.DeviationsPerInterval,
		DailyQuota:            request.DailyQuota,
		Priority:              request.Priority,
		Enabled:               request.Enabled,
	})
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update rule"}
	}
	return gin.H{"rule": ruleResponse(updated)}, nil
}

func (s *ScheduleRuleController) deleteRule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	rule, apiErr := s.ownedRule(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := s.store.DeleteScheduleRuleGuarded(rule.ID); err != nil {
		if err == db.ErrLastEnabledRule {
			return nil, &api.APIError{Code: http.StatusConflict, Message: "Cannot delete the last enabled rule while automation is enabled"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete rule"}
	}
	return api.NoContent(), nil
}
