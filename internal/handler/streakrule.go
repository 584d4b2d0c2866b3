package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hyi96/taskweb/internal/engine"
	"github.com/hyi96/taskweb/internal/models"
	"github.com/hyi96/taskweb/internal/util"
)

// StreakRuleHandler manages the bonus rules nested under a daily task.
type StreakRuleHandler struct {
	DB     *gorm.DB
	Engine *engine.Engine
}

func NewStreakRuleHandler(db *gorm.DB, eng *engine.Engine) *StreakRuleHandler {
	return &StreakRuleHandler{DB: db, Engine: eng}
}

type streakRuleResp struct {
	ID           string `json:"id"`
	TaskID       string `json:"task_id"`
	StreakGoal   int    `json:"streak_goal"`
	BonusPercent string `json:"bonus_percent"`
}

func toStreakRuleResp(r *models.StreakBonusRule) streakRuleResp {
	return streakRuleResp{
		ID:           r.ID.String(),
		TaskID:       r.TaskID.String(),
		StreakGoal:   r.StreakGoal,
		BonusPercent: r.BonusPercent.StringFixed(2),
	}
}

// ownedDaily resolves the :id path parameter to a daily task in the
// caller's profile.
func (h *StreakRuleHandler) ownedDaily(c *gin.Context) (*models.Task, bool) {
	account, ok := currentAccount(c)
	if !ok {
		return nil, false
	}
	profileID, ok := profileIDFromQuery(c)
	if !ok {
		return nil, false
	}
	profile, ok := ownedProfile(c, h.DB, account, profileID)
	if !ok {
		return nil, false
	}
	taskID, ok := uuidParam(c, "id")
	if !ok {
		return nil, false
	}

	var task models.Task
	err := h.DB.Where("id = ? AND profile_id = ?", taskID, profile.ID).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "task not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "task lookup failed")
		}
		return nil, false
	}
	if task.Type != models.TaskDaily {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "streak bonus rules apply to daily tasks only")
		return nil, false
	}
	return &task, true
}

func (h *StreakRuleHandler) List(c *gin.Context) {
	task, ok := h.ownedDaily(c)
	if !ok {
		return
	}

	var rules []models.StreakBonusRule
	if err := h.DB.Where("task_id = ?", task.ID).Order("streak_goal").Find(&rules).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "rule query failed")
		return
	}

	resp := make([]streakRuleResp, 0, len(rules))
	for i := range rules {
		resp = append(resp, toStreakRuleResp(&rules[i]))
	}
	util.Success(c, util.Response{"streak_rules": resp})
}

type streakRuleReq struct {
	StreakGoal   int             `json:"streak_goal" binding:"required"`
	BonusPercent decimal.Decimal `json:"bonus_percent"`
}

func (h *StreakRuleHandler) Create(c *gin.Context) {
	task, ok := h.ownedDaily(c)
	if !ok {
		return
	}

	var req streakRuleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	rule := models.StreakBonusRule{
		TaskID:       task.ID,
		StreakGoal:   req.StreakGoal,
		BonusPercent: req.BonusPercent,
	}
	if err := rule.Validate(); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	var count int64
	h.DB.Model(&models.StreakBonusRule{}).
		Where("task_id = ? AND streak_goal = ?", task.ID, req.StreakGoal).
		Count(&count)
	if count > 0 {
		util.Error(c, http.StatusConflict, util.CodeConflict, "a rule for that streak goal already exists")
		return
	}

	if err := h.DB.Create(&rule).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "rule creation failed")
		return
	}
	util.Created(c, util.Response{"streak_rule": toStreakRuleResp(&rule)})
}

func (h *StreakRuleHandler) Delete(c *gin.Context) {
	task, ok := h.ownedDaily(c)
	if !ok {
		return
	}
	ruleID, ok := uuidParam(c, "ruleID")
	if !ok {
		return
	}

	res := h.DB.Where("id = ? AND task_id = ?", ruleID, task.ID).Delete(&models.StreakBonusRule{})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "rule deletion failed")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "rule not found")
		return
	}
	util.Success(c, util.Response{"deleted": ruleID.String()})
}
