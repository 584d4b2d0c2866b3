package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hyi96/taskweb/internal/engine"
	"github.com/hyi96/taskweb/internal/models"
	"github.com/hyi96/taskweb/internal/periods"
	"github.com/hyi96/taskweb/internal/util"
)

// ActionHandler exposes the gamified actions. Handlers only parse and
// translate; every rule lives in the engine so the HTTP layer can never
// bypass a guard.
type ActionHandler struct {
	DB     *gorm.DB
	Engine *engine.Engine
}

func NewActionHandler(db *gorm.DB, eng *engine.Engine) *ActionHandler {
	return &ActionHandler{DB: db, Engine: eng}
}

type actionReq struct {
	Timestamp string `json:"timestamp"`
}

// actionContext resolves the common pieces of an action request: the
// authenticated account, the owned profile, the task id, and the optional
// occurrence timestamp.
func (h *ActionHandler) actionContext(c *gin.Context, raw string) (*models.Account, *models.Profile, uuid.UUID, time.Time, bool) {
	account, ok := currentAccount(c)
	if !ok {
		return nil, nil, uuid.Nil, time.Time{}, false
	}
	profileID, ok := profileIDFromQuery(c)
	if !ok {
		return nil, nil, uuid.Nil, time.Time{}, false
	}
	profile, ok := ownedProfile(c, h.DB, account, profileID)
	if !ok {
		return nil, nil, uuid.Nil, time.Time{}, false
	}
	taskID, ok := uuidParam(c, "id")
	if !ok {
		return nil, nil, uuid.Nil, time.Time{}, false
	}
	ts, err := parseTimestamp(raw)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid timestamp")
		return nil, nil, uuid.Nil, time.Time{}, false
	}
	return account, profile, taskID, ts, true
}

func (h *ActionHandler) respondTask(c *gin.Context, profile *models.Profile, task *models.Task, err error) {
	if err != nil {
		engineError(c, err)
		return
	}
	// Re-read the balance the transaction produced; reporting the stale
	// pre-action balance would be worse than failing.
	var fresh models.Profile
	if dbErr := h.DB.First(&fresh, "id = ?", profile.ID).Error; dbErr != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "balance lookup failed")
		return
	}
	util.Success(c, util.Response{
		"task":         toTaskResp(task),
		"gold_balance": fresh.GoldBalance.StringFixed(2),
	})
}

type habitIncrementReq struct {
	actionReq
	By *decimal.Decimal `json:"by"`
}

func (h *ActionHandler) HabitIncrement(c *gin.Context) {
	var req habitIncrementReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	account, profile, taskID, ts, ok := h.actionContext(c, req.Timestamp)
	if !ok {
		return
	}
	task, err := h.Engine.HabitIncrement(c.Request.Context(), taskID, profile.ID, account.ID, req.By, ts)
	h.respondTask(c, profile, task, err)
}

type dailyCompleteReq struct {
	actionReq
	CompletionPeriod string `json:"completion_period"`
}

func (h *ActionHandler) DailyComplete(c *gin.Context) {
	var req dailyCompleteReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	account, profile, taskID, ts, ok := h.actionContext(c, req.Timestamp)
	if !ok {
		return
	}
	var period *time.Time
	if req.CompletionPeriod != "" {
		parsed, err := time.Parse("2006-01-02", req.CompletionPeriod)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid completion_period")
			return
		}
		p := periods.Date(parsed.Date())
		period = &p
	}
	task, err := h.Engine.DailyComplete(c.Request.Context(), taskID, profile.ID, account.ID, ts, period)
	h.respondTask(c, profile, task, err)
}

func (h *ActionHandler) TodoComplete(c *gin.Context) {
	var req actionReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	account, profile, taskID, ts, ok := h.actionContext(c, req.Timestamp)
	if !ok {
		return
	}
	task, err := h.Engine.TodoComplete(c.Request.Context(), taskID, profile.ID, account.ID, ts)
	h.respondTask(c, profile, task, err)
}

func (h *ActionHandler) RewardClaim(c *gin.Context) {
	var req actionReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	account, profile, taskID, ts, ok := h.actionContext(c, req.Timestamp)
	if !ok {
		return
	}
	task, err := h.Engine.RewardClaim(c.Request.Context(), taskID, profile.ID, account.ID, ts)
	h.respondTask(c, profile, task, err)
}

type activityDurationReq struct {
	actionReq
	Title           string  `json:"title" binding:"required"`
	DurationSeconds int64   `json:"duration_seconds" binding:"required"`
	TaskID          *string `json:"task_id"`
	RewardID        *string `json:"reward_id"`
}

// ActivityDuration appends a time-spent audit entry, optionally referencing
// a task or reward in the same profile. No gold moves.
func (h *ActionHandler) ActivityDuration(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}
	profileID, ok := profileIDFromQuery(c)
	if !ok {
		return
	}
	profile, ok := ownedProfile(c, h.DB, account, profileID)
	if !ok {
		return
	}

	var req activityDurationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	ts, err := parseTimestamp(req.Timestamp)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid timestamp")
		return
	}

	var taskID, rewardID *uuid.UUID
	if req.TaskID != nil {
		id, err := uuid.Parse(*req.TaskID)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid task_id")
			return
		}
		taskID = &id
	}
	if req.RewardID != nil {
		id, err := uuid.Parse(*req.RewardID)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid reward_id")
			return
		}
		rewardID = &id
	}

	entry, err := h.Engine.LogActivityDuration(
		c.Request.Context(),
		profile.ID, account.ID,
		time.Duration(req.DurationSeconds)*time.Second,
		req.Title, ts,
		taskID, rewardID,
	)
	if err != nil {
		engineError(c, err)
		return
	}
	util.Created(c, util.Response{"log": toLogResp(entry)})
}
