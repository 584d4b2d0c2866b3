package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hyi96/taskweb/internal/engine"
	"github.com/hyi96/taskweb/internal/ledger"
	"github.com/hyi96/taskweb/internal/models"
	"github.com/hyi96/taskweb/internal/util"
)

// TaskHandler serves task CRUD. Listing and retrieval settle period
// rollovers first, so clients never see a streak or habit counter that a
// crossed period boundary has already invalidated.
type TaskHandler struct {
	DB     *gorm.DB
	Engine *engine.Engine
}

func NewTaskHandler(db *gorm.DB, eng *engine.Engine) *TaskHandler {
	return &TaskHandler{DB: db, Engine: eng}
}

type taskResp struct {
	ID                string  `json:"id"`
	ProfileID         string  `json:"profile_id"`
	Type              string  `json:"task_type"`
	Title             string  `json:"title"`
	Notes             string  `json:"notes"`
	IsHidden          bool    `json:"is_hidden"`
	GoldDelta         string  `json:"gold_delta"`
	CreatedAt         string  `json:"created_at"`
	LastActionAt      *string `json:"last_action_at"`
	TotalActionsCount int     `json:"total_actions_count"`

	Habit  *habitResp  `json:"habit,omitempty"`
	Daily  *dailyResp  `json:"daily,omitempty"`
	Todo   *todoResp   `json:"todo,omitempty"`
	Reward *rewardResp `json:"reward,omitempty"`
}

type habitResp struct {
	CurrentCount   string  `json:"current_count"`
	CountIncrement string  `json:"count_increment"`
	ResetCadence   *string `json:"reset_cadence"`
}

type dailyResp struct {
	RepeatCadence        string  `json:"repeat_cadence"`
	RepeatEvery          int     `json:"repeat_every"`
	CurrentStreak        int     `json:"current_streak"`
	BestStreak           int     `json:"best_streak"`
	StreakGoal           int     `json:"streak_goal"`
	LastCompletionPeriod *string `json:"last_completion_period"`
}

type todoResp struct {
	DueAt       *string `json:"due_at"`
	IsDone      bool    `json:"is_done"`
	CompletedAt *string `json:"completed_at"`
}

type rewardResp struct {
	IsRepeatable bool    `json:"is_repeatable"`
	IsClaimed    bool    `json:"is_claimed"`
	ClaimedAt    *string `json:"claimed_at"`
	ClaimCount   int     `json:"claim_count"`
}

func fmtTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func fmtDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func toTaskResp(t *models.Task) taskResp {
	resp := taskResp{
		ID:                t.ID.String(),
		ProfileID:         t.ProfileID.String(),
		Type:              string(t.Type),
		Title:             t.Title,
		Notes:             t.Notes,
		IsHidden:          t.IsHidden,
		GoldDelta:         t.GoldDelta.StringFixed(2),
		CreatedAt:         t.CreatedAt.Format(time.RFC3339),
		LastActionAt:      fmtTime(t.LastActionAt),
		TotalActionsCount: t.TotalActionsCount,
	}
	switch t.Type {
	case models.TaskHabit:
		var cadence *string
		if t.Habit.ResetCadence != nil {
			s := string(*t.Habit.ResetCadence)
			cadence = &s
		}
		resp.Habit = &habitResp{
			CurrentCount:   t.Habit.CurrentCount.StringFixed(2),
			CountIncrement: t.Habit.CountIncrement.StringFixed(2),
			ResetCadence:   cadence,
		}
	case models.TaskDaily:
		resp.Daily = &dailyResp{
			RepeatCadence:        string(t.Daily.RepeatCadence),
			RepeatEvery:          t.Daily.RepeatEvery,
			CurrentStreak:        t.Daily.CurrentStreak,
			BestStreak:           t.Daily.BestStreak,
			StreakGoal:           t.Daily.StreakGoal,
			LastCompletionPeriod: fmtDate(t.Daily.LastCompletionPeriod),
		}
	case models.TaskTodo:
		resp.Todo = &todoResp{
			DueAt:       fmtTime(t.Todo.DueAt),
			IsDone:      t.Todo.IsDone,
			CompletedAt: fmtTime(t.Todo.CompletedAt),
		}
	case models.TaskReward:
		resp.Reward = &rewardResp{
			IsRepeatable: t.Reward.IsRepeatable,
			IsClaimed:    t.Reward.IsClaimed,
			ClaimedAt:    fmtTime(t.Reward.ClaimedAt),
			ClaimCount:   t.Reward.ClaimCount,
		}
	}
	return resp
}

type taskWriteReq struct {
	Type      string          `json:"task_type" binding:"required"`
	Title     string          `json:"title" binding:"required,max=200"`
	Notes     string          `json:"notes"`
	IsHidden  bool            `json:"is_hidden"`
	GoldDelta decimal.Decimal `json:"gold_delta"`

	CountIncrement *decimal.Decimal `json:"count_increment"`
	ResetCadence   string           `json:"count_reset_cadence"`

	RepeatCadence string `json:"repeat_cadence"`
	RepeatEvery   int    `json:"repeat_every"`
	StreakGoal    int    `json:"streak_goal"`

	DueAt string `json:"due_at"`

	IsRepeatable bool `json:"is_repeatable"`
}

// applyWrite maps a write request onto the variant payload of the task.
// Action-derived state (counts, streaks, claim flags) is never writable
// through CRUD; only the actions and the new-day flow mutate it.
func applyWrite(task *models.Task, req *taskWriteReq) error {
	task.Type = models.TaskType(req.Type)
	task.Title = strings.TrimSpace(req.Title)
	task.Notes = req.Notes
	task.IsHidden = req.IsHidden
	task.GoldDelta = ledger.Cents(req.GoldDelta)

	switch task.Type {
	case models.TaskHabit:
		if task.Habit.CountIncrement.IsZero() {
			task.Habit.CountIncrement = decimal.NewFromInt(1)
		}
		if req.CountIncrement != nil {
			task.Habit.CountIncrement = ledger.Cents(*req.CountIncrement)
		}
		task.Habit.ResetCadence = nil
		if req.ResetCadence != "" {
			cadence := models.Cadence(req.ResetCadence)
			task.Habit.ResetCadence = &cadence
		}
	case models.TaskDaily:
		task.Daily.RepeatCadence = models.Cadence(req.RepeatCadence)
		task.Daily.RepeatEvery = req.RepeatEvery
		if task.Daily.RepeatEvery < 1 {
			task.Daily.RepeatEvery = 1
		}
		task.Daily.StreakGoal = req.StreakGoal
	case models.TaskTodo:
		if req.DueAt != "" {
			due, err := parseTimestamp(req.DueAt)
			if err != nil {
				return errors.New("invalid due_at")
			}
			task.Todo.DueAt = &due
		} else {
			task.Todo.DueAt = nil
		}
	case models.TaskReward:
		task.Reward.IsRepeatable = req.IsRepeatable
	}
	return task.Validate()
}

func (h *TaskHandler) refresh(c *gin.Context, account *models.Account, profile *models.Profile) bool {
	err := h.Engine.RefreshProfilePeriodState(c.Request.Context(), profile.ID, account.ID, time.Now())
	if err != nil {
		engineError(c, err)
		return false
	}
	return true
}

func (h *TaskHandler) List(c *gin.Context) {
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
	if !h.refresh(c, account, profile) {
		return
	}

	q := h.DB.Where("profile_id = ?", profile.ID)
	if taskType := c.Query("task_type"); taskType != "" {
		if !models.TaskType(taskType).IsValid() {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid task_type")
			return
		}
		q = q.Where("task_type = ?", taskType)
	}
	if c.Query("include_hidden") != "true" {
		q = q.Where("is_hidden = ?", false)
	}

	var tasks []models.Task
	if err := q.Order("created_at").Find(&tasks).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "task query failed")
		return
	}

	resp := make([]taskResp, 0, len(tasks))
	for i := range tasks {
		resp = append(resp, toTaskResp(&tasks[i]))
	}
	util.Success(c, util.Response{"tasks": resp})
}

func (h *TaskHandler) Create(c *gin.Context) {
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

	var req taskWriteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	task := models.Task{ProfileID: profile.ID}
	if err := applyWrite(&task, &req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if err := h.DB.Create(&task).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "task creation failed")
		return
	}
	util.Created(c, util.Response{"task": toTaskResp(&task)})
}

// ownedTask loads a task in the profile or writes 404.
func (h *TaskHandler) ownedTask(c *gin.Context, profile *models.Profile, name string) (*models.Task, bool) {
	id, ok := uuidParam(c, name)
	if !ok {
		return nil, false
	}
	var task models.Task
	err := h.DB.Where("id = ? AND profile_id = ?", id, profile.ID).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "task not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "task lookup failed")
		}
		return nil, false
	}
	return &task, true
}

func (h *TaskHandler) Get(c *gin.Context) {
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
	if !h.refresh(c, account, profile) {
		return
	}
	task, ok := h.ownedTask(c, profile, "id")
	if !ok {
		return
	}
	util.Success(c, util.Response{"task": toTaskResp(task)})
}

func (h *TaskHandler) Update(c *gin.Context) {
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
	task, ok := h.ownedTask(c, profile, "id")
	if !ok {
		return
	}

	var req taskWriteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	if req.Type != string(task.Type) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "task_type cannot be changed")
		return
	}
	// Cadence edits do not recompute historical completion periods; the
	// stored last_completion_period stays as imported or last completed.
	if err := applyWrite(task, &req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if err := h.DB.Save(task).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "task update failed")
		return
	}
	util.Success(c, util.Response{"task": toTaskResp(task)})
}

func (h *TaskHandler) Delete(c *gin.Context) {
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
	task, ok := h.ownedTask(c, profile, "id")
	if !ok {
		return
	}
	if err := h.DB.Delete(task).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "task deletion failed")
		return
	}
	util.Success(c, util.Response{"deleted": task.ID.String()})
}
