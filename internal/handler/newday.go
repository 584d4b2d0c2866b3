package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hyi96/taskweb/internal/engine"
	"github.com/hyi96/taskweb/internal/util"
)

// NewDayHandler serves the new-day flow: preview which dailies missed the
// previous period, then backfill the ones the user checks off.
type NewDayHandler struct {
	DB     *gorm.DB
	Engine *engine.Engine
}

func NewNewDayHandler(db *gorm.DB, eng *engine.Engine) *NewDayHandler {
	return &NewDayHandler{DB: db, Engine: eng}
}

// Preview lists the dailies that were not completed for the previous period.
func (h *NewDayHandler) Preview(c *gin.Context) {
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

	items, err := h.Engine.UncompletedDailiesFromPreviousPeriod(c.Request.Context(), profile.ID, account.ID, time.Now())
	if err != nil {
		engineError(c, err)
		return
	}

	out := make([]gin.H, 0, len(items))
	for _, item := range items {
		out = append(out, gin.H{
			"id":                     item.ID.String(),
			"title":                  item.Title,
			"previous_period_start":  item.PreviousPeriodStart.Format("2006-01-02"),
			"last_completion_period": fmtDate(item.LastCompletionPeriod),
		})
	}
	util.Success(c, util.Response{"uncompleted_dailies": out})
}

type startNewDayReq struct {
	CheckedDailyIDs []string `json:"checked_daily_ids"`
}

// Start backfills the checked dailies for the previous period and settles
// remaining rollovers.
func (h *NewDayHandler) Start(c *gin.Context) {
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

	var req startNewDayReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	ids := make([]uuid.UUID, 0, len(req.CheckedDailyIDs))
	for _, raw := range req.CheckedDailyIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid checked_daily_ids entry")
			return
		}
		ids = append(ids, id)
	}

	updated, err := h.Engine.StartNewDay(c.Request.Context(), profile.ID, account.ID, ids, time.Now())
	if err != nil {
		engineError(c, err)
		return
	}
	util.Success(c, util.Response{"updated": updated})
}
