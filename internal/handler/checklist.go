package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hyi96/taskweb/internal/models"
	"github.com/hyi96/taskweb/internal/util"
)

// ChecklistHandler manages the sub-items nested under a todo task.
// Checklist state never moves gold.
type ChecklistHandler struct {
	DB *gorm.DB
}

func NewChecklistHandler(db *gorm.DB) *ChecklistHandler {
	return &ChecklistHandler{DB: db}
}

type checklistResp struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	IsCompleted bool   `json:"is_completed"`
	SortOrder   int    `json:"sort_order"`
}

func toChecklistResp(item *models.ChecklistItem) checklistResp {
	return checklistResp{
		ID:          item.ID.String(),
		Text:        item.Text,
		IsCompleted: item.IsCompleted,
		SortOrder:   item.SortOrder,
	}
}

// ownedTodo resolves the :id path parameter to a todo task in the caller's
// profile.
func (h *ChecklistHandler) ownedTodo(c *gin.Context) (*models.Task, bool) {
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
	if task.Type != models.TaskTodo {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "checklists apply to todo tasks only")
		return nil, false
	}
	return &task, true
}

func (h *ChecklistHandler) List(c *gin.Context) {
	task, ok := h.ownedTodo(c)
	if !ok {
		return
	}

	var items []models.ChecklistItem
	if err := h.DB.Where("task_id = ?", task.ID).
		Order("sort_order, created_at").
		Find(&items).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "checklist query failed")
		return
	}

	resp := make([]checklistResp, 0, len(items))
	for i := range items {
		resp = append(resp, toChecklistResp(&items[i]))
	}
	util.Success(c, util.Response{"checklist": resp})
}

type checklistCreateReq struct {
	Text      string `json:"text" binding:"required"`
	SortOrder int    `json:"sort_order"`
}

func (h *ChecklistHandler) Create(c *gin.Context) {
	task, ok := h.ownedTodo(c)
	if !ok {
		return
	}

	var req checklistCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	item := models.ChecklistItem{
		TaskID:    task.ID,
		Text:      strings.TrimSpace(req.Text),
		SortOrder: req.SortOrder,
	}
	if err := item.Validate(); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if err := h.DB.Create(&item).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "checklist creation failed")
		return
	}
	util.Created(c, util.Response{"item": toChecklistResp(&item)})
}

type checklistUpdateReq struct {
	Text        *string `json:"text"`
	IsCompleted *bool   `json:"is_completed"`
	SortOrder   *int    `json:"sort_order"`
}

func (h *ChecklistHandler) Update(c *gin.Context) {
	task, ok := h.ownedTodo(c)
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "itemID")
	if !ok {
		return
	}

	var item models.ChecklistItem
	err := h.DB.Where("id = ? AND task_id = ?", itemID, task.ID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "checklist item not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "checklist lookup failed")
		}
		return
	}

	var req checklistUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	if req.Text != nil {
		item.Text = strings.TrimSpace(*req.Text)
	}
	if req.IsCompleted != nil {
		item.IsCompleted = *req.IsCompleted
	}
	if req.SortOrder != nil {
		item.SortOrder = *req.SortOrder
	}
	if err := item.Validate(); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if err := h.DB.Save(&item).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "checklist update failed")
		return
	}
	util.Success(c, util.Response{"item": toChecklistResp(&item)})
}

func (h *ChecklistHandler) Delete(c *gin.Context) {
	task, ok := h.ownedTodo(c)
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "itemID")
	if !ok {
		return
	}

	res := h.DB.Where("id = ? AND task_id = ?", itemID, task.ID).Delete(&models.ChecklistItem{})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "checklist deletion failed")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "checklist item not found")
		return
	}
	util.Success(c, util.Response{"deleted": itemID.String()})
}
