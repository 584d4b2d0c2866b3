package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hyi96/taskweb/internal/models"
	"github.com/hyi96/taskweb/internal/util"
)

// ProfileHandler serves profile CRUD. Profiles are the unit of ownership
// and consistency: every task, log and balance hangs off exactly one.
type ProfileHandler struct {
	DB *gorm.DB
}

func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{DB: db}
}

type profileResp struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	GoldBalance string `json:"gold_balance"`
	CreatedAt   string `json:"created_at"`
}

func toProfileResp(p *models.Profile) profileResp {
	return profileResp{
		ID:          p.ID.String(),
		Name:        p.Name,
		GoldBalance: p.GoldBalance.StringFixed(2),
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *ProfileHandler) List(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	var profiles []models.Profile
	if err := h.DB.Where("account_id = ?", account.ID).
		Order("created_at").
		Find(&profiles).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "profile query failed")
		return
	}

	resp := make([]profileResp, 0, len(profiles))
	for i := range profiles {
		resp = append(resp, toProfileResp(&profiles[i]))
	}
	util.Success(c, util.Response{"profiles": resp})
}

type createProfileReq struct {
	Name string `json:"name" binding:"required,max=80"`
}

func (h *ProfileHandler) Create(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	var req createProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	profile := models.Profile{AccountID: account.ID, Name: req.Name}
	if err := profile.Validate(); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	var count int64
	h.DB.Model(&models.Profile{}).
		Where("account_id = ? AND name = ?", account.ID, req.Name).
		Count(&count)
	if count > 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "a profile with that name already exists")
		return
	}

	if err := h.DB.Create(&profile).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "profile creation failed")
		return
	}
	util.Created(c, util.Response{"profile": toProfileResp(&profile)})
}

func (h *ProfileHandler) Get(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	profile, ok := ownedProfile(c, h.DB, account, id)
	if !ok {
		return
	}
	util.Success(c, util.Response{"profile": toProfileResp(profile)})
}

type updateProfileReq struct {
	Name string `json:"name" binding:"required,max=80"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	profile, ok := ownedProfile(c, h.DB, account, id)
	if !ok {
		return
	}

	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	profile.Name = strings.TrimSpace(req.Name)
	if err := profile.Validate(); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if err := h.DB.Model(profile).Update("name", profile.Name).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "profile update failed")
		return
	}
	util.Success(c, util.Response{"profile": toProfileResp(profile)})
}

func (h *ProfileHandler) Delete(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	profile, ok := ownedProfile(c, h.DB, account, id)
	if !ok {
		return
	}

	if err := h.DB.Delete(profile).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "profile deletion failed")
		return
	}
	util.Success(c, util.Response{"deleted": profile.ID.String()})
}
