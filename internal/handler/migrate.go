package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hyi96/taskweb/internal/migration"
	"github.com/hyi96/taskweb/internal/util"
)

// MigrateHandler imports a payload exported by the local desktop app into
// one of the caller's profiles.
type MigrateHandler struct {
	DB      *gorm.DB
	Service *migration.Service
}

func NewMigrateHandler(db *gorm.DB) *MigrateHandler {
	return &MigrateHandler{DB: db, Service: migration.New(db)}
}

func (h *MigrateHandler) MigrateLocal(c *gin.Context) {
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

	var payload migration.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid migration payload")
		return
	}

	result, err := h.Service.Migrate(c.Request.Context(), profile.ID, account.ID, &payload)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "migration failed")
		return
	}
	util.Success(c, util.Response{"result": result})
}
