package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hyi96/taskweb/internal/engine"
	"github.com/hyi96/taskweb/internal/middleware"
	"github.com/hyi96/taskweb/internal/models"
	"github.com/hyi96/taskweb/internal/util"
)

// currentAccount returns the authenticated account or writes a 401.
func currentAccount(c *gin.Context) (*models.Account, bool) {
	account := middleware.CurrentAccount(c)
	if account == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return nil, false
	}
	return account, true
}

// uuidParam parses a uuid path parameter or writes a 400.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// ownedProfile loads a profile owned by the account or writes 404.
func ownedProfile(c *gin.Context, db *gorm.DB, account *models.Account, profileID uuid.UUID) (*models.Profile, bool) {
	var profile models.Profile
	err := db.Where("id = ? AND account_id = ?", profileID, account.ID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "profile not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "profile lookup failed")
		}
		return nil, false
	}
	return &profile, true
}

// profileIDFromQuery reads the required profile_id query parameter.
func profileIDFromQuery(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Query("profile_id")
	if raw == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "profile_id query parameter is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid profile_id")
		return uuid.Nil, false
	}
	return id, true
}

// parseTimestamp parses an optional occurrence timestamp, defaulting to now.
func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("invalid timestamp")
}

// engineError translates the engine's typed errors onto the response
// envelope. Every engine error is user-facing; only unknown failures map to
// a 500.
func engineError(c *gin.Context, err error) {
	var (
		ownership    engine.OwnershipError
		typeMismatch engine.TypeMismatchError
		completed    engine.AlreadyCompletedError
		claimed      engine.AlreadyClaimedError
		funds        engine.InsufficientFundsError
		invalid      engine.InvalidInputError
		integrity    engine.DataIntegrityError
		retryable    engine.RetryableError
	)
	switch {
	case errors.As(err, &ownership):
		util.Error(c, http.StatusForbidden, util.CodeForbidden, ownership.Error())
	case errors.As(err, &typeMismatch):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, typeMismatch.Error())
	case errors.As(err, &completed):
		util.Error(c, http.StatusConflict, util.CodeConflict, completed.Error())
	case errors.As(err, &claimed):
		util.Error(c, http.StatusConflict, util.CodeConflict, claimed.Error())
	case errors.As(err, &funds):
		util.Error(c, http.StatusBadRequest, util.CodeInsufficient, funds.Error())
	case errors.As(err, &invalid):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, invalid.Error())
	case errors.As(err, &integrity):
		util.Error(c, http.StatusConflict, util.CodeConflict, integrity.Error())
	case errors.As(err, &retryable):
		util.Error(c, http.StatusServiceUnavailable, util.CodeRetryable, "temporary conflict, please retry")
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "operation failed")
	}
}
