package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/hyi96/taskweb/internal/models"
	"github.com/hyi96/taskweb/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Auth verifies the bearer JWT and stores the authenticated account in the
// gin context under "currentAccount".
func Auth(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		// Header: Authorization: Bearer xxx
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = parts[1]
			}
		}

		// Query parameter ?token=xxx, for download links that cannot set
		// custom headers.
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}

		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
			c.Abort()
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil || claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "session expired, please log in again")
			c.Abort()
			return
		}

		var account models.Account
		if err := db.First(&account, claims.AccountID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "account not found")
			} else {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "account lookup failed")
			}
			c.Abort()
			return
		}

		c.Set("currentAccount", &account)
		c.Next()
	}
}

// CurrentAccount pulls the authenticated account out of the gin context.
func CurrentAccount(c *gin.Context) *models.Account {
	v, ok := c.Get("currentAccount")
	if !ok {
		return nil
	}
	account, ok := v.(*models.Account)
	if !ok {
		return nil
	}
	return account
}
