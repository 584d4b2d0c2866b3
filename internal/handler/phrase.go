package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hyi96/taskweb/internal/periods"
	"github.com/hyi96/taskweb/internal/phrase"
	"github.com/hyi96/taskweb/internal/util"
)

// PhraseHandler serves the public phrase of the day.
type PhraseHandler struct {
	DB  *gorm.DB
	Loc *time.Location
}

func NewPhraseHandler(db *gorm.DB, loc *time.Location) *PhraseHandler {
	if loc == nil {
		loc = time.Local
	}
	return &PhraseHandler{DB: db, Loc: loc}
}

func (h *PhraseHandler) Today(c *gin.Context) {
	today := periods.DateOf(time.Now(), h.Loc)
	p, err := phrase.DailyPhrase(h.DB, today)
	if err != nil {
		// Fall back silently; the phrase is decoration, not data.
		p = phrase.Fallback
	}
	util.Success(c, util.Response{"phrase": p})
}
