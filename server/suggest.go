package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/peergram/go-suggest/service/persist"
	"github.com/peergram/go-suggest/service/recommend"
	"github.com/peergram/go-suggest/util"
)

type suggestionView struct {
	ID            persist.DBID       `json:"id"`
	Score         float64            `json:"score"`
	Reasons       []string           `json:"reasons"`
	Signals       []recommend.Signal `json:"signals"`
	PrimarySignal recommend.Signal   `json:"primary_signal"`
	Metadata      map[string]any     `json:"metadata,omitempty"`
}

type suggestionsResponse struct {
	UserID      persist.DBID     `json:"user_id"`
	Suggestions []suggestionView `json:"suggestions"`
}

type suggestionEventInput struct {
	UserID      persist.DBID          `json:"user_id" binding:"required"`
	CandidateID persist.DBID          `json:"candidate_id" binding:"required"`
	Action      recommend.EventAction `json:"action" binding:"required,oneof=viewed followed dismissed"`
	Signal      recommend.Signal      `json:"signal" binding:"omitempty,oneof=location mutual activity popular"`
}

func getSuggestions(engine *recommend.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := persist.DBID(c.Param("user_id"))

		opts := recommend.SuggestionOptions{}

		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
				return
			}
			opts.Limit = limit
		}

		if raw := c.Query("signals"); raw != "" {
			for _, s := range strings.Split(raw, ",") {
				opts.Signals = append(opts.Signals, recommend.Signal(strings.TrimSpace(s)))
			}
		}

		if latRaw, lngRaw := c.Query("lat"), c.Query("lng"); latRaw != "" && lngRaw != "" {
			lat, latErr := strconv.ParseFloat(latRaw, 64)
			lng, lngErr := strconv.ParseFloat(lngRaw, 64)
			if latErr != nil || lngErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be floats"})
				return
			}
			opts.Location = util.ToPointer(persist.LatLong{Latitude: lat, Longitude: lng})
		}

		suggestions := engine.GetSuggestions(c.Request.Context(), userID, opts)

		c.JSON(http.StatusOK, suggestionsResponse{
			UserID: userID,
			Suggestions: util.MapWithoutError(suggestions, func(s recommend.Candidate) suggestionView {
				return suggestionView{
					ID:            s.ID,
					Score:         s.Score,
					Reasons:       s.Reasons,
					Signals:       s.Signals,
					PrimarySignal: s.PrimarySignal(),
					Metadata:      s.Metadata,
				}
			}),
		})
	}
}

func invalidateSuggestions(engine *recommend.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		engine.Invalidate(c.Request.Context(), persist.DBID(c.Param("user_id")))
		c.Status(http.StatusNoContent)
	}
}

func invalidateAllSuggestions(engine *recommend.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		engine.InvalidateAll(c.Request.Context())
		c.Status(http.StatusNoContent)
	}
}

func recordSuggestionEvent(engine *recommend.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input suggestionEventInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		engine.RecordEvent(input.UserID, input.CandidateID, input.Action, input.Signal)
		c.Status(http.StatusAccepted)
	}
}

func healthCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
