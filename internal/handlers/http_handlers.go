package handlers

import (
	"encoding/csv"
	"errors"
	"net/http"
	"sort"

	"tombola/internal/models"
	"tombola/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

// HTTPHandler holds the dependencies for the HTTP handlers, like the lottery service.
type HTTPHandler struct {
	service *services.LotteryService
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.LotteryService) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/healthz", h.Health)
	router.GET("/games", h.ListGames)

	game := router.Group("/games/:game")
	game.GET("/players", h.ListPlayers)
	game.GET("/lottery", h.ShowLottery)
	game.POST("/draw", h.PerformDraw)
	game.GET("/dump", h.Dump)
	game.GET("/history", h.ShowHistory)
	game.GET("/export.csv", h.ExportLotteryCSV)
	game.DELETE("/session", h.ClearSession)
}

// respondError maps service errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrGameNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrNoSuitableCandidate):
		status = http.StatusConflict
	case errors.Is(err, models.ErrDuplicateIdentifier),
		errors.Is(err, models.ErrInvalidRecord),
		errors.Is(err, models.ErrUnknownPlayer):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Health reports that the server is up.
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListGames lists the games found in the games directory.
func (h *HTTPHandler) ListGames(c *gin.Context) {
	games, err := h.service.Games()
	if err != nil {
		respondError(c, err)
		return
	}
	if games == nil {
		games = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

// ListPlayers returns the participating players and the contact warnings.
func (h *HTTPHandler) ListPlayers(c *gin.Context) {
	players, warnings, err := h.service.Players(c.Param("game"))
	if err != nil {
		respondError(c, err)
		return
	}

	messages := make([]string, 0, len(warnings))
	for _, w := range warnings {
		messages = append(messages, w.Error())
	}
	c.JSON(http.StatusOK, gin.H{"players": players, "warnings": messages})
}

// ShowLottery returns the current lottery.
func (h *HTTPHandler) ShowLottery(c *gin.Context) {
	lottery, err := h.service.Lottery(c.Param("game"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lottery": lottery})
}

// PerformDraw completes the lottery of the game.
func (h *HTTPHandler) PerformDraw(c *gin.Context) {
	lottery, err := h.service.Draw(c.Request.Context(), c.Param("game"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lottery": lottery})
}

// Dump returns every player with the display name of their target.
func (h *HTTPHandler) Dump(c *gin.Context) {
	summaries, err := h.service.Dump(c.Param("game"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": summaries})
}

// ShowHistory returns the recorded draws of the game.
func (h *HTTPHandler) ShowHistory(c *gin.Context) {
	runs, err := h.service.History(c.Request.Context(), c.Param("game"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// ClearSession drops the cached game so it is reloaded from disk.
func (h *HTTPHandler) ClearSession(c *gin.Context) {
	h.service.ClearSession(c.Param("game"))
	c.Status(http.StatusNoContent)
}

// ExportLotteryCSV handles the request to download the lottery as a CSV file.
func (h *HTTPHandler) ExportLotteryCSV(c *gin.Context) {
	summaries, err := h.service.Dump(c.Param("game"))
	if err != nil {
		respondError(c, err)
		return
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].DisplayName < summaries[j].DisplayName
	})

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment;filename=lottery.csv")

	// Add BOM to ensure UTF-8 compatibility in Excel
	c.Writer.Write([]byte("\xef\xbb\xbf"))

	w := csv.NewWriter(c.Writer)

	if err := w.Write([]string{"giver", "target"}); err != nil {
		logger.Infof("Error writing CSV header: %v", err)
		c.String(http.StatusInternalServerError, "Error writing CSV")
		return
	}

	for _, s := range summaries {
		if s.Target == "" {
			continue
		}
		if err := w.Write([]string{s.DisplayName, s.Target}); err != nil {
			logger.Infof("Error writing CSV row: %v", err)
			c.String(http.StatusInternalServerError, "Error writing CSV")
			return
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		logger.Infof("Error flushing CSV writer: %v", err)
		c.String(http.StatusInternalServerError, "Error writing CSV")
	}
}
