package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/alimgiray/starscope/internal/repositories"
	"github.com/gin-gonic/gin"
)

// RunsHandler serves the run archive read-only
type RunsHandler struct {
	runRepo *repositories.RunRepository
}

func NewRunsHandler(runRepo *repositories.RunRepository) *RunsHandler {
	return &RunsHandler{runRepo: runRepo}
}

// List returns all archived runs, most recent first
func (h *RunsHandler) List(c *gin.Context) {
	runs, err := h.runRepo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// Get returns one archived run with its per-stargazer scores
func (h *RunsHandler) Get(c *gin.Context) {
	id := c.Param("id")

	run, err := h.runRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}

	scores, err := h.runRepo.GetScores(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scores"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"run": run, "scores": scores})
}
