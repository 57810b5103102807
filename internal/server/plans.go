package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type planRequest struct {
	Name      string     `json:"name" binding:"required"`
	Price     float64    `json:"price"`
	Months    int        `json:"months" binding:"required"`
	StartedAt *time.Time `json:"started_at"`
}

func (s *Server) currentPlan(c *gin.Context) {
	plan, err := s.deps.Users.CurrentPlan(c.Request.Context(), tenantOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// setPlan starts a subscription, now unless started_at says otherwise
func (s *Server) setPlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var start time.Time
	if req.StartedAt != nil {
		start = *req.StartedAt
	}
	plan, err := s.deps.Users.SetPlan(c.Request.Context(), tenantOf(c), req.Name, req.Price, start, req.Months)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}
