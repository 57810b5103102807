package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// dailyTotals takes an optional ?date=YYYY-MM-DD, today by default
func (s *Server) dailyTotals(c *gin.Context) {
	day, err := parseDay(c.Query("date"), s.location(), time.Time{})
	if err != nil {
		fail(c, err)
		return
	}

	totals, err := s.deps.Analytics.DailyTotals(c.Request.Context(), tenantOf(c), day)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (s *Server) mostSold(c *gin.Context) {
	best, err := s.deps.Analytics.MostSoldProduct(c.Request.Context(), tenantOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": best})
}

func (s *Server) weekDelta(c *gin.Context) {
	delta, err := s.deps.Analytics.WeekOverWeekDelta(c.Request.Context(), tenantOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delta": delta})
}

func (s *Server) weekSeries(c *gin.Context) {
	series, err := s.deps.Analytics.CurrentWeekSeries(c.Request.Context(), tenantOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (s *Server) dashboard(c *gin.Context) {
	d, err := s.deps.Analytics.Dashboard(c.Request.Context(), tenantOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
