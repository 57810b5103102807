package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// syncTenant pushes the tenant's records to the remote store now
func (s *Server) syncTenant(c *gin.Context) {
	if s.deps.Sync == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sync is disabled"})
		return
	}

	report, err := s.deps.Sync.TriggerTenant(c.Request.Context(), tenantOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report": report,
		"sent":   report.Sent(),
		"failed": report.Failed(),
	})
}
