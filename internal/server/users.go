package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/sales"
)

func (s *Server) register(c *gin.Context) {
	var reg models.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		badRequest(c, err)
		return
	}

	u, err := s.deps.Users.Register(c.Request.Context(), reg)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login only checks credentials and returns the account with its tenant;
// sessions belong to the identity provider
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := s.deps.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type linkRequest struct {
	Email   string          `json:"email"`
	Payload json.RawMessage `json:"payload"`
}

// linkTenant redeems an owner's tenant QR code for an employee account
func (s *Server) linkTenant(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	payload, err := sales.ParseQRPayload(req.Payload)
	if err != nil {
		fail(c, err)
		return
	}
	if !payload.IsTenantLink() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "not a tenant link code"})
		return
	}

	ctx := c.Request.Context()
	if err := s.deps.Users.LinkTenant(ctx, req.Email, payload.Tenant()); err != nil {
		fail(c, err)
		return
	}

	u, err := s.deps.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
