package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/sales"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

// buildCart prices items from the tenant's catalog
func (s *Server) buildCart(ctx context.Context, t tenant.ID, items []models.LineItem) (*sales.Cart, error) {
	var cart sales.Cart
	for _, item := range items {
		if err := models.ValidateLineItem(item); err != nil {
			return nil, err
		}
		p, err := s.deps.Products.GetProduct(ctx, item.ProductID, t)
		if err != nil {
			return nil, err
		}
		if err := cart.Add(*p, item.Quantity); err != nil {
			return nil, err
		}
	}
	return &cart, nil
}

type quoteLine struct {
	sales.CartLine
	Subtotal float64 `json:"subtotal"`
}

type quoteResponse struct {
	Lines []quoteLine `json:"lines"`
	Total float64     `json:"total"`
}

type quoteRequest struct {
	Items []models.LineItem `json:"items"`
}

// quoteCart prices a cart without recording anything
func (s *Server) quoteCart(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cart, err := s.buildCart(c.Request.Context(), tenantOf(c), req.Items)
	if err != nil {
		fail(c, err)
		return
	}

	resp := quoteResponse{Lines: []quoteLine{}, Total: cart.Total()}
	for _, l := range cart.Lines() {
		resp.Lines = append(resp.Lines, quoteLine{CartLine: l, Subtotal: l.Subtotal()})
	}
	c.JSON(http.StatusOK, resp)
}
