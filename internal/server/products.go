package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/matthieukhl/pocketpos/internal/media"
	"github.com/matthieukhl/pocketpos/internal/models"
)

func (s *Server) listProducts(c *gin.Context) {
	products, err := s.deps.Products.ListProducts(c.Request.Context(), tenantOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s *Server) createProduct(c *gin.Context) {
	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	ctx, t := c.Request.Context(), tenantOf(c)
	id, err := s.deps.Products.CreateProduct(ctx, t, in)
	if err != nil {
		fail(c, err)
		return
	}

	p, err := s.deps.Products.GetProduct(ctx, id, t)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) getProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	p, err := s.deps.Products.GetProduct(c.Request.Context(), id, tenantOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) updateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	ctx, t := c.Request.Context(), tenantOf(c)
	if err := s.deps.Products.UpdateProduct(ctx, id, t, in); err != nil {
		fail(c, err)
		return
	}

	p, err := s.deps.Products.GetProduct(ctx, id, t)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := s.deps.Products.DeleteProduct(c.Request.Context(), id, tenantOf(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type stockRequest struct {
	Delta int `json:"delta"`
}

func (s *Server) adjustStock(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	stock, err := s.deps.Products.AdjustStock(c.Request.Context(), id, tenantOf(c), req.Delta)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "stock": stock})
}

func (s *Server) lowStock(c *gin.Context) {
	threshold := s.deps.LowStockThreshold
	if raw := c.Query("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid threshold"})
			return
		}
		threshold = n
	}

	products, err := s.deps.Products.ListLowStock(c.Request.Context(), tenantOf(c), threshold)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// uploadImage takes a multipart "image" field
func (s *Server) uploadImage(c *gin.Context) {
	if s.deps.Images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage is disabled"})
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, t := c.Request.Context(), tenantOf(c)
	// 404 before reading the upload
	if _, err := s.deps.Products.GetProduct(ctx, id, t); err != nil {
		fail(c, err)
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		badRequest(c, err)
		return
	}
	if header.Size > media.MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}
	f, err := header.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer f.Close()

	url, err := s.deps.Images.UploadProductImage(ctx, t, id, f)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.deps.Products.SetImage(ctx, id, t, url); err != nil {
		fail(c, err)
		return
	}

	p, err := s.deps.Products.GetProduct(ctx, id, t)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
