package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matthieukhl/pocketpos/internal/analytics"
	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/sales"
)

// createSaleRequest records a sale. Without a total the sale is priced from
// current product prices, as a cart checkout would.
type createSaleRequest struct {
	Date  *time.Time        `json:"date"`
	Total *float64          `json:"total"`
	Items []models.LineItem `json:"items"`
}

func (s *Server) createSale(c *gin.Context) {
	var req createSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, t := c.Request.Context(), tenantOf(c)
	at := time.Now()
	if req.Date != nil {
		at = *req.Date
	}

	var (
		id  int64
		err error
	)
	if req.Total != nil {
		id, err = s.deps.Sales.RecordSale(ctx, t, at, *req.Total, req.Items)
	} else {
		var cart *sales.Cart
		if cart, err = s.buildCart(ctx, t, req.Items); err == nil {
			id, err = cart.Checkout(ctx, s.deps.Sales, t, at)
		}
	}
	if err != nil {
		fail(c, err)
		return
	}

	sale, err := s.deps.Sales.GetSale(ctx, id, t)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func (s *Server) getSale(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	sale, err := s.deps.Sales.GetSale(c.Request.Context(), id, tenantOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// listSales takes optional from and to days, to inclusive
func (s *Server) listSales(c *gin.Context) {
	ctx, t := c.Request.Context(), tenantOf(c)
	rawFrom, rawTo := c.Query("from"), c.Query("to")

	if rawFrom == "" && rawTo == "" {
		list, err := s.deps.Sales.ListSales(ctx, t)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
		return
	}

	loc := s.location()
	from, err := parseDay(rawFrom, loc, time.Time{})
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := parseDay(rawTo, loc, time.Now().In(loc))
	if err != nil {
		badRequest(c, err)
		return
	}

	list, err := s.deps.Sales.ListSalesBetween(ctx, t, from, to.AddDate(0, 0, 1))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// scan resolves a scanned product QR code to the product
func (s *Server) scan(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 4096))
	if err != nil {
		badRequest(c, err)
		return
	}

	payload, err := sales.ParseQRPayload(body)
	if err != nil {
		fail(c, err)
		return
	}
	if payload.IsTenantLink() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant link codes are redeemed at /api/users/link"})
		return
	}

	p, err := s.deps.Products.GetProduct(c.Request.Context(), payload.ID, tenantOf(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) location() *time.Location {
	if s.deps.Analytics != nil {
		return s.deps.Analytics.Location()
	}
	return time.Local
}

// parseDay reads a YYYY-MM-DD day as local midnight, or returns def when empty
func parseDay(raw string, loc *time.Location, def time.Time) (time.Time, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseInLocation(analytics.DayLayout, raw, loc)
	if err != nil {
		return time.Time{}, models.Invalid("day must look like %s", analytics.DayLayout)
	}
	return d, nil
}

