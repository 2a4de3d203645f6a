package api

import (
	"net/http"
	"strconv"

	"duck-storefront/internal/models"
	"duck-storefront/internal/service"
	"duck-storefront/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// AddToCartRequest names the duck to add one of
type AddToCartRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
}

// duckView is a catalog entry with its display price
type duckView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Size     string `json:"size"`
	Color    string `json:"color"`
}

func duckViews(ducks []models.Duck) []duckView {
	return lo.Map(ducks, func(d models.Duck, _ int) duckView {
		return duckView{ID: d.ID, Name: d.Name, Quantity: d.Quantity, Price: d.DisplayPrice(), Size: d.Size, Color: d.Color}
	})
}

// catalog returns the buyer page: account, cart and in-stock ducks
func (h *Handler) catalog(c *gin.Context) {
	flow := service.NewFlow(c.Request.Context())
	defer flow.Close()

	page, err := h.deps.Pages.LoadBuyerPage(c.Request.Context(), flow, currentSession(c), c.Request.URL.Path, h.sink(c))
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"account": publicAccount(page.Account),
		"cart":    page.Cart,
		"catalog": duckViews(page.Catalog),
	})
}

// addToCart handles adding one duck to the buyer's cart
func (h *Handler) addToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	flow := service.NewFlow(c.Request.Context())
	defer flow.Close()

	cart, err := h.deps.Storefront.AddToCart(c.Request.Context(), flow, currentSession(c), req.ProductID, h.sink(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"cart": cart})
}

// checkout snapshots the buyer page and runs one checkout attempt over it
func (h *Handler) checkout(c *gin.Context) {
	var form service.CheckoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	flow := service.NewFlow(ctx)
	defer flow.Close()

	sink := h.sink(c)
	page, err := h.deps.Pages.LoadCheckoutPage(ctx, flow, currentSession(c), c.Request.URL.Path, sink)
	if err != nil {
		fail(c, err)
		return
	}

	outcome, err := h.deps.Checkout.Submit(ctx, flow, page.CheckoutData(), form, sink)
	if err != nil {
		fail(c, err)
		return
	}

	status := http.StatusOK
	switch outcome.State {
	case service.StateIdle:
		status = http.StatusUnprocessableEntity
	case service.StateAwaitingCorrection:
		status = http.StatusConflict
	case service.StateAborted:
		status = errorStatus(outcome.Err)
	}
	respond(c, status, gin.H{"outcome": outcome})
}

// inventory returns every duck for the admin page
func (h *Handler) inventory(c *gin.Context) {
	flow := service.NewFlow(c.Request.Context())
	defer flow.Close()

	page, err := h.deps.Pages.LoadAdminPage(c.Request.Context(), flow, currentSession(c), c.Request.URL.Path, h.sink(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"inventory": duckViews(page.Inventory),
	})
}

// deleteProduct handles admin removal of a duck
func (h *Handler) deleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid duck ID",
		})
		return
	}

	flow := service.NewFlow(c.Request.Context())
	defer flow.Close()

	page, res, err := h.deps.Storefront.DeleteProduct(c.Request.Context(), flow, currentSession(c), id, h.sink(c))
	if err != nil {
		fail(c, err)
		return
	}

	status := http.StatusOK
	if !res.OK() {
		status = errorStatus(res.Err)
	}
	respond(c, status, gin.H{"inventory": duckViews(page.Inventory)})
}

// notifications drains the session's inbox
func (h *Handler) notifications(c *gin.Context) {
	s, ok := currentSession(c).Get()
	if !ok {
		fail(c, session.ErrUnauthenticated)
		return
	}

	queued, err := h.deps.Inbox.Drain(c.Request.Context(), s.ID)
	if err != nil {
		h.logger.Error("Failed to drain notifications", zap.Error(err))
		respond(c, http.StatusBadGateway, gin.H{"error": "Failed to load notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": queued})
}

// receipts lists the buyer's receipt history
func (h *Handler) receipts(c *gin.Context) {
	receipts, err := h.deps.Receipts.History(c.Request.Context(), currentSession(c), h.sink(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"receipts": receipts})
}
