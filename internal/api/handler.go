package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/payment"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	commits    *service.CommitService
	statuses   *service.StatusService
	queries    *service.QueryService
	reconciler *service.Reconciler
	gateway    *payment.GatewayClient
}

// NewHandler creates a new HTTP handler
func NewHandler(
	commits *service.CommitService,
	statuses *service.StatusService,
	queries *service.QueryService,
	reconciler *service.Reconciler,
	gateway *payment.GatewayClient,
) *Handler {
	return &Handler{
		commits:    commits,
		statuses:   statuses,
		queries:    queries,
		reconciler: reconciler,
		gateway:    gateway,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/place-order", h.placeOrder)
		api.GET("/myorders", h.myOrders)
		api.GET("/allorders", h.allOrders)
		api.POST("/update-order-status", h.updateOrderStatus)

		api.POST("/save-address", h.saveAddress)
		api.GET("/user-addresses", h.userAddresses)

		pay := api.Group("/payment")
		{
			pay.POST("/create-order", h.createGatewayOrder)
			pay.POST("/verify", h.verifyPayment)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/data", h.adminData)
			admin.POST("/reconcile", h.reconcileOrder)
			admin.GET("/reconciliations", h.pendingReconciliations)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// placeOrder commits a cash-on-delivery order.
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	result, err := h.commits.PlaceOrder(c.Request.Context(), &req)
	if result != nil {
		// a partial commit still carries a real, usable order ID; the
		// customer must not be told the order failed
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"orderId": result.OrderID,
		})
		return
	}
	h.writeCommitError(c, err)
}

// verifyPayment verifies a gateway payment signature and commits the order.
func (h *Handler) verifyPayment(c *gin.Context) {
	var req service.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	result, err := h.commits.VerifyPayment(c.Request.Context(), &req)
	if result != nil {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"orderId":   result.OrderID,
			"paymentId": result.PaymentID,
		})
		return
	}
	h.writeCommitError(c, err)
}

type createGatewayOrderRequest struct {
	Amount   float64 `json:"amount" binding:"required"`
	Currency string  `json:"currency"`
	Receipt  string  `json:"receipt"`
}

// createGatewayOrder forwards order creation to the payment gateway.
func (h *Handler) createGatewayOrder(c *gin.Context) {
	var req createGatewayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Valid amount is required",
		})
		return
	}

	// the gateway expects minor currency units
	minor := int64(math.Round(req.Amount * 100))
	order, err := h.gateway.CreateOrder(c.Request.Context(), minor, req.Currency, req.Receipt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to create gateway order",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order": gin.H{
			"id":       order.ID,
			"amount":   order.Amount,
			"currency": order.Currency,
		},
		"key": h.gateway.KeyID(),
	})
}

type updateStatusRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

// updateOrderStatus applies an operator status transition to both stores.
func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "orderId and status required",
		})
		return
	}

	if err := h.statuses.UpdateStatus(c.Request.Context(), req.OrderID, req.Status); err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": ve.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// myOrders returns a customer's orders, newest first.
func (h *Handler) myOrders(c *gin.Context) {
	orders, err := h.queries.OrdersByPhone(c.Request.Context(), c.Query("phone"))
	if err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"message": ve.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// allOrders returns every order for operator tooling.
func (h *Handler) allOrders(c *gin.Context) {
	orders, err := h.queries.AllOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// adminData returns orders plus customer summaries for the operator panel.
func (h *Handler) adminData(c *gin.Context) {
	data, err := h.queries.AdminView(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}

type reconcileRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

// reconcileOrder replays a customer-side order into the global table.
func (h *Handler) reconcileOrder(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "orderId required"})
		return
	}

	if err := h.reconciler.Reconcile(c.Request.Context(), req.OrderID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// pendingReconciliations lists partial commits still waiting for repair.
func (h *Handler) pendingReconciliations(c *gin.Context) {
	pending, err := h.reconciler.Pending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reconciliations": pending})
}

// saveAddress appends to the customer's address book.
func (h *Handler) saveAddress(c *gin.Context) {
	var req service.SaveAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Phone is required"})
		return
	}

	addr, err := h.queries.SaveAddress(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "address": addr})
}

// userAddresses lists a customer's saved addresses.
func (h *Handler) userAddresses(c *gin.Context) {
	addresses, err := h.queries.AddressesByPhone(c.Request.Context(), c.Query("phone"))
	if err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": ve.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "addresses": addresses})
}

// writeCommitError maps commit errors onto the response contract: bad input
// and rejected payments are client errors with no order ID; store failures
// before the customer write are server errors.
func (h *Handler) writeCommitError(c *gin.Context, err error) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": ve.Error()})
		return
	}

	var pr *models.PaymentRejectedError
	if errors.As(err, &pr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Payment verification failed — signature mismatch",
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"message": "Failed to place order",
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
