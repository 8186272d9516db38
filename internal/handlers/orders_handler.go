package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	awspkg "github.com/Djonahuti/ushop-orders/internal/aws"
	"github.com/Djonahuti/ushop-orders/internal/lifecycle"
	"github.com/Djonahuti/ushop-orders/internal/orders"
	"github.com/Djonahuti/ushop-orders/internal/readmodel"
	"github.com/Djonahuti/ushop-orders/internal/validation"
)

// HandlerConfig groups dependencies for the order routes. SQS/CloudWatch may
// be nil; the engine then runs without events or metrics.
type HandlerConfig struct {
	DynamoDBClient   awspkg.DynamoDBAPI
	SQSClient        awspkg.SQSAPI
	CloudWatchClient awspkg.CloudWatchAPI
	Tables           orders.Tables
	QueueURL         string
	MetricsNamespace string
	Logger           *slog.Logger
}

// RegisterOrdersRoutes wires the lifecycle engine and the role-scoped read
// models onto the router.
func RegisterOrdersRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	store := orders.NewStore(cfg.DynamoDBClient, cfg.Tables)

	var events lifecycle.EventSink
	if cfg.SQSClient != nil && cfg.QueueURL != "" {
		events = awspkg.NewPublisher(cfg.SQSClient, cfg.QueueURL)
	}
	var metrics lifecycle.MetricsSink
	if cfg.CloudWatchClient != nil {
		ns := cfg.MetricsNamespace
		if ns == "" {
			ns = "UShop/Orders"
		}
		metrics = awspkg.NewMetrics(cfg.CloudWatchClient, ns)
	}

	engine := lifecycle.NewEngine(store, events, metrics, cfg.Logger)
	admin := readmodel.NewAdmin(store)
	seller := readmodel.NewSeller(store)
	customer := readmodel.NewCustomer(store)

	r.POST("/orders", func(c *gin.Context) {
		var req validation.CreateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		items := make([]lifecycle.ItemInput, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, lifecycle.ItemInput{
				ProductID:    it.ProductID,
				ProductTitle: it.ProductTitle,
				SellerID:     it.SellerID,
				Quantity:     it.Quantity,
				Size:         it.Size,
				UnitPrice:    decimal.NewFromFloat(it.UnitPrice),
			})
		}

		order, err := engine.CreateOrder(c.Request.Context(), lifecycle.CreateOrderInput{
			CustomerID:    req.CustomerID,
			CustomerName:  req.CustomerName,
			Items:         items,
			DueAmount:     decimal.NewFromFloat(req.DueAmount),
			PaymentMethod: req.PaymentMethod,
		})
		if err != nil {
			writeError(c, err)
			return
		}

		c.Header("Location", fmt.Sprintf("/orders/%s", order.OrderID))
		c.JSON(http.StatusCreated, gin.H{
			"order_id":   order.OrderID,
			"invoice_no": order.InvoiceNo,
			"status":     order.Status,
		})
	})

	r.POST("/orders/:orderID/status", func(c *gin.Context) {
		var req validation.TransitionRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		target, ok := orders.ParseStatus(req.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_status", "status": req.Status})
			return
		}

		actor := lifecycle.Actor{ID: req.ActorID, Role: req.ActorRole}
		if err := engine.Transition(c.Request.Context(), c.Param("orderID"), target, actor); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": c.Param("orderID"), "status": target})
	})

	r.POST("/payments/offline", func(c *gin.Context) {
		var req validation.ConfirmPaymentRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		details := lifecycle.PaymentDetails{
			Amount:      decimal.NewFromFloat(req.Amount),
			ReferenceNo: req.ReferenceNo,
			Bank:        req.Bank,
		}
		if err := engine.ConfirmOfflinePayment(c.Request.Context(), req.InvoiceNo, details); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"invoice_no": req.InvoiceNo, "status": orders.StatusPaid})
	})

	r.POST("/orders/:orderID/feedback-complete", func(c *gin.Context) {
		if err := engine.MarkFeedbackComplete(c.Request.Context(), c.Param("orderID")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": c.Param("orderID"), "feedback_done": true})
	})

	r.GET("/orders/:orderID", func(c *gin.Context) {
		order, err := store.Get(c.Request.Context(), c.Param("orderID"))
		if err != nil {
			writeError(c, err)
			return
		}
		if order == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		c.JSON(http.StatusOK, order)
	})

	r.GET("/orders/:orderID/history", func(c *gin.Context) {
		type entryResponse struct {
			Status     orders.Status `json:"status"`
			ActorID    string        `json:"actor_id"`
			ActorRole  string        `json:"actor_role"`
			RecordedAt string        `json:"recorded_at"`
		}
		var out []entryResponse
		for entry, err := range engine.History(c.Request.Context(), c.Param("orderID")) {
			if err != nil {
				writeError(c, err)
				return
			}
			out = append(out, entryResponse{
				Status:     entry.Status,
				ActorID:    entry.ActorID,
				ActorRole:  entry.ActorRole,
				RecordedAt: entry.RecordedAt.Format("2006-01-02T15:04:05.000000000Z07:00"),
			})
		}
		if out == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": c.Param("orderID"), "history": out})
	})

	r.GET("/admin/orders", func(c *gin.Context) {
		f, err := parseFilter(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		list, err := admin.List(c.Request.Context(), f)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	})

	r.GET("/sellers/:sellerID/orders", func(c *gin.Context) {
		f, err := parseFilter(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		list, err := seller.List(c.Request.Context(), c.Param("sellerID"), f)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	})

	r.GET("/customers/:customerID/orders", func(c *gin.Context) {
		f, err := parseFilter(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		list, err := customer.List(c.Request.Context(), c.Param("customerID"), f)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	})
}

func parseFilter(c *gin.Context) (readmodel.Filter, error) {
	var f readmodel.Filter
	if s := c.Query("status"); s != "" {
		st, ok := orders.ParseStatus(s)
		if !ok {
			return f, fmt.Errorf("unknown status %q", s)
		}
		f.Status = st
	}
	f.Query = c.Query("q")
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid limit %q", l)
		}
		f.Limit = n
	}
	if o := c.Query("offset"); o != "" {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid offset %q", o)
		}
		f.Offset = n
	}
	return f, nil
}

// writeError maps engine errors onto HTTP responses. Nothing is retried
// server-side; conflicts are surfaced for the client to refresh and resubmit.
func writeError(c *gin.Context, err error) {
	var invalid *lifecycle.InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusConflict, gin.H{
			"error": "invalid_transition",
			"from":  invalid.From,
			"to":    invalid.To,
		})
	case errors.Is(err, lifecycle.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
	case errors.Is(err, lifecycle.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent_modification"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "detail": err.Error()})
	}
}
