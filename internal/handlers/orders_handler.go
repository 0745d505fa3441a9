package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farmdirect/farmdirect-orders/internal/orders"
	"github.com/farmdirect/farmdirect-orders/internal/validation"
)

// RegisterOrdersRoutes wires order listing and status transitions.
func RegisterOrdersRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	store := orders.NewStore(cfg.DynamoDBClient, cfg.OrdersTable, cfg.OrderLinesTable)

	// GET /orders lists orders for the caller: the farmer's inbound orders or
	// the consumer's own.
	r.GET("/orders", func(c *gin.Context) {
		ctx := c.Request.Context()

		caller, ok := callerIdentity(c)
		if !ok {
			unauthorized(c)
			return
		}

		var (
			list []orders.Order
			err  error
		)
		if caller.Role == RoleFarmer {
			list, err = store.ListByFarmer(ctx, caller.UserID)
		} else {
			list, err = store.ListByConsumer(ctx, caller.UserID)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_orders_failed", "detail": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"orders": list})
	})

	// PATCH /orders/:id/status moves an order one step forward in its
	// lifecycle. Farmer-only, ownership checked.
	r.PATCH("/orders/:id/status", func(c *gin.Context) {
		ctx := c.Request.Context()

		caller, ok := callerIdentity(c)
		if !ok || caller.Role != RoleFarmer {
			unauthorized(c)
			return
		}

		var req validation.UpdateStatusRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		if !orders.ValidStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_status"})
			return
		}

		orderID := c.Param("id")
		order, err := store.Get(ctx, orderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "get_order_failed", "detail": err.Error()})
			return
		}
		if order == nil || order.FarmerID != caller.UserID {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}

		if !orders.CanTransition(order.Status, req.Status) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "invalid_transition",
				"from":  order.Status,
				"to":    req.Status,
			})
			return
		}

		if err := store.UpdateStatus(ctx, orderID, order.Status, req.Status); err != nil {
			if errors.Is(err, orders.ErrStatusMismatch) {
				// someone moved the order between our read and write
				c.JSON(http.StatusConflict, gin.H{"error": "status_changed_concurrently"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update_status_failed", "detail": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"orderId": orderID, "status": req.Status})
	})
}
