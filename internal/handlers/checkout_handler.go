package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farmdirect/farmdirect-orders/internal/aws"
	"github.com/farmdirect/farmdirect-orders/internal/cart"
	"github.com/farmdirect/farmdirect-orders/internal/catalog"
	"github.com/farmdirect/farmdirect-orders/internal/checkout"
	"github.com/farmdirect/farmdirect-orders/internal/orders"
	"github.com/farmdirect/farmdirect-orders/internal/pricing"
	"github.com/farmdirect/farmdirect-orders/internal/sellers"
	"github.com/farmdirect/farmdirect-orders/internal/validation"
)

// RegisterCheckoutRoutes wires the checkout fan-out endpoint.
func RegisterCheckoutRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	svc := checkout.NewService(checkout.Deps{
		Crops:     catalog.NewStore(cfg.DynamoDBClient, cfg.CropsTable),
		Farmers:   sellers.NewDirectory(cfg.DynamoDBClient, cfg.UsersTable),
		Pricing:   pricing.NewPolicy(cfg.Resolver),
		Orders:    orders.NewStore(cfg.DynamoDBClient, cfg.OrdersTable, cfg.OrderLinesTable),
		Publisher: aws.NewPublisher(cfg.SQSClient, cfg.QueueURL),
		Metrics:   aws.NewMetrics(cfg.CloudWatchClient),
	})

	r.POST("/checkout", func(c *gin.Context) {
		ctx := c.Request.Context()

		caller, ok := callerIdentity(c)
		if !ok || caller.Role != RoleConsumer {
			unauthorized(c)
			return
		}

		var req validation.CheckoutRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		lines := make([]cart.Line, 0, len(req.Items))
		for _, it := range req.Items {
			lines = append(lines, cart.Line{CropID: it.CropID, Quantity: it.Quantity})
		}

		res, err := svc.Checkout(ctx, checkout.Request{
			ConsumerID:      caller.UserID,
			Items:           lines,
			DeliveryPincode: req.DeliveryPincode,
			DeliveryAddress: req.DeliveryAddress,
			DeliveryTime:    req.DeliveryTime,
		})
		if err != nil {
			status := http.StatusInternalServerError
			switch err {
			case checkout.ErrEmptyCart:
				status = http.StatusBadRequest
			case checkout.ErrMissingConsumer:
				status = http.StatusUnauthorized
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		switch {
		case len(res.Orders) > 0:
			c.JSON(http.StatusCreated, checkoutResponse(res))
		case len(res.Failures) > 0:
			// every farmer's persistence failed
			c.JSON(http.StatusBadGateway, checkoutResponse(res))
		default:
			// every cart line referenced a vanished crop
			c.JSON(http.StatusOK, checkoutResponse(res))
		}
	})
}

type orderSummary struct {
	OrderID        string  `json:"orderId"`
	FarmerID       string  `json:"farmerId"`
	Status         string  `json:"status"`
	ItemsTotal     float64 `json:"itemsTotal"`
	DeliveryCharge int     `json:"deliveryCharge"`
}

func checkoutResponse(res checkout.Result) gin.H {
	summaries := make([]orderSummary, 0, len(res.Orders))
	for _, o := range res.Orders {
		summaries = append(summaries, orderSummary{
			OrderID:        o.OrderID,
			FarmerID:       o.FarmerID,
			Status:         o.Status,
			ItemsTotal:     o.ItemsTotal,
			DeliveryCharge: o.DeliveryCharge,
		})
	}
	resp := gin.H{"orders": summaries}
	if len(res.Failures) > 0 {
		resp["failures"] = res.Failures
	}
	return resp
}
