package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/farmdirect/farmdirect-orders/internal/catalog"
	"github.com/farmdirect/farmdirect-orders/internal/validation"
)

// RegisterCropsRoutes wires the crop listing endpoints.
func RegisterCropsRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	store := catalog.NewStore(cfg.DynamoDBClient, cfg.CropsTable)

	r.GET("/crops", func(c *gin.Context) {
		crops, err := store.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list_crops_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"crops": crops})
	})

	r.POST("/crops", func(c *gin.Context) {
		caller, ok := callerIdentity(c)
		if !ok || caller.Role != RoleFarmer {
			unauthorized(c)
			return
		}

		var req validation.CreateCropRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		crop := catalog.Crop{
			CropID:        uuid.NewString(),
			FarmerID:      caller.UserID,
			Name:          req.Name,
			QuantityKg:    req.QuantityKg,
			BasePrice:     req.BasePrice,
			FarmerPincode: req.FarmerPincode,
		}
		if err := store.Put(c.Request.Context(), crop); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create_crop_failed", "detail": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"crop": crop})
	})
}
