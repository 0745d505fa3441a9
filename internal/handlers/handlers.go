package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farmdirect/farmdirect-orders/internal/aws"
	"github.com/farmdirect/farmdirect-orders/internal/geo"
)

// Roles injected by the upstream auth collaborator.
const (
	RoleFarmer   = "FARMER"
	RoleConsumer = "CONSUMER"
)

// HandlerConfig groups dependencies for the API handlers.
type HandlerConfig struct {
	DynamoDBClient   aws.DynamoDBAPI
	SQSClient        aws.SQSAPI
	CloudWatchClient aws.CloudWatchAPI
	Resolver         geo.Resolver

	CropsTable      string
	UsersTable      string
	OrdersTable     string
	OrderLinesTable string
	QueueURL        string
}

// identity is the trusted caller identity set by the auth layer in front of
// this service. Token verification is not this service's job.
type identity struct {
	UserID string
	Role   string
}

// callerIdentity reads the identity headers. ok is false when no user id is
// present; handlers respond 401 in that case.
func callerIdentity(c *gin.Context) (identity, bool) {
	id := identity{
		UserID: c.GetHeader("X-User-Id"),
		Role:   c.GetHeader("X-User-Role"),
	}
	return id, id.UserID != ""
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}
