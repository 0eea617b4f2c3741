package controllers

import (
	"strings"

	indexing_repository "delivery-ledger-backend/bleve/repositories"
	"delivery-ledger-backend/deliveries/repositories"
	"delivery-ledger-backend/deliveries/services"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

type DeliveryController struct {
	DeliveryRepo repositories.DeliveryRepository
	ImportRepo   repositories.ImportRepository
	AuditRepo    repositories.AuditRepository
	Importer     *services.ImportService
	Resolver     *services.ConflictResolver
	Recompute    *services.RecomputeService
	AsynqClient  *asynq.Client
	BleveRepo    indexing_repository.BleveRepositoryInterface
	UploadDir    string
	DB           *gorm.DB
}

// actorEmail resolves the acting user for audit attribution, preferring the
// authenticated token over the legacy query parameter.
func actorEmail(c *fiber.Ctx) string {
	if email, ok := c.Locals("user_email").(string); ok && email != "" {
		return email
	}
	return strings.TrimSpace(c.Query("user_email"))
}

func cleanQueryParam(param string) string {
	param = strings.TrimSpace(param)
	if param == "" || strings.ToLower(param) == "null" {
		return ""
	}
	return param
}
