package routes

import (
	indexing_repository "delivery-ledger-backend/bleve/repositories"
	"delivery-ledger-backend/deliveries/controllers"
	"delivery-ledger-backend/deliveries/repositories"
	"delivery-ledger-backend/deliveries/services"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func DeliveryRouterInit(
	app *fiber.App,
	db *gorm.DB,
	deliveryRepository repositories.DeliveryRepository,
	importRepository repositories.ImportRepository,
	auditRepository repositories.AuditRepository,
	importer *services.ImportService,
	resolver *services.ConflictResolver,
	recompute *services.RecomputeService,
	asynqClient *asynq.Client,
	bleveRepo indexing_repository.BleveRepositoryInterface,
	uploadDir string,
) {
	deliveryController := &controllers.DeliveryController{
		DeliveryRepo: deliveryRepository,
		ImportRepo:   importRepository,
		AuditRepo:    auditRepository,
		Importer:     importer,
		Resolver:     resolver,
		Recompute:    recompute,
		AsynqClient:  asynqClient,
		BleveRepo:    bleveRepo,
		UploadDir:    uploadDir,
		DB:           db,
	}

	deliveryRoutes := app.Group("/deliveries")
	deliveryRoutes.Post("/", deliveryController.CreateDeliveryController)
	deliveryRoutes.Get("/", deliveryController.GetFilteredDeliveriesController)
	deliveryRoutes.Get("/audit-logs", deliveryController.GetFilteredAuditLogsController)
	deliveryRoutes.Post("/recompute", deliveryController.RecomputeController)
	deliveryRoutes.Get("/:id", deliveryController.GetDeliveryController)
	deliveryRoutes.Patch("/:id", deliveryController.UpdateDeliveryController)
	deliveryRoutes.Delete("/:id", deliveryController.DeleteDeliveryController)

	importRoutes := app.Group("/imports")
	importRoutes.Post("/analyze", deliveryController.AnalyzeWorkbookController)
	importRoutes.Post("/", deliveryController.StartImportController)
	importRoutes.Get("/batches", deliveryController.GetFilteredBatchesController)
	importRoutes.Get("/batches/:id", deliveryController.GetBatchController)
	importRoutes.Get("/conflicts", deliveryController.GetFilteredConflictsController)
	importRoutes.Post("/conflicts/:id/resolve", deliveryController.ResolveConflictController)

	reportRoutes := app.Group("/reports")
	reportRoutes.Post("/", deliveryController.RunReportController)
}
