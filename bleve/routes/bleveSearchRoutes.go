package routes

import (
	"delivery-ledger-backend/bleve/controllers"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func InitBleveRoutes(app *fiber.App, controller *controllers.SearchController, db *gorm.DB) {
	api := app.Group("/api/v1/search")

	api.Get("/deliveries", controller.SearchDeliveriesController)
	api.Get("/suppliers", controller.SearchSuppliersController)
	api.Get("/contractors", controller.SearchContractorsController)
}
