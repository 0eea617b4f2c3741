package routes

import (
	"time"

	deliveryrepos "delivery-ledger-backend/deliveries/repositories"
	"delivery-ledger-backend/token"
	"delivery-ledger-backend/users/controllers"
	"delivery-ledger-backend/users/repositories"

	"github.com/gofiber/fiber/v2"
)

func UserRouterInit(
	app *fiber.App,
	userRepository repositories.UserRepository,
	auditRepository deliveryrepos.AuditRepository,
	tokenMaker token.Maker,
	tokenDuration time.Duration,
) {
	userController := &controllers.UserController{
		UserRepo:      userRepository,
		AuditRepo:     auditRepository,
		TokenMaker:    tokenMaker,
		TokenDuration: tokenDuration,
	}

	authRoutes := app.Group("/auth")
	authRoutes.Post("/login", userController.LoginController)
	authRoutes.Post("/logout", userController.LogoutController)

	userRoutes := app.Group("/users")
	userRoutes.Post("/", userController.CreateUserController)
	userRoutes.Get("/", userController.GetFilteredUsersController)
	userRoutes.Get("/:id", userController.GetUserController)
	userRoutes.Patch("/:id", userController.UpdateUserController)
}
