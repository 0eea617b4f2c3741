package controllers

import (
	"time"

	deliveryrepos "delivery-ledger-backend/deliveries/repositories"
	"delivery-ledger-backend/token"
	"delivery-ledger-backend/users/repositories"
)

const accessTokenCookie = "access_token"

// UserController bundles the dependencies the user handlers share.
type UserController struct {
	UserRepo      repositories.UserRepository
	AuditRepo     deliveryrepos.AuditRepository
	TokenMaker    token.Maker
	TokenDuration time.Duration
}
