package token

import (
	"time"

	"github.com/google/uuid"
)

// Maker is the contract for anything that can create and verify tokens,
// keeping the rest of the application independent of the token format.
type Maker interface {
	CreateToken(email string, userID uuid.UUID, role string, duration time.Duration) (string, error)

	VerifyToken(token string) (*Payload, error)
}
