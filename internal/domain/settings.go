package domain

import (
	"time"

	"github.com/google/uuid"
)

// StoreSettings is a singleton record: seeded once, read by every
// session, mutated only by administrators. Updates are pushed to open
// customer sessions, which replace their cached copy wholesale.
type StoreSettings struct {
	ID             uuid.UUID `json:"id" db:"id"`
	IsOpen         bool      `json:"is_open" db:"is_open"`
	ClosedMessage  string    `json:"closed_message" db:"closed_message"`
	WhatsAppNumber string    `json:"whatsapp_number" db:"whatsapp_number"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
