package domain

import "time"

// Customer is the authenticated user allowed to start a checkout.
type Customer struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
