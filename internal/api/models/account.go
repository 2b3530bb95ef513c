package models

import "time"

// Account represents a registered user and their token wallet.
type Account struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	TokenBalance int64     `db:"token_balance"`
	CreatedAt    time.Time `db:"created_at"`
}

// RegisterRequest defines the structure for a registration request.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest defines the structure for a login request.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse defines the structure for a successful login response.
type LoginResponse struct {
	Token        string `json:"token"`
	Username     string `json:"username"`
	TokenBalance int64  `json:"tokenBalance"`
}

// BalanceResponse reports a wallet balance after a mutation.
type BalanceResponse struct {
	TokenBalance int64 `json:"tokenBalance"`
}
