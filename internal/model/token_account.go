package model

import "github.com/unclebandit/hoperise-backend/internal/address"

// TokenAccount is a balance of one mint held for one owner. Vault accounts
// are owned by their own address.
type TokenAccount struct {
	Address address.Address `db:"address" json:"address"`
	Mint    string          `db:"mint" json:"mint"`
	Owner   string          `db:"owner" json:"owner"`
	Amount  uint64          `db:"amount" json:"amount"`
}
