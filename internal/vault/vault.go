// Package vault holds the escrow authority over campaign vaults. Only the
// withdrawal and refund paths release value, and they do it through Release.
package vault

import (
	"context"

	"github.com/unclebandit/hoperise-backend/internal/address"
	"github.com/unclebandit/hoperise-backend/internal/gateway"
	"github.com/unclebandit/hoperise-backend/internal/model"
	"github.com/unclebandit/hoperise-backend/internal/repository"
)

type Authority struct {
	Gateway gateway.TransferGateway
	signer  *gateway.VaultSigner
}

// New binds the vault authority to gw. Without a signer the authority can
// open and read vaults but Release fails.
func New(gw gateway.TransferGateway, signer *gateway.VaultSigner) *Authority {
	return &Authority{Gateway: gw, signer: signer}
}

// Open creates the campaign's vault account on first use. The vault is owned
// by its own derived address.
func (a *Authority) Open(ctx context.Context, l repository.Ledger, c *model.Campaign) (*model.TokenAccount, error) {
	v := c.VaultAddress()
	return a.Gateway.OpenAccount(ctx, l, v, v.String())
}

// Balance is zero until the vault has been opened.
func (a *Authority) Balance(ctx context.Context, l repository.Ledger, c *model.Campaign) (uint64, error) {
	acct, err := l.TokenAccount(ctx, c.VaultAddress())
	if err != nil || acct == nil {
		return 0, err
	}
	return acct.Amount, nil
}

// Deposit moves amount from a contributor-signed account into the vault.
func (a *Authority) Deposit(ctx context.Context, l repository.Ledger, c *model.Campaign, from address.Address, contributor string, amount uint64) error {
	v, err := a.Open(ctx, l, c)
	if err != nil {
		return err
	}
	return a.Gateway.Transfer(ctx, l, from, v.Address, contributor, amount)
}

// Release pays amount out of the vault into recipient's associated account,
// creating that account if needed.
func (a *Authority) Release(ctx context.Context, l repository.Ledger, c *model.Campaign, recipient string, amount uint64) error {
	dst, err := a.Gateway.EnsureAccount(ctx, l, recipient)
	if err != nil {
		return err
	}
	v := c.VaultAddress()
	return a.Gateway.TransferAsVault(ctx, l, a.signer, v.String(), v, dst.Address, amount)
}
