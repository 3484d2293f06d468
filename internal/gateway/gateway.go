// Package gateway moves token balances between accounts held in the same
// ledger transaction as the escrow records, so a failed operation never
// leaves a transfer behind.
package gateway

import (
	"context"
	"errors"

	"github.com/unclebandit/hoperise-backend/internal/address"
	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
	"github.com/unclebandit/hoperise-backend/internal/model"
	"github.com/unclebandit/hoperise-backend/internal/repository"
)

// ErrInsufficientBalance is returned when a source account holds less than
// the requested amount. It is a token program failure, distinct from the
// escrow's own InsufficientFunds.
var ErrInsufficientBalance = errors.New("insufficient token balance")

// TransferGateway is the token program seen by the escrow.
type TransferGateway interface {
	// OpenAccount returns the account at addr, creating an empty one for
	// owner when the slot is free.
	OpenAccount(ctx context.Context, l repository.Ledger, addr address.Address, owner string) (*model.TokenAccount, error)
	// EnsureAccount opens owner's associated account for the gateway mint.
	EnsureAccount(ctx context.Context, l repository.Ledger, owner string) (*model.TokenAccount, error)
	// Transfer moves amount signed by an external authority.
	Transfer(ctx context.Context, l repository.Ledger, from, to address.Address, authority string, amount uint64) error
	// TransferAsVault moves amount out of an account owned by a vault
	// identity. It requires the signer issued with the gateway.
	TransferAsVault(ctx context.Context, l repository.Ledger, signer *VaultSigner, vaultIdentity string, from, to address.Address, amount uint64) error
	// MintTo credits owner's associated account with new supply.
	MintTo(ctx context.Context, l repository.Ledger, owner string, amount uint64) error
	// Mint is the only mint the gateway accepts.
	Mint() string
}

// VaultSigner is the capability to sign for vault identities. It can only
// be obtained from NewTokenProgram and only works with that program.
type VaultSigner struct {
	program *TokenProgram
}

// TokenProgram implements TransferGateway for a single mint.
type TokenProgram struct {
	mint   string
	signer *VaultSigner
}

// NewTokenProgram returns the program and its vault signer. Hand the signer
// to the vault authority only.
func NewTokenProgram(mint string) (*TokenProgram, *VaultSigner) {
	p := &TokenProgram{mint: mint}
	p.signer = &VaultSigner{program: p}
	return p, p.signer
}

func (p *TokenProgram) Mint() string {
	return p.mint
}

func (p *TokenProgram) OpenAccount(ctx context.Context, l repository.Ledger, addr address.Address, owner string) (*model.TokenAccount, error) {
	acct, err := l.TokenAccount(ctx, addr)
	if err != nil {
		return nil, err
	}
	if acct != nil {
		if acct.Mint != p.mint || acct.Owner != owner {
			return nil, appErrors.ErrInvalidTokenAccount
		}
		return acct, nil
	}

	acct = &model.TokenAccount{Address: addr, Mint: p.mint, Owner: owner}
	if err := l.PutTokenAccount(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

func (p *TokenProgram) EnsureAccount(ctx context.Context, l repository.Ledger, owner string) (*model.TokenAccount, error) {
	return p.OpenAccount(ctx, l, address.TokenAccount(owner, p.mint), owner)
}

func (p *TokenProgram) Transfer(ctx context.Context, l repository.Ledger, from, to address.Address, authority string, amount uint64) error {
	// A vault identity never signs as an external party.
	if address.IsProgramDerived(authority) {
		return appErrors.ErrUnauthorized
	}
	return p.move(ctx, l, from, to, authority, amount)
}

func (p *TokenProgram) TransferAsVault(ctx context.Context, l repository.Ledger, signer *VaultSigner, vaultIdentity string, from, to address.Address, amount uint64) error {
	if signer == nil || signer != p.signer || !address.IsProgramDerived(vaultIdentity) {
		return appErrors.ErrUnauthorized
	}
	return p.move(ctx, l, from, to, vaultIdentity, amount)
}

func (p *TokenProgram) MintTo(ctx context.Context, l repository.Ledger, owner string, amount uint64) error {
	acct, err := p.EnsureAccount(ctx, l, owner)
	if err != nil {
		return err
	}
	next, err := model.CheckedAddU64(acct.Amount, amount)
	if err != nil {
		return err
	}
	acct.Amount = next
	return l.PutTokenAccount(ctx, acct)
}

func (p *TokenProgram) move(ctx context.Context, l repository.Ledger, from, to address.Address, authority string, amount uint64) error {
	src, err := p.account(ctx, l, from)
	if err != nil {
		return err
	}
	dst, err := p.account(ctx, l, to)
	if err != nil {
		return err
	}
	if src.Owner != authority {
		return appErrors.ErrUnauthorized
	}
	if from == to {
		return nil
	}
	if src.Amount < amount {
		return ErrInsufficientBalance
	}

	credited, err := model.CheckedAddU64(dst.Amount, amount)
	if err != nil {
		return err
	}
	src.Amount -= amount
	dst.Amount = credited

	if err := l.PutTokenAccount(ctx, src); err != nil {
		return err
	}
	return l.PutTokenAccount(ctx, dst)
}

func (p *TokenProgram) account(ctx context.Context, l repository.Ledger, addr address.Address) (*model.TokenAccount, error) {
	acct, err := l.TokenAccount(ctx, addr)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, appErrors.ErrInvalidTokenAccount
	}
	if acct.Mint != p.mint {
		return nil, appErrors.ErrInvalidMint
	}
	return acct, nil
}

var _ TransferGateway = (*TokenProgram)(nil)
