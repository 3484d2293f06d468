// Package address derives the storage location of every escrow record from
// the record kind and its parent identifiers. Each part is path-escaped before
// joining, so two distinct seed tuples can never produce the same address.
package address

import (
	"net/url"
	"strconv"
	"strings"
)

// Address is the stable key of one stored record.
type Address string

// Kind names a record family.
type Kind string

const (
	KindCounter      Kind = "campaign_counter"
	KindCampaign     Kind = "campaign"
	KindMilestone    Kind = "milestone"
	KindContribution Kind = "contribution"
	KindVault        Kind = "campaign_vault"
	KindTokenAccount Kind = "token_account"
)

const sep = "/"

// Derive joins kind and the escaped parts into an Address.
func Derive(kind Kind, parts ...string) Address {
	var b strings.Builder
	b.WriteString(string(kind))
	for _, p := range parts {
		b.WriteString(sep)
		b.WriteString(url.PathEscape(p))
	}
	return Address(b.String())
}

// Split reverses Derive.
func Split(a Address) (Kind, []string, error) {
	fields := strings.Split(string(a), sep)
	parts := make([]string, 0, len(fields)-1)
	for _, f := range fields[1:] {
		p, err := url.PathUnescape(f)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, p)
	}
	return Kind(fields[0]), parts, nil
}

// Kind reports the record family encoded in a.
func (a Address) Kind() Kind {
	k, _, _ := strings.Cut(string(a), sep)
	return Kind(k)
}

func (a Address) String() string { return string(a) }

func Counter() Address {
	return Derive(KindCounter)
}

func Campaign(creator string, id uint64) Address {
	return Derive(KindCampaign, creator, strconv.FormatUint(id, 10))
}

func Milestone(campaign Address, index uint8) Address {
	return Derive(KindMilestone, string(campaign), strconv.FormatUint(uint64(index), 10))
}

func Contribution(campaign Address, contributor string) Address {
	return Derive(KindContribution, string(campaign), contributor)
}

// Vault is both the vault token account's location and the identity that
// owns it; no external identity can ever equal it.
func Vault(campaign Address) Address {
	return Derive(KindVault, string(campaign))
}

// TokenAccount is the associated token account of owner for mint.
func TokenAccount(owner, mint string) Address {
	return Derive(KindTokenAccount, owner, mint)
}

// IsProgramDerived reports whether identity names a vault rather than an
// external party.
func IsProgramDerived(identity string) bool {
	return Address(identity).Kind() == KindVault
}
