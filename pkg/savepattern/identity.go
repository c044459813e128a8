// SPDX-License-Identifier: MPL-2.0

package savepattern

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

const (
	// accountIDMask keeps the account number and drops the universe,
	// account type and instance bits of a 64-bit Steam ID.
	accountIDMask = 0xFFFFFFFF

	// individualBase is the 64-bit ID of account number 0 in the public
	// universe, individual account type, desktop instance.
	individualBase uint64 = 76561197960265728
)

var (
	// ErrNoIdentity is returned when no account is signed in.
	ErrNoIdentity = errors.New("no account signed in")

	// ErrInvalidSteamID is returned when a Steam ID string cannot be parsed.
	ErrInvalidSteamID = errors.New("invalid steam id")
)

type (
	// Identity is the signed-in account in its 64-bit form.
	Identity struct {
		ID64 uint64
	}

	// IdentityProvider supplies the current account identity.
	// Current returns ErrNoIdentity when no account is signed in.
	IdentityProvider interface {
		Current() (Identity, error)
	}

	// StaticIdentity is an IdentityProvider that always returns the same
	// account.
	StaticIdentity Identity

	// Session is an IdentityProvider whose account can be switched at any
	// time. The zero value is signed out and ready to use.
	Session struct {
		current atomic.Pointer[Identity]
	}
)

// ID32 returns the derived 32-bit account identifier: the low 32 bits of the
// 64-bit ID. Save directories keyed by account number use this value.
func (id Identity) ID32() uint32 {
	return uint32(id.ID64 & accountIDMask)
}

// Steam3 returns the "[U:1:<id32>]" text form of the identity.
func (id Identity) Steam3() string {
	return fmt.Sprintf("[U:1:%d]", id.ID32())
}

// String returns the decimal 64-bit ID.
func (id Identity) String() string {
	return strconv.FormatUint(id.ID64, 10)
}

// Current implements IdentityProvider.
func (s StaticIdentity) Current() (Identity, error) {
	return Identity(s), nil
}

// SignIn makes id64 the current account.
func (s *Session) SignIn(id64 uint64) {
	s.current.Store(&Identity{ID64: id64})
}

// SignOut clears the current account.
func (s *Session) SignOut() {
	s.current.Store(nil)
}

// Current implements IdentityProvider. A nil Session has no account.
func (s *Session) Current() (Identity, error) {
	if s == nil {
		return Identity{}, ErrNoIdentity
	}
	id := s.current.Load()
	if id == nil {
		return Identity{}, ErrNoIdentity
	}
	return *id, nil
}

// ParseSteamID parses a Steam account in any of its common text forms:
//   - a decimal 64-bit ID ("76561198000000000")
//   - a decimal 32-bit account number ("39734272"), promoted to an
//     individual public-universe 64-bit ID
//   - the Steam3 form ("[U:1:39734272]")
func ParseSteamID(s string) (Identity, error) {
	raw := strings.TrimSpace(s)
	if strings.HasPrefix(raw, "[U:1:") && strings.HasSuffix(raw, "]") {
		n, err := strconv.ParseUint(raw[len("[U:1:"):len(raw)-1], 10, 32)
		if err != nil {
			return Identity{}, fmt.Errorf("%w %q: %w", ErrInvalidSteamID, s, err)
		}
		return Identity{ID64: individualBase + n}, nil
	}

	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return Identity{}, fmt.Errorf("%w %q: %w", ErrInvalidSteamID, s, err)
	}
	if n <= accountIDMask {
		return Identity{ID64: individualBase + n}, nil
	}
	return Identity{ID64: n}, nil
}
