// SPDX-License-Identifier: MPL-2.0

package savepattern

import (
	"strconv"
	"strings"
)

const (
	// TokenAccountID64 expands to the decimal 64-bit account ID.
	TokenAccountID64 Token = "{AccountId64}"
	// TokenAccountID32 expands to the decimal 32-bit account ID.
	TokenAccountID32 Token = "{AccountId32}"
	// TokenSteamID64 is the legacy spelling of TokenAccountID64.
	TokenSteamID64 Token = "{64BitSteamID}"
	// TokenSteam3AccountID is the legacy spelling of TokenAccountID32.
	TokenSteam3AccountID Token = "{Steam3AccountID}"
)

type (
	// Token is a placeholder recognized inside a path template.
	Token string

	// tokenExpander produces the replacement text of a token for an identity.
	tokenExpander func(Identity) string
)

func expandID64(id Identity) string { return strconv.FormatUint(id.ID64, 10) }

func expandID32(id Identity) string { return strconv.FormatUint(uint64(id.ID32()), 10) }

// substitutions is the closed token vocabulary. Adding a token only needs an
// entry here.
var substitutions = []struct {
	token  Token
	expand tokenExpander
}{
	{TokenAccountID64, expandID64},
	{TokenAccountID32, expandID32},
	{TokenSteamID64, expandID64},
	{TokenSteam3AccountID, expandID32},
}

// Tokens returns every recognized placeholder.
func Tokens() []Token {
	out := make([]Token, 0, len(substitutions))
	for _, s := range substitutions {
		out = append(out, s.token)
	}
	return out
}

// String returns the literal placeholder text.
func (t Token) String() string { return string(t) }

// Substitute replaces every literal occurrence of a recognized token in
// template with its value for id. Replacement is non-overlapping and runs
// left to right. Unknown "{...}" tokens are left verbatim.
func Substitute(template string, id Identity) string {
	if !strings.Contains(template, "{") {
		return template
	}
	pairs := make([]string, 0, 2*len(substitutions))
	for _, s := range substitutions {
		pairs = append(pairs, string(s.token), s.expand(id))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// HasTokens reports whether template contains any recognized token.
func HasTokens(template string) bool {
	for _, s := range substitutions {
		if strings.Contains(template, string(s.token)) {
			return true
		}
	}
	return false
}
