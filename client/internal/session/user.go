package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/types"
)

// buildUser merges the endpoint's record with locally computed fields.
// identifier is the account identifier the caller authenticated with.
func buildUser(au *types.AuthUser, identifier string, fallbackRole types.Role, now time.Time, newID func() string) *types.User {
	u := &types.User{
		ID:         formatID(au.ID),
		Username:   au.Username,
		FirstName:  au.FirstName,
		LastName:   au.LastName,
		Email:      au.Email,
		Phone:      au.Phone,
		Role:       au.Role,
		IsVerified: au.IsVerified,
		TrustScore: au.TrustScore,
		KYCStatus:  au.KYCStatus,
		Profile:    au.Profile,
		Wallet:     au.Wallet,
		Token:      au.Token,
		CreatedAt:  now,
	}
	if u.ID == "" {
		u.ID = newID()
	}
	if u.Username == "" {
		u.Username = identifier
	}
	if !u.Role.Valid() {
		u.Role = fallbackRole
	}
	if ts, err := time.Parse(time.RFC3339Nano, au.CreatedAt); err == nil {
		u.CreatedAt = ts.UTC()
	}
	u.Name = displayName(u.FirstName, u.LastName, identifier)
	return u
}

// displayName joins first and last name, falling back to the identifier
// when both are empty.
func displayName(first, last, identifier string) string {
	name := strings.TrimSpace(strings.Join([]string{first, last}, " "))
	if name == "" {
		return identifier
	}
	return name
}

// formatID renders a server id that may arrive as a JSON string or number.
func formatID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}

// splitName puts the first token in first and the remaining tokens, joined
// by a space, in last.
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// accountIdentifier derives a unique login from the email local part and the
// current time in base 36.
func accountIdentifier(email string, now time.Time) string {
	local, _, _ := strings.Cut(email, "@")
	return local + "_" + strconv.FormatInt(now.UnixMilli(), 36)
}

// tokenExpired reports whether token is a JWT whose exp claim is in the past.
// Opaque tokens and JWTs without exp never expire here.
func tokenExpired(token string, now time.Time) bool {
	if strings.Count(token, ".") != 2 {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	return !claims.VerifyExpiresAt(now.Unix(), false)
}
