package middleware

// identity.go holds helpers shared across middleware files for reading the
// authenticated user out of the Echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated user's identifier for use in
// rate-limit keys.  JWTAuth stores the raw "sub" claim, which may be a
// string or a JSON number depending on the issuer.  Unauthenticated
// requests map to "anon".
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	}
	return "anon"
}
