package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ApiVersion is the closed set of API versions this facade recognizes,
// following the original system's ApiVersion enum (supported/deprecated
// distinction, not a full multi-version router).
type ApiVersion string

const (
	ApiVersionV1 ApiVersion = "v1"
)

var supportedVersions = map[ApiVersion]bool{
	ApiVersionV1: true,
}

// deprecatedVersions has no entries today; kept as the extension point the
// original's `is_deprecated()` check names, so adding a v2 later only means
// adding an entry here instead of reworking the middleware.
var deprecatedVersions = map[ApiVersion]bool{}

const (
	VersionHeader = "X-Api-Version"
	WarningHeader = "Warning"
)

// parseApiVersion accepts "v1" or "1" (with or without a leading "v"),
// matching the original's TryFrom<&str> parsing.
func parseApiVersion(raw string) (ApiVersion, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", false
	}
	if !strings.HasPrefix(raw, "v") {
		raw = "v" + raw
	}
	v := ApiVersion(raw)
	_, known := supportedVersions[v]
	return v, known
}

// VersionMiddleware resolves the requested API version from either the
// "/api/:version/..." path segment or the X-Api-Version header (header
// takes precedence), rejects unsupported versions with 410 Gone, and sets
// a Warning header for deprecated ones. Exactly one version (v1) exists
// today, so this never routes to different handler sets; it only validates
// and annotates.
func VersionMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(VersionHeader)
			if raw == "" {
				raw = c.Param("version")
			}
			if raw == "" {
				raw = string(ApiVersionV1)
			}

			version, ok := parseApiVersion(raw)
			if !ok {
				return c.JSON(http.StatusGone, map[string]interface{}{
					"type":    "unsupported_version",
					"code":    "unsupported_api_version",
					"message": "requested API version is not supported",
				})
			}

			if deprecatedVersions[version] {
				c.Response().Header().Set(WarningHeader, `299 - "deprecated API version, see changelog"`)
			}
			c.Response().Header().Set(VersionHeader, string(version))

			return next(c)
		}
	}
}
