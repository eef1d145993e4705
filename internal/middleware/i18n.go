// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/scpnet/scp-backend/internal/i18n"
)

// I18nMiddleware resolves the response language from ?lang, then
// Accept-Language, then the configured default.
func I18nMiddleware(defaultLang string) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := normalizeLang(c.Query("lang"))
		if lang == "" {
			// Handle cases like "ru-RU,ru;q=0.9,en;q=0.8"
			for _, part := range strings.Split(c.GetHeader("Accept-Language"), ",") {
				if lang = normalizeLang(strings.Split(part, ";")[0]); lang != "" {
					break
				}
			}
		}
		if lang == "" {
			lang = defaultLang
		}

		c.Set("lang", lang)
		c.Next()
	}
}

func normalizeLang(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return ""
	}
	parts := strings.FieldsFunc(tag, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) > 0 && i18n.IsSupported(parts[0]) {
		return parts[0]
	}
	return ""
}
