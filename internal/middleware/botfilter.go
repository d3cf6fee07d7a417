package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// IsBotKey holds true on the gin context when the voter looks automated.
const IsBotKey = "is_bot"

// User-Agent fragments, lowercase, grouped by why the client visits.
var (
	searchCrawlers = []string{
		"googlebot", "bingbot", "slurp", "duckduckbot", "baiduspider",
		"yandexbot", "applebot", "petalbot", "bytespider",
	}
	seoCrawlers = []string{
		"semrushbot", "ahrefsbot", "mj12bot", "dotbot", "rogerbot",
	}
	linkUnfurlers = []string{
		"facebookexternalhit", "twitterbot", "linkedinbot", "slackbot",
		"discordbot", "embedly", "quora link preview", "pinterest",
		"showyoubot", "outbrain",
	}
	scriptedClients = []string{
		"headlesschrome", "python-requests", "go-http-client", "curl/", "wget/",
	}

	automatedAgents = slices.Concat(searchCrawlers, seoCrawlers, linkUnfurlers, scriptedClients)
)

// BotFilter marks votes from crawlers, link previews and scripts, as well
// as requests that carry no User-Agent at all. The vote handler still
// answers 202 for them but leaves the counters alone.
func BotFilter() gin.HandlerFunc {
	return func(c *gin.Context) {
		if matchesBotAgent(c.Request.UserAgent()) {
			c.Set(IsBotKey, true)
		}
		c.Next()
	}
}

// IsBot reports whether BotFilter marked the request.
func IsBot(c *gin.Context) bool {
	return c.GetBool(IsBotKey)
}

func matchesBotAgent(userAgent string) bool {
	if strings.TrimSpace(userAgent) == "" {
		return true
	}
	ua := strings.ToLower(userAgent)
	return slices.ContainsFunc(automatedAgents, func(fragment string) bool {
		return strings.Contains(ua, fragment)
	})
}
