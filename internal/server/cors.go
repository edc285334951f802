package server

import (
	"regexp"
	"strings"
)

// Private-range origins (LAN deployments behind a router) are always
// admitted, as is localhost on any port and scheme.
var privateNetworkRe = regexp.MustCompile(`^https?://(192\.168\.|10\.|172\.(1[6-9]|2[0-9]|3[0-1])\.)`)

func newOriginChecker(allowed []string) func(origin string) (bool, error) {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		allowedSet[strings.TrimSpace(origin)] = struct{}{}
	}

	return func(origin string) (bool, error) {
		if origin == "" {
			return true, nil
		}
		if _, ok := allowedSet[origin]; ok {
			return true, nil
		}
		if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "https://localhost:") {
			return true, nil
		}
		return privateNetworkRe.MatchString(origin), nil
	}
}
