package renew

import (
	"fmt"
	"net/url"
	"strings"
)

// Target is one managed server page.
type Target struct {
	ID      string
	Address string
}

// ParseTargets builds targets in input order. The identifier is the last path
// segment of the address; repeated identifiers get a "#n" suffix.
func ParseTargets(addresses []string) []Target {
	seen := make(map[string]int, len(addresses))
	targets := make([]Target, 0, len(addresses))
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		id := targetID(addr)
		seen[id]++
		if n := seen[id]; n > 1 {
			id = fmt.Sprintf("%s#%d", id, n)
		}
		targets = append(targets, Target{ID: id, Address: addr})
	}
	return targets
}

func targetID(addr string) string {
	u, err := url.Parse(addr)
	if err != nil {
		return lastSegment(addr)
	}
	if seg := lastSegment(u.Path); seg != "" {
		return seg
	}
	if u.Host != "" {
		return u.Host
	}
	return addr
}

func lastSegment(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	return parts[len(parts)-1]
}
