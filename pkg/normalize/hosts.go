package normalize

import (
	"fmt"
	"net"
	"strings"

	"github.com/miekg/dns"
)

// nullRoutes are the addresses hosts files use to mean "block".
var nullRoutes = map[string]struct{}{
	"0.0.0.0":   {},
	"127.0.0.1": {},
}

// reservedHosts are names every hosts file maps to itself; they are never
// blocking entries.
var reservedHosts = map[string]struct{}{
	"localhost":             {},
	"localhost.localdomain": {},
	"local":                 {},
	"broadcasthost":         {},
}

func hostsLine(line string) bool {
	end := strings.IndexAny(line, " \t")
	if end < 0 {
		end = len(line)
	}
	_, ok := nullRoutes[line[:end]]
	return ok
}

// hostsDomain extracts the domain of a "<nullroute> <domain>" line.
func hostsDomain(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || strings.HasPrefix(fields[1], "#") {
		return "", fmt.Errorf("empty domain")
	}
	domain, err := normalizeDomain(fields[1])
	if err != nil {
		return "", err
	}
	if _, ok := reservedHosts[domain]; ok || strings.HasPrefix(domain, "ip6-") {
		return "", fmt.Errorf("reserved hostname")
	}
	return domain, nil
}

func normalizeDomain(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("empty domain")
	}
	if strings.Contains(trimmed, "://") || strings.Contains(trimmed, "/") || strings.Contains(trimmed, ":") {
		return "", fmt.Errorf("invalid hostname")
	}
	if ip := net.ParseIP(trimmed); ip != nil {
		return "", fmt.Errorf("ip literals are not domains")
	}
	lower := strings.ToLower(strings.TrimSuffix(trimmed, "."))
	if lower == "" {
		return "", fmt.Errorf("empty domain")
	}
	if _, ok := dns.IsDomainName(lower); !ok {
		return "", fmt.Errorf("invalid domain")
	}
	return lower, nil
}
