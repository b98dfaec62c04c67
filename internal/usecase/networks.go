package usecase

import (
	"path"
	"strings"
)

// NetworkConfig controls how raw broadcast callsigns become display names.
//
// PreferredNames orders and filters the raw list (wildcards supported);
// NamePatterns is a first-match-wins pattern mapping; NameMap is an exact
// mapping applied after patterns.
type NetworkConfig struct {
	PreferredNames []string
	NamePatterns   [][2]string
	NameMap        map[string]string
}

func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		PreferredNames: []string{"TNT", "TruTV", "ESPN*", "FDSN*", "FDS*", "Prime*", "ESPN Select"},
		NamePatterns:   [][2]string{{"FDS*", "FanDuel Sports North"}},
		NameMap: map[string]string{
			"ESPN Select": "ESPN+",
			"ESPN":        "ESPN",
			"TNT":         "TNT",
			"TruTV":       "TruTV",
			"Prime":       "Prime Video",
		},
	}
}

// DisplayNetworks builds the final broadcast list: preferred
// ordering/filtering over the raw callsigns, then name mapping, then
// first-occurrence dedupe.
func (c NetworkConfig) DisplayNetworks(raw []string) []string {
	cleaned := make([]string, 0, len(raw))
	for _, n := range raw {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}

	picked := cleaned
	if len(c.PreferredNames) > 0 {
		picked = picked[:0:0]
		for _, pattern := range c.PreferredNames {
			for _, net := range cleaned {
				if matchNetwork(pattern, net) {
					picked = append(picked, net)
				}
			}
		}
		if len(picked) == 0 {
			picked = cleaned
		}
	}

	seen := make(map[string]bool, len(picked))
	out := make([]string, 0, len(picked))
	for _, net := range picked {
		mapped := c.mapName(net)
		if !seen[mapped] {
			seen[mapped] = true
			out = append(out, mapped)
		}
	}
	return out
}

func (c NetworkConfig) mapName(net string) string {
	for _, pair := range c.NamePatterns {
		if matchNetwork(pair[0], net) {
			return pair[1]
		}
	}
	if mapped, ok := c.NameMap[net]; ok {
		return mapped
	}
	return net
}

// matchNetwork compares case-insensitively; patterns with glob metacharacters
// use path.Match semantics, plain patterns match exactly or as a prefix (so
// "FDSN" covers "FDSN1" and "FDSNX").
func matchNetwork(pattern, text string) bool {
	p := strings.ToLower(strings.TrimSpace(pattern))
	t := strings.ToLower(strings.TrimSpace(text))
	if p == "" || t == "" {
		return false
	}

	if strings.ContainsAny(p, "*?[]") {
		ok, err := path.Match(p, t)
		return err == nil && ok
	}
	return t == p || strings.HasPrefix(t, p)
}
