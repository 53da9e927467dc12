// Package featureflags evaluates runtime switches configured through FEATURE_FLAGS.
package featureflags

import (
	"strconv"
	"strings"

	"github.com/OneOfOne/xxhash"
)

// Known flags.
const (
	// PersonalCommunities allows users to create their one personal community.
	PersonalCommunities = "personal_communities"
	// Swagger serves the API documentation under /swagger.
	Swagger = "swagger"
)

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "personal_communities=on,swagger=off,new_ranking=25%"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
// Malformed pairs are ignored.
func NewManager(raw string) *Manager {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return &Manager{flags: out}
}

// Enabled returns whether a flag is enabled for a given user. Values are
// on/true/1, off/false/0, or N% for a deterministic per-user rollout.
// Percentage rollouts never include anonymous callers (userID 0).
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil, pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	key := normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)
	return int(xxhash.ChecksumString32(key) % 100)
}
