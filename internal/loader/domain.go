package loader

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

var ErrDuplicateAlias = errors.New("alias is mapped to more than one canonical host")

// DefaultAliases maps canonical hosts to the hosts that should be rewritten
// to them before retrieval.
var DefaultAliases = map[string][]string{
	"api.fxtwitter.com": {
		"twitter.com",
		"x.com",
		"fxtwitter.com",
		"vxtwitter.com",
		"fixvx.com",
		"twittpr.com",
		"fixupx.com",
	},
}

// AliasTable is immutable after construction and safe for concurrent use.
type AliasTable struct {
	canonical map[string]string
}

func NewAliasTable(aliases map[string][]string) (*AliasTable, error) {
	table := &AliasTable{canonical: make(map[string]string)}
	canonicalHosts := make(map[string]struct{}, len(aliases))
	for canonical := range aliases {
		canonicalHosts[strings.ToLower(canonical)] = struct{}{}
	}

	// sorted for deterministic errors
	for _, canonical := range slices.Sorted(maps.Keys(aliases)) {
		target := strings.ToLower(canonical)
		for _, alias := range aliases[canonical] {
			alias = strings.ToLower(strings.TrimSpace(alias))
			if alias == "" || alias == target {
				continue
			}
			if _, ok := canonicalHosts[alias]; ok {
				return nil, fmt.Errorf("%w: %s is itself a canonical host", ErrDuplicateAlias, alias)
			}
			if existing, ok := table.canonical[alias]; ok && existing != target {
				return nil, fmt.Errorf("%w: %s (%s, %s)", ErrDuplicateAlias, alias, existing, target)
			}
			table.canonical[alias] = target
		}
	}

	return table, nil
}

// MustDefaultAliasTable panics only if DefaultAliases is inconsistent.
func MustDefaultAliasTable() *AliasTable {
	table, err := NewAliasTable(DefaultAliases)
	if err != nil {
		panic(err)
	}
	return table
}

type aliasFile struct {
	Aliases map[string][]string `toml:"aliases"`
}

// LoadAliasFile reads a TOML file of the form
//
//	[aliases]
//	"api.fxtwitter.com" = ["twitter.com", "x.com"]
//
// and merges it over DefaultAliases.
func LoadAliasFile(path string) (*AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file: %w", err)
	}

	var parsed aliasFile
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse alias file: %w", err)
	}

	merged := make(map[string][]string, len(DefaultAliases)+len(parsed.Aliases))
	for canonical, aliases := range DefaultAliases {
		merged[canonical] = slices.Clone(aliases)
	}
	for canonical, aliases := range parsed.Aliases {
		merged[canonical] = append(merged[canonical], aliases...)
	}

	return NewAliasTable(merged)
}

// Normalize rewrites an alias host to its canonical host. The port, path,
// query and fragment are kept as they are. URLs that cannot be parsed or
// whose host is not an alias are returned unchanged.
func (t *AliasTable) Normalize(rawURL string) string {
	if t == nil || len(t.canonical) == 0 {
		return rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}

	canonical, ok := t.canonical[strings.ToLower(parsed.Hostname())]
	if !ok {
		return rawURL
	}

	// splice the host in place so the rest stays byte-for-byte
	authStart := strings.Index(rawURL, "//")
	if authStart < 0 {
		return rawURL
	}
	authStart += 2
	authEnd := len(rawURL)
	if i := strings.IndexAny(rawURL[authStart:], "/?#"); i >= 0 {
		authEnd = authStart + i
	}
	hostStart := authStart
	if at := strings.LastIndex(rawURL[authStart:authEnd], "@"); at >= 0 {
		hostStart = authStart + at + 1
	}

	hostname := parsed.Hostname()
	rawHost := rawURL[hostStart:authEnd]
	if len(rawHost) < len(hostname) || !strings.EqualFold(rawHost[:len(hostname)], hostname) {
		return rawURL
	}
	return rawURL[:hostStart] + canonical + rawURL[hostStart+len(hostname):]
}

// Aliases returns a copy of the table as canonical host to sorted aliases.
func (t *AliasTable) Aliases() map[string][]string {
	result := make(map[string][]string)
	if t == nil {
		return result
	}
	for alias, canonical := range t.canonical {
		result[canonical] = append(result[canonical], alias)
	}
	for canonical := range result {
		slices.Sort(result[canonical])
	}
	return result
}
