package internal

import (
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
)

// Parser decodes raw file contents into a table of loosely typed records
type Parser interface {
	Parse(data []byte) (*Table, error)
}

// ParserFunc is a function that implements Parser
type ParserFunc func(data []byte) (*Table, error)

func (f ParserFunc) Parse(data []byte) (*Table, error) {
	return f(data)
}

// DefaultFormat is used when neither a prefix nor the extension names a format
const DefaultFormat = "csv"

// parsers is the registry of available input formats
var parsers = map[string]Parser{}

// extensions maps file extensions to registered formats
var extensions = map[string]string{}

// RegisterParser registers a parser under a format name and the file
// extensions (with leading dot) it should be picked for
func RegisterParser(name string, p Parser, exts ...string) {
	parsers[name] = p
	for _, ext := range exts {
		extensions[strings.ToLower(ext)] = name
	}
}

// GetParser returns the parser for the given format
func GetParser(format string) (Parser, error) {
	p, ok := parsers[format]
	if !ok {
		return nil, fmt.Errorf("unknown format: %s (available: %v)", format, AvailableFormats())
	}
	return p, nil
}

// AvailableFormats returns the registered format names, sorted
func AvailableFormats() []string {
	var formats []string
	for name := range parsers {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

// IsKnownParser returns true if the name is a registered format
func IsKnownParser(name string) bool {
	_, ok := parsers[name]
	return ok
}

// ParseFileArg splits a source argument that may carry a format prefix.
// Example: "xlsx:claims.xlsx" → ("xlsx", "claims.xlsx")
// Example: "https://host/claims.csv" → ("", "https://host/claims.csv")
// Example: "C:\data\claims.csv" → ("", "C:\data\claims.csv")
func ParseFileArg(arg string) (format, location string) {
	idx := strings.Index(arg, ":")
	if idx == -1 {
		return "", arg
	}
	prefix := arg[:idx]
	if IsKnownParser(prefix) {
		return prefix, arg[idx+1:]
	}
	return "", arg
}

// DetectFormat picks a format from the location's file extension.
// URLs are matched on their path, ignoring any query string.
func DetectFormat(location string) string {
	p := location
	if IsURL(location) {
		if u, err := url.Parse(location); err == nil {
			p = u.Path
		}
	}
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(p, "\\", "/")))
	if name, ok := extensions[ext]; ok {
		return name
	}
	return DefaultFormat
}

// ResolveFormat combines an explicit override, the source prefix and the
// extension, in that order of precedence
func ResolveFormat(override, source string) (format, location string, err error) {
	format, location = ParseFileArg(source)
	if override != "" {
		format = override
	}
	if format == "" {
		format = DetectFormat(location)
	}
	if !IsKnownParser(format) {
		return "", "", fmt.Errorf("unknown format: %s (available: %v)", format, AvailableFormats())
	}
	return format, location, nil
}

func init() {
	RegisterParser("csv", ParserFunc(ParseCSV), ".csv", ".txt")
}
