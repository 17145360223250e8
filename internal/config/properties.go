package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"strings"
	"unicode"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrPropertyNotSet is returned by a Source for properties it does not hold.
var ErrPropertyNotSet = errors.New("property not set")

// Source exposes string configuration properties to a handler.
type Source interface {
	// StringProperty returns the named property. A property that is not set
	// yields ErrPropertyNotSet; a property set to "" is returned as is.
	StringProperty(name string) (string, error)
	// AllProperties returns a copy of every property.
	AllProperties() map[string]string
}

// Properties is a Source backed by a map.
type Properties map[string]string

// StringProperty implements Source.
func (p Properties) StringProperty(name string) (string, error) {
	v, ok := p[name]
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrPropertyNotSet)
	}
	return v, nil
}

// AllProperties implements Source.
func (p Properties) AllProperties() map[string]string {
	return maps.Clone(map[string]string(p))
}

// LoadProperties reads a flat YAML mapping of property names to values.
func LoadProperties(path string) (Properties, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read properties: %w", err)
	}
	props := Properties{}
	if err := yaml.Unmarshal(raw, &props); err != nil {
		return nil, fmt.Errorf("unmarshal properties %s: %w", path, err)
	}
	return props, nil
}

// WithEnv returns a copy of p where each named property is overridden by the
// environment variable prefix + EnvName(name), when that variable is set.
// A variable set to the empty string overrides too.
func (p Properties) WithEnv(prefix string, names ...string) Properties {
	out := Properties{}
	maps.Copy(out, p)
	for _, name := range names {
		if v, ok := os.LookupEnv(prefix + EnvName(name)); ok {
			out[name] = v
		}
	}
	return out
}

// EnvName converts a camelCase property name to UPPER_SNAKE_CASE, so
// "remoteHost" becomes "REMOTE_HOST".
func EnvName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}
