package env

import (
	"os"
)

// Source supplies environment values for bind seeding.
type Source interface {
	Lookup(name string) (string, bool)
}

// OSSource reads the process environment. With a Prefix, name is looked up
// as Prefix+name.
type OSSource struct {
	Prefix string
}

func (s OSSource) Lookup(name string) (string, bool) {
	return os.LookupEnv(s.Prefix + name)
}

// MapSource serves values from a fixed map, such as a loaded .env file.
type MapSource map[string]string

func (s MapSource) Lookup(name string) (string, bool) {
	v, ok := s[name]
	return v, ok
}

// Chain consults each source in order and returns the first hit.
type Chain []Source

func (c Chain) Lookup(name string) (string, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if v, ok := src.Lookup(name); ok {
			return v, true
		}
	}
	return "", false
}
