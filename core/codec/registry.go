package codec

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/FocuswithJustin/dansk/core/errors"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Codec)
)

// Register installs the Danish codec. It may be called any number of times
// from any goroutine, also after RegisterCodec(Dansk); repeats are no-ops.
// It fails only when a different codec already holds the name.
func Register() error {
	key := normalize(Dansk.Name)
	registryMu.Lock()
	defer registryMu.Unlock()
	if c, ok := registry[key]; ok {
		if c == Dansk {
			return nil
		}
		return errors.NewConfiguration(key, "name taken by another codec")
	}
	registry[key] = Dansk
	return nil
}

// RegisterCodec adds c under its normalized name.
func RegisterCodec(c *Codec) error {
	if c == nil {
		return errors.NewConfiguration("codec", "nil codec")
	}
	key := normalize(c.Name)
	if key == "" {
		return errors.NewConfiguration("codec", "codec has no name")
	}
	if c.Decode == nil || c.NewDecoder == nil {
		return errors.NewConfiguration(key, "codec has no decoder")
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[key]; exists {
		return errors.NewConfiguration(key, "codec already registered")
	}
	registry[key] = c
	return nil
}

// Lookup returns the codec registered under name.
func Lookup(name string) (*Codec, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if c, ok := registry[normalize(name)]; ok {
		return c, nil
	}
	return nil, errors.NewNotFound("codec", name)
}

// Names lists the registered codec names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// normalize folds a codec name the way Python's codec lookup does: lower
// case, with every run of characters other than letters, digits and dots
// turned into a single underscore and no underscore at either end.
func normalize(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}
