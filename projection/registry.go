package projection

import (
	"fmt"
	"strings"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pdok/maptile/mapslicehelp"
)

var (
	registryMu sync.RWMutex
	registry   = orderedmap.New[string, Projection]()
)

func init() {
	for _, p := range []Projection{NewSphericalMercator(), NewWGS84(), NewCGCS2000(), IdentityProjection{}, NewBaiduMercator()} {
		if err := Register(p); err != nil {
			panic(err)
		}
	}
}

// Register makes a projection available to Get under its (case-insensitive) code.
// Registering a code twice is an error.
func Register(p Projection) error {
	if p == nil || p.Code() == "" {
		return fmt.Errorf("cannot register a projection without code")
	}
	key := strings.ToUpper(p.Code())
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry.Get(key); exists {
		return fmt.Errorf("projection %q already registered", p.Code())
	}
	registry.Set(key, p)
	return nil
}

// Get returns the registered projection for code, matched case-insensitively.
func Get(code string) (Projection, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry.Get(strings.ToUpper(code))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, code)
	}
	return p, nil
}

// Codes lists the registered codes in registration order.
func Codes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return mapslicehelp.OrderedMapValues(registry, Projection.Code)
}
