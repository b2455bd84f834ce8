package catalog

import (
	"fmt"
	"strings"
	"sync"
)

var (
	sharedFoojayOnce   sync.Once
	sharedFoojay       *Foojay
	sharedAdoptiumOnce sync.Once
	sharedAdoptium     *Adoptium
)

// SharedFoojay returns a process-wide Foojay client, so the distribution
// list is fetched once no matter how many sources use it. Options are only
// honoured on the first call.
func SharedFoojay(opts Options) *Foojay {
	sharedFoojayOnce.Do(func() {
		sharedFoojay = NewFoojay(opts)
	})
	return sharedFoojay
}

// SharedAdoptium returns a process-wide Adoptium client.
func SharedAdoptium(opts Options) *Adoptium {
	sharedAdoptiumOnce.Do(func() {
		sharedAdoptium = NewAdoptium(opts)
	})
	return sharedAdoptium
}

// Names lists the catalogs New understands.
var Names = []string{"foojay", "adoptium"}

// New returns the shared client for a catalog name.
func New(name string, opts Options) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "foojay", "":
		return SharedFoojay(opts), nil
	case "adoptium":
		return SharedAdoptium(opts), nil
	}
	return nil, fmt.Errorf("unknown catalog %q (available: %s)", name, strings.Join(Names, ", "))
}
