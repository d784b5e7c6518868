// Package strategies holds the built-in trading strategies and the name
// registry the CLI resolves them from.
package strategies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Heilo-qaq/ai-stock-advisor/backtest"
	"github.com/Heilo-qaq/ai-stock-advisor/config"
)

var registry = make(map[string]func(cfg *config.Config) backtest.Strategy)

// Register makes a strategy constructor available under name. Later
// registrations replace earlier ones.
func Register(name string, build func(cfg *config.Config) backtest.Strategy) {
	registry[strings.ToLower(name)] = build
}

// ByName builds the named strategy, or errors listing what is available.
func ByName(name string, cfg *config.Config) (backtest.Strategy, error) {
	build, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, Names())
	}
	return build(cfg), nil
}

// Names lists the registered strategy names, comma separated.
func Names() string {
	var names []string
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func init() {
	Register("noop", func(*config.Config) backtest.Strategy { return Noop{} })
	Register("open-once", func(cfg *config.Config) backtest.Strategy { return NewOpenOnce(cfg) })
	Register("momentum", func(cfg *config.Config) backtest.Strategy { return NewMomentum(cfg) })
}
