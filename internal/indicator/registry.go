package indicator

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// IndicatorRegistry manages all available indicators.
type IndicatorRegistry interface {
	RegisterIndicator(indicator Indicator) error
	GetIndicator(name types.IndicatorType) (Indicator, error)
	ListIndicators() []types.IndicatorType
	RemoveIndicator(name types.IndicatorType) error
}

// IndicatorRegistryV1 is a map backed IndicatorRegistry safe for concurrent use.
type IndicatorRegistryV1 struct {
	indicators map[types.IndicatorType]Indicator
	mu         sync.RWMutex
}

// NewIndicatorRegistry creates a new, empty indicator registry.
func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		indicators: make(map[types.IndicatorType]Indicator),
		mu:         sync.RWMutex{},
	}
}

// NewDefaultRegistry creates a registry holding every built-in indicator with its default configuration.
func NewDefaultRegistry() IndicatorRegistry {
	return mustRegister(
		NewMA(),
		NewEMA(),
		NewRSI(),
		NewMACD(),
		NewBollingerBands(),
		NewATR(),
		NewADX(),
		NewSuperTrend(),
		NewRangeFilter(),
		NewWaddahAttar(),
	)
}

// mustRegister builds a registry from indicators and panics when two share a name.
func mustRegister(indicators ...Indicator) IndicatorRegistry {
	registry := NewIndicatorRegistry()

	for _, ind := range indicators {
		if err := registry.RegisterIndicator(ind); err != nil {
			panic(err)
		}
	}

	return registry
}

// NewIndicator returns a fresh, default configured indicator by name.
func NewIndicator(name types.IndicatorType) (Indicator, error) {
	switch name {
	case types.IndicatorTypeMA:
		return NewMA(), nil
	case types.IndicatorTypeEMA:
		return NewEMA(), nil
	case types.IndicatorTypeRSI:
		return NewRSI(), nil
	case types.IndicatorTypeMACD:
		return NewMACD(), nil
	case types.IndicatorTypeBollingerBands:
		return NewBollingerBands(), nil
	case types.IndicatorTypeATR:
		return NewATR(), nil
	case types.IndicatorTypeADX:
		return NewADX(), nil
	case types.IndicatorTypeSuperTrend:
		return NewSuperTrend(), nil
	case types.IndicatorTypeRangeFilter:
		return NewRangeFilter(), nil
	case types.IndicatorTypeWaddahAttar:
		return NewWaddahAttar(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "unknown indicator: %s", name)
	}
}

// RegisterIndicator adds an indicator to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(indicator Indicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := indicator.Name()
	if _, exists := r.indicators[name]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "indicator with name %s already registered", name)
	}

	r.indicators[name] = indicator

	return nil
}

// GetIndicator retrieves an indicator by name.
func (r *IndicatorRegistryV1) GetIndicator(name types.IndicatorType) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicator, exists := r.indicators[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator with name %s not found", name)
	}

	return indicator, nil
}

// ListIndicators returns the registered indicator names in sorted order.
func (r *IndicatorRegistryV1) ListIndicators() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.indicators))
	for name := range r.indicators {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		return names[i] < names[j]
	})

	return names
}

// RemoveIndicator removes an indicator from the registry.
func (r *IndicatorRegistryV1) RemoveIndicator(name types.IndicatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.indicators[name]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator with name %s not found", name)
	}

	delete(r.indicators, name)

	return nil
}
