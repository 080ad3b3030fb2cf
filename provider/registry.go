package provider

import (
	"fmt"
	"sync"
)

// MethodRegistry manages all payment method implementations
type MethodRegistry struct {
	methods map[string]MethodFactory
	mu      sync.RWMutex
}

// NewMethodRegistry creates a new payment method registry
func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodFactory),
	}
}

// Register adds a payment method factory to the registry
func (r *MethodRegistry) Register(systemName string, factory MethodFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[systemName] = factory
}

// Get retrieves a payment method factory by system name
func (r *MethodRegistry) Get(systemName string) (MethodFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.methods[systemName]
	if !exists {
		return nil, fmt.Errorf("payment method '%s' is not registered", systemName)
	}

	return factory, nil
}

// CreateMethod creates a new instance of a payment method
func (r *MethodRegistry) CreateMethod(systemName string) (PaymentMethod, error) {
	factory, err := r.Get(systemName)
	if err != nil {
		return nil, err
	}

	return factory(), nil
}

// MethodNames returns a list of all registered method system names
func (r *MethodRegistry) MethodNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}

	return names
}

// DefaultRegistry is the global default method registry
var DefaultRegistry = NewMethodRegistry()

// Register registers a payment method with the default registry
func Register(systemName string, factory MethodFactory) {
	DefaultRegistry.Register(systemName, factory)
}

// Get retrieves a method factory from the default registry
func Get(systemName string) (MethodFactory, error) {
	return DefaultRegistry.Get(systemName)
}

// CreateMethod creates a method instance from the default registry
func CreateMethod(systemName string) (PaymentMethod, error) {
	return DefaultRegistry.CreateMethod(systemName)
}
