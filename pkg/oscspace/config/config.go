package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/oscspace/pkg/oscspace"
	"github.com/randalmurphal/oscspace/pkg/oscspace/registry"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("config: invalid")

// Config is the on-disk description of an address space.
type Config struct {
	// Name labels log records from the space.
	Name string `yaml:"name" json:"name" toml:"name"`

	// Capacity pre-sizes the literal address table. Zero means the default.
	Capacity int `yaml:"capacity" json:"capacity" toml:"capacity"`

	// PatternCapacity is the initial number of pattern slots. Zero means the default.
	PatternCapacity int `yaml:"pattern_capacity" json:"pattern_capacity" toml:"pattern_capacity"`

	// Promote enables caching of pattern matches under the literal address.
	// Nil keeps the address space default (enabled).
	Promote *bool `yaml:"promote" json:"promote" toml:"promote"`

	Metrics bool `yaml:"metrics" json:"metrics" toml:"metrics"`
	Tracing bool `yaml:"tracing" json:"tracing" toml:"tracing"`

	Routes []Route `yaml:"routes" json:"routes" toml:"routes"`
}

// Route binds the handler registered under Handler to Address.
// Address may be a literal address or a pattern.
type Route struct {
	Address string `yaml:"address" json:"address" toml:"address"`
	Handler string `yaml:"handler" json:"handler" toml:"handler"`
}

// RouteError reports a route that could not be validated or bound.
type RouteError struct {
	Index   int
	Address string
	Handler string
	Err     error
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("route %d (%s -> %s): %v", e.Index, e.Address, e.Handler, e.Err)
}

func (e *RouteError) Unwrap() error {
	return e.Err
}

// Validate checks capacities and every route. All problems are reported,
// joined with errors.Join.
func (c *Config) Validate() error {
	var errs []error
	if c.Capacity < 0 {
		errs = append(errs, fmt.Errorf("%w: capacity %d is negative", ErrInvalidConfig, c.Capacity))
	}
	if c.PatternCapacity < 0 {
		errs = append(errs, fmt.Errorf("%w: pattern_capacity %d is negative", ErrInvalidConfig, c.PatternCapacity))
	}
	for i, r := range c.Routes {
		if err := r.validate(); err != nil {
			errs = append(errs, &RouteError{Index: i, Address: r.Address, Handler: r.Handler, Err: err})
		}
	}
	return errors.Join(errs...)
}

func (r Route) validate() error {
	if oscspace.Classify(r.Address) == oscspace.Invalid {
		return oscspace.ErrInvalidAddress
	}
	if r.Handler == "" {
		return registry.ErrEmptyName
	}
	return nil
}

// Options converts the settings into address space options.
// A nil logger leaves logging disabled.
func (c *Config) Options(logger *slog.Logger) []oscspace.Option {
	opts := []oscspace.Option{
		oscspace.WithMetrics(c.Metrics),
		oscspace.WithTracing(c.Tracing),
	}
	if c.Capacity > 0 {
		opts = append(opts, oscspace.WithCapacity(c.Capacity))
	}
	if c.PatternCapacity > 0 {
		opts = append(opts, oscspace.WithPatternCapacity(c.PatternCapacity))
	}
	if c.Promote != nil {
		opts = append(opts, oscspace.WithPromotion(*c.Promote))
	}
	if logger != nil {
		opts = append(opts, oscspace.WithLogger(logger))
	}
	if c.Name != "" {
		opts = append(opts, oscspace.WithName(c.Name))
	}
	return opts
}

// Apply binds every route into space, resolving handler names through reg.
// Routes that fail are skipped and reported together; the rest are bound.
func (c *Config) Apply(space *oscspace.AddressSpace, reg *registry.Registry) error {
	var errs []error
	for i, r := range c.Routes {
		if err := apply(space, reg, r); err != nil {
			errs = append(errs, &RouteError{Index: i, Address: r.Address, Handler: r.Handler, Err: err})
		}
	}
	return errors.Join(errs...)
}

func apply(space *oscspace.AddressSpace, reg *registry.Registry, r Route) error {
	if err := r.validate(); err != nil {
		return err
	}
	h, err := reg.Lookup(r.Handler)
	if err != nil {
		return err
	}
	return space.Bind(r.Address, h)
}

// Build validates c, creates an address space from it and applies the routes.
func (c *Config) Build(reg *registry.Registry, logger *slog.Logger) (*oscspace.AddressSpace, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	space := oscspace.New(c.Options(logger)...)
	if err := c.Apply(space, reg); err != nil {
		return space, err
	}
	return space, nil
}
