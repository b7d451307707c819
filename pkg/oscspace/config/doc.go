// Package config loads address space settings and routing tables from files.
//
// # Overview
//
// A Config describes how to build an oscspace.AddressSpace (table capacities,
// promotion, observability switches) and which named handlers to bind at
// which addresses. Handlers are resolved by name through a registry.Registry,
// so the same file can be applied to any process that registers the names
// it references.
//
// # Formats
//
// FromFile picks a decoder by extension:
//   - .yaml, .yml: gopkg.in/yaml.v3
//   - .json: encoding/json
//   - .toml: github.com/pelletier/go-toml/v2
//
// A YAML routing table:
//
//	capacity: 64
//	promote: true
//	metrics: true
//	routes:
//	  - address: /synth/1/freq
//	    handler: synth
//	  - address: /synth/*/gate
//	    handler: gate
//
// # Applying
//
//	cfg, err := config.FromFile("routes.yaml")
//	if err != nil {
//	    return err
//	}
//	space := oscspace.New(cfg.Options(logger)...)
//	if err := cfg.Apply(space, reg); err != nil {
//	    // err joins one *RouteError per rejected route
//	}
//
// Apply keeps going after a bad route so a single typo does not hide the rest
// of the table.
package config
