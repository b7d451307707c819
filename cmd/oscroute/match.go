package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/randalmurphal/oscspace/pkg/oscspace"
	"github.com/randalmurphal/oscspace/pkg/oscspace/config"
	"github.com/randalmurphal/oscspace/pkg/oscspace/registry"
)

// matchCommand loads a route table and dispatches each argument through it,
// printing the route taken and the handlers that ran.
func matchCommand(c *cli.Context) error {
	cfg, err := config.FromFile(c.String("routes"))
	if err != nil {
		return fmt.Errorf("failed to load routes: %w", err)
	}

	invoked := &invocations{}
	reg := registry.New()
	for _, r := range cfg.Routes {
		invoked.register(reg, r.Handler)
	}

	space, err := cfg.Build(reg, loggerFor(c))
	if err != nil {
		return fmt.Errorf("failed to build address space: %w", err)
	}

	out := c.App.Writer
	for _, address := range c.Args().Slice() {
		invoked.reset()
		route, err := space.DispatchRoute(c.Context, oscspace.Message{Address: address})
		if err != nil {
			return fmt.Errorf("dispatch %s: %w", address, err)
		}
		if route == oscspace.RouteNone {
			fmt.Fprintf(out, "%s  none\n", address)
			if s := suggest(address, candidates(space)); len(s) > 0 {
				fmt.Fprintf(out, "  did you mean: %s\n", strings.Join(s, ", "))
			}
			continue
		}
		fmt.Fprintf(out, "%s  %s  %s\n", address, route, strings.Join(invoked.names, ","))
	}

	if p := c.String("incoming"); p != "" {
		methods, ok := space.TryMatchIncomingPattern(p)
		if !ok {
			fmt.Fprintf(out, "incoming %s  none\n", p)
			return nil
		}
		var names []string
		for _, m := range methods {
			for _, h := range m.Handlers() {
				names = append(names, h.Name())
			}
		}
		fmt.Fprintf(out, "incoming %s  %s\n", p, strings.Join(names, ","))
	}
	return nil
}

// invocations records handler names in call order.
type invocations struct {
	names []string
}

func (i *invocations) register(reg *registry.Registry, name string) {
	reg.GetOrCreate(name, func() *oscspace.Handler {
		return oscspace.HandleFunc(name, func(oscspace.Message) {
			i.names = append(i.names, name)
		})
	})
}

func (i *invocations) reset() {
	i.names = i.names[:0]
}

func candidates(space *oscspace.AddressSpace) []string {
	return append(space.Addresses(), space.Patterns()...)
}
