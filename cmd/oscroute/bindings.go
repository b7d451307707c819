package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/randalmurphal/oscspace/pkg/oscspace"
	"github.com/randalmurphal/oscspace/pkg/oscspace/registry"
	"github.com/randalmurphal/oscspace/pkg/oscspace/store"
)

// session is an address space rebuilt from a binding database. Handlers are
// placeholders named after the stored handler names.
type session struct {
	db    *store.SQLiteStore
	space *oscspace.AddressSpace
	reg   *registry.Registry
}

func openSession(c *cli.Context) (*session, error) {
	db, err := store.NewSQLiteStore(c.String("db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", c.String("db"), err)
	}

	bindings, err := db.List()
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &session{
		db:    db,
		space: oscspace.New(oscspace.WithLogger(loggerFor(c))),
		reg:   registry.New(),
	}
	for _, b := range bindings {
		s.handler(b.Handler)
	}
	if _, err := store.Restore(s.space, db, s.reg); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to restore bindings: %w", err)
	}
	return s, nil
}

func (s *session) handler(name string) *oscspace.Handler {
	return s.reg.GetOrCreate(name, func() *oscspace.Handler {
		return oscspace.HandleFunc(name, func(oscspace.Message) {})
	})
}

func (s *session) Close() error {
	return s.db.Close()
}

func bindingArgs(c *cli.Context) (string, string, error) {
	if c.NArg() != 2 {
		return "", "", fmt.Errorf("%s: expected ADDRESS HANDLER, got %d argument(s)", c.Command.Name, c.NArg())
	}
	return c.Args().Get(0), c.Args().Get(1), nil
}

// bindCommand persists HANDLER at ADDRESS.
func bindCommand(c *cli.Context) error {
	address, name, err := bindingArgs(c)
	if err != nil {
		return err
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := store.Bind(s.space, s.db, address, s.handler(name)); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "bound %s -> %s (%s)\n", address, name, oscspace.Classify(address))
	return nil
}

// unbindCommand deletes a persisted binding.
func unbindCommand(c *cli.Context) error {
	address, name, err := bindingArgs(c)
	if err != nil {
		return err
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	h, ok := s.reg.Get(name)
	if !ok {
		return fmt.Errorf("unbind: %w: %q", registry.ErrUnknown, name)
	}
	if err := store.Unbind(s.space, s.db, address, h); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "unbound %s -> %s\n", address, name)
	return nil
}

type bindingReport struct {
	Sequence  int64     `json:"sequence"`
	Address   string    `json:"address"`
	Kind      string    `json:"kind"`
	Handler   string    `json:"handler"`
	CreatedAt time.Time `json:"created_at"`
}

// listCommand prints every persisted binding in restore order.
func listCommand(c *cli.Context) error {
	db, err := store.NewSQLiteStore(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", c.String("db"), err)
	}
	defer db.Close()

	bindings, err := db.List()
	if err != nil {
		return err
	}

	reports := make([]bindingReport, len(bindings))
	for i, b := range bindings {
		reports[i] = bindingReport{
			Sequence:  b.Sequence,
			Address:   b.Address,
			Kind:      oscspace.Classify(b.Address).String(),
			Handler:   b.Handler,
			CreatedAt: b.CreatedAt,
		}
	}

	if c.Bool("json") {
		encoder := json.NewEncoder(c.App.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(reports)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tKIND\tADDRESS\tHANDLER")
	for _, r := range reports {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.Sequence, r.Kind, r.Address, r.Handler)
	}
	return w.Flush()
}
