package project

import (
	"context"
	"io"
	"log"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/edit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/netlist"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/sim"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/spatial"
)

// DefaultBounds is the placement grid used when none is configured.
var DefaultBounds = spatial.Bounds{Max: circuit.Cell{X: 39, Y: 29}}

// Session is one editing session: a document, its undo history and a
// logger. It is not safe for concurrent use.
type Session struct {
	doc     *edit.Document
	history *edit.History
	bounds  spatial.Bounds
	logger  *log.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithBounds sets the placement grid.
func WithBounds(b spatial.Bounds) Option {
	return func(s *Session) { s.bounds = b }
}

// WithHistoryDepth sets how many commands can be undone.
func WithHistoryDepth(depth int) Option {
	return func(s *Session) { s.history = edit.NewHistory(depth) }
}

// WithLogger routes session logging to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession starts an empty session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		bounds:  DefaultBounds,
		history: edit.NewHistory(edit.DefaultDepth),
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.doc = edit.NewDocument(s.bounds)
	return s
}

// Document returns the edited document. Callers must not mutate it directly.
func (s *Session) Document() *edit.Document { return s.doc }

// History returns the undo history.
func (s *Session) History() *edit.History { return s.history }

// Do applies cmd and records it for undo.
func (s *Session) Do(cmd edit.Command) error {
	if err := s.history.Execute(s.doc, cmd); err != nil {
		s.logger.Printf("rejected %s: %v", cmd.Label(), err)
		return err
	}
	s.logger.Printf("applied %s", cmd.Label())
	return nil
}

// Undo reverts the last command. It reports false when there was nothing to
// undo.
func (s *Session) Undo() (bool, error) {
	label := s.history.UndoLabel()
	ok, err := s.history.Undo(s.doc)
	if ok {
		s.logger.Printf("undid %s", label)
	}
	return ok, err
}

// Redo re-applies the last undone command. It reports false when there was
// nothing to redo.
func (s *Session) Redo() (bool, error) {
	label := s.history.RedoLabel()
	ok, err := s.history.Redo(s.doc)
	if ok {
		s.logger.Printf("redid %s", label)
	}
	return ok, err
}

// Resolve derives the electrical nodes of the current graph.
func (s *Session) Resolve() *connectivity.Result {
	return s.doc.Resolve()
}

// Build resolves connectivity and synthesizes the netlist.
func (s *Session) Build() *netlist.Netlist {
	comps := s.doc.Registry.Components()
	res := connectivity.Resolve(comps, s.doc.Registry.Wires())
	nl := netlist.Synthesize(comps, res)
	s.logger.Printf("build: %d components, %d nodes, %d errors, %d warnings",
		len(comps), len(nl.Nodes), len(nl.Errors()), len(nl.Warnings()))
	return nl
}

// Simulate builds the netlist and hands it to sm when it is valid.
func (s *Session) Simulate(ctx context.Context, sm sim.Simulator) (*netlist.Netlist, sim.Voltages, error) {
	nl := s.Build()
	v, err := sim.Run(ctx, sm, nl)
	if err != nil {
		return nl, nil, err
	}
	return nl, v, nil
}

// Dump returns the structural form of the current graph.
func (s *Session) Dump() Dump { return Snapshot(s.doc.Registry) }

// Load replaces the document with one built from d and clears the history.
// The session is unchanged when d is rejected.
func (s *Session) Load(d Dump) error {
	doc, err := Build(d, s.bounds)
	if err != nil {
		return err
	}
	s.doc = doc
	s.history.Clear()
	s.logger.Printf("loaded %d components, %d wires", len(d.Components), len(d.Wires))
	return nil
}
