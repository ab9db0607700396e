package script

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/edit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/project"
)

// Error reports the script line that failed, either to parse or to apply.
type Error struct {
	Line int
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("script: line %d: %v", e.Line, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Run parses src and executes its statements in order against s. Nothing is
// executed when src does not parse. Execution stops at the first statement
// that fails; the statements before it stay applied and can be undone.
// Run returns the number of statements executed.
func Run(s *project.Session, src string) (int, error) {
	sc, err := Parse(src)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			return 0, &Error{Line: perr.Position().Line, Err: errors.New(perr.Message())}
		}
		return 0, fmt.Errorf("script: %w", err)
	}
	for i, st := range sc.Statements {
		if err := exec(s, st); err != nil {
			return i, &Error{Line: st.Pos.Line, Err: err}
		}
	}
	return len(sc.Statements), nil
}

func exec(s *project.Session, st *Statement) error {
	switch {
	case st.Undo:
		_, err := s.Undo()
		return err
	case st.Redo:
		_, err := s.Redo()
		return err
	}
	cmd, err := compile(s.Document().Registry, st)
	if err != nil {
		return err
	}
	return s.Do(cmd)
}

// compile turns a statement into a command, resolving names against reg.
func compile(reg *circuit.Registry, st *Statement) (edit.Command, error) {
	switch {
	case st.Place != nil:
		return compilePlace(st.Place)
	case st.Connect != nil:
		from, err := resolvePin(reg, st.Connect.From)
		if err != nil {
			return nil, err
		}
		to, err := resolvePin(reg, st.Connect.To)
		if err != nil {
			return nil, err
		}
		var via []circuit.Cell
		for _, p := range st.Connect.Via {
			via = append(via, p.Cell())
		}
		return &edit.Connect{From: from, To: to, Via: via}, nil
	case st.Disconnect != nil:
		from, err := resolvePin(reg, st.Disconnect.From)
		if err != nil {
			return nil, err
		}
		to, err := resolvePin(reg, st.Disconnect.To)
		if err != nil {
			return nil, err
		}
		w, ok := reg.WireBetween(from, to)
		if !ok {
			return nil, fmt.Errorf("no wire between %s and %s: %w", st.Disconnect.From, st.Disconnect.To, circuit.ErrNotFound)
		}
		return &edit.Disconnect{Wire: w.ID}, nil
	case st.Move != nil:
		c, err := lookup(reg, st.Move.Name)
		if err != nil {
			return nil, err
		}
		return &edit.Move{ID: c.ID, To: st.Move.To.Cell()}, nil
	case st.Rotate != nil:
		c, err := lookup(reg, st.Rotate.Name)
		if err != nil {
			return nil, err
		}
		by := 90
		if st.Rotate.By != nil {
			by = st.Rotate.By.Degrees
			if by == 0 {
				by = 360
			}
		}
		return &edit.Rotate{ID: c.ID, By: by}, nil
	case st.Set != nil:
		c, err := lookup(reg, st.Set.Name)
		if err != nil {
			return nil, err
		}
		return &edit.SetValue{ID: c.ID, Text: st.Set.Value.Text}, nil
	case st.Rename != nil:
		c, err := lookup(reg, st.Rename.From)
		if err != nil {
			return nil, err
		}
		return &edit.Rename{ID: c.ID, Name: st.Rename.To}, nil
	case st.Toggle != nil:
		c, err := lookup(reg, st.Toggle.Name)
		if err != nil {
			return nil, err
		}
		return &edit.SetSwitch{ID: c.ID, Closed: !c.Closed}, nil
	case st.Delete != nil:
		var ids []circuit.ComponentID
		for _, name := range st.Delete.Names {
			c, err := lookup(reg, name)
			if err != nil {
				return nil, err
			}
			ids = append(ids, c.ID)
		}
		return edit.DeleteSelection(ids, nil), nil
	}
	return nil, errors.New("empty statement")
}

func compilePlace(p *PlaceStmt) (edit.Command, error) {
	kind, err := circuit.ParseKind(p.Kind)
	if err != nil {
		return nil, err
	}
	var o circuit.Orientation
	var value string
	for _, opt := range p.Options {
		switch {
		case opt.Rot != nil:
			if o, err = circuit.Orientation(0).Rotate(opt.Rot.Degrees); err != nil {
				return nil, err
			}
		case opt.Value != nil:
			value = opt.Value.Text
		}
	}
	if p.Where.Near != nil {
		return &edit.PlaceNear{Kind: kind, Near: p.Where.Near.Cell(), Orientation: o, Name: p.Name, Value: value}, nil
	}
	return &edit.Place{Kind: kind, At: p.Where.At.Cell(), Orientation: o, Name: p.Name, Value: value}, nil
}

func lookup(reg *circuit.Registry, name string) (*circuit.Component, error) {
	c, ok := reg.ComponentByName(name)
	if !ok {
		return nil, fmt.Errorf("component %q: %w", name, circuit.ErrNotFound)
	}
	return c, nil
}

func resolvePin(reg *circuit.Registry, ref *PinRef) (circuit.Endpoint, error) {
	c, err := lookup(reg, ref.Component)
	if err != nil {
		return circuit.Endpoint{}, err
	}
	index, ok := c.Model().PinIndex(ref.Pin)
	if !ok {
		return circuit.Endpoint{}, fmt.Errorf("%s has no pin %q: %w", c.Name, ref.Pin, circuit.ErrNotFound)
	}
	return circuit.Endpoint{Component: c.ID, Pin: index}, nil
}

// Cell converts p to a grid cell.
func (p *Point) Cell() circuit.Cell { return circuit.Cell{X: p.X, Y: p.Y} }
