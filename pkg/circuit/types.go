package circuit

import (
	"fmt"
	"strings"
)

// ComponentID identifies a component for its whole lifetime, including while
// it is tombstoned by an undoable delete.
type ComponentID int

// PinID identifies a pin. It is derived from the owning component id and the
// pin index, so it never changes across undo or serialization.
type PinID int

// WireID identifies a wire.
type WireID int

// BendID identifies a bend point.
type BendID int

// MaxPins is the upper bound on pins per component and the stride used to
// derive pin ids.
const MaxPins = 8

// MakePinID returns the id of pin index on component c.
func MakePinID(c ComponentID, index int) PinID {
	return PinID(int(c)*MaxPins + index)
}

// Split returns the component id and pin index encoded in id.
func (id PinID) Split() (ComponentID, int) {
	return ComponentID(int(id) / MaxPins), int(id) % MaxPins
}

// Kind is the electrical type of a component.
type Kind int

const (
	Resistor Kind = iota
	VoltageSource
	LED
	Switch
	Ground
)

var kindNames = map[Kind]string{
	Resistor:      "resistor",
	VoltageSource: "source",
	LED:           "led",
	Switch:        "switch",
	Ground:        "ground",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the names printed by Kind.String plus a few aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resistor", "r":
		return Resistor, nil
	case "source", "voltagesource", "vdc", "v":
		return VoltageSource, nil
	case "led", "d":
		return LED, nil
	case "switch", "sw":
		return Switch, nil
	case "ground", "gnd":
		return Ground, nil
	}
	return 0, fmt.Errorf("circuit: unknown component kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("circuit: unknown component kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Role tags a pin for connection rules.
type Role int

const (
	RoleIn Role = iota
	RoleOut
	RoleGround
)

func (r Role) String() string {
	switch r {
	case RoleIn:
		return "in"
	case RoleOut:
		return "out"
	case RoleGround:
		return "gnd"
	default:
		return "unknown"
	}
}

// Orientation is a rotation in degrees, restricted to quarter turns.
type Orientation int

// Valid reports whether o is one of 0, 90, 180 or 270.
func (o Orientation) Valid() bool {
	switch o {
	case 0, 90, 180, 270:
		return true
	}
	return false
}

// Rotate returns o turned by deg, which must be a multiple of 90.
func (o Orientation) Rotate(deg int) (Orientation, error) {
	if deg%90 != 0 {
		return o, fmt.Errorf("circuit: rotate by %d: %w", deg, ErrInvalidOrientation)
	}
	r := (int(o) + deg) % 360
	if r < 0 {
		r += 360
	}
	return Orientation(r), nil
}

// Cell is an integer grid position.
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns c translated by d.
func (c Cell) Add(d Cell) Cell { return Cell{c.X + d.X, c.Y + d.Y} }

func (c Cell) String() string { return fmt.Sprintf("%d,%d", c.X, c.Y) }
