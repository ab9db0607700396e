package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/project"
)

var (
	outputJSON bool
)

// ProjectInfo is the structured form of a project printed by info --json.
type ProjectInfo struct {
	Components []ComponentInfo `json:"components"`
	Wires      []WireInfo      `json:"wires"`
	Nodes      []NodeInfo      `json:"nodes"`
}

// ComponentInfo describes one placed component
type ComponentInfo struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Orientation int    `json:"orientation"`
	Value       string `json:"value,omitempty"`
	Closed      *bool  `json:"closed,omitempty"`
}

// WireInfo describes one wire by its pin labels
type WireInfo struct {
	ID    int    `json:"id"`
	From  string `json:"from"`
	To    string `json:"to"`
	Bends int    `json:"bends,omitempty"`
}

// NodeInfo lists the pins on one electrical node
type NodeInfo struct {
	ID     int      `json:"id"`
	Ground bool     `json:"ground,omitempty"`
	Pins   []string `json:"pins"`
}

var infoCmd = &cobra.Command{
	Use:   "info <project>",
	Short: "Show components, wires and nodes",
	Long: `Display the components, wires and resolved electrical nodes of a project.

Examples:
  otc info blinky.yaml
  otc info blinky.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolVar(&outputJSON, "json", false,
		"output as JSON (for programmatic access)")
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, err := openProject(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	info := buildProjectInfo(s)

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	printProjectInfo(args[0], info)
	return nil
}

func buildProjectInfo(s *project.Session) *ProjectInfo {
	reg := s.Document().Registry
	res := s.Resolve()
	info := &ProjectInfo{}

	for _, c := range reg.Components() {
		ci := ComponentInfo{
			Name:        c.Name,
			Kind:        c.Kind.String(),
			X:           c.Pos.X,
			Y:           c.Pos.Y,
			Orientation: int(c.Orientation),
		}
		if c.Model().Numeric {
			ci.Value = c.Value
		}
		if c.Kind == circuit.Switch {
			closed := c.Closed
			ci.Closed = &closed
		}
		info.Components = append(info.Components, ci)
	}

	for _, w := range reg.Wires() {
		info.Wires = append(info.Wires, WireInfo{
			ID:    int(w.ID),
			From:  pinLabel(reg, w.From.PinID()),
			To:    pinLabel(reg, w.To.PinID()),
			Bends: len(w.Bends),
		})
	}

	for _, id := range res.Nodes() {
		node := NodeInfo{ID: int(id), Ground: res.HasGround && id == res.Ground}
		for _, pid := range res.NodeToPins[id] {
			node.Pins = append(node.Pins, pinLabel(reg, pid))
		}
		info.Nodes = append(info.Nodes, node)
	}
	return info
}

func pinLabel(reg *circuit.Registry, id circuit.PinID) string {
	pin, ok := reg.PinByID(id)
	if !ok {
		return fmt.Sprintf("pin#%d", id)
	}
	c, ok := reg.Component(pin.Component)
	if !ok {
		return fmt.Sprintf("#%d.%s", pin.Component, pin.Name)
	}
	return c.Name + "." + pin.Name
}

func printProjectInfo(name string, info *ProjectInfo) {
	fmt.Printf("Project: %s\n", name)
	fmt.Println()

	fmt.Printf("Components (%d):\n", len(info.Components))
	for _, c := range info.Components {
		fmt.Printf("  %-6s %-9s at %3d,%-3d rot %-3d", c.Name, c.Kind, c.X, c.Y, c.Orientation)
		if c.Value != "" {
			fmt.Printf(" value %s", c.Value)
		}
		if c.Closed != nil {
			if *c.Closed {
				fmt.Print(" closed")
			} else {
				fmt.Print(" open")
			}
		}
		fmt.Println()
	}
	fmt.Println()

	fmt.Printf("Wires (%d):\n", len(info.Wires))
	for _, w := range info.Wires {
		fmt.Printf("  W%-4d %s -> %s", w.ID, w.From, w.To)
		if w.Bends > 0 {
			fmt.Printf(" (%d bends)", w.Bends)
		}
		fmt.Println()
	}
	fmt.Println()

	fmt.Printf("Nodes (%d):\n", len(info.Nodes))
	for _, n := range info.Nodes {
		label := fmt.Sprintf("n%d", n.ID)
		if n.Ground {
			label = "gnd"
		}
		fmt.Printf("  %-5s %s\n", label, strings.Join(n.Pins, " "))
	}
}
