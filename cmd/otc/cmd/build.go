package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/netlist"
)

var buildCmd = &cobra.Command{
	Use:   "build <project>",
	Short: "Resolve connectivity and validate the netlist",
	Long: `Resolve the project's electrical nodes, synthesize its netlist and print
every validation issue. The command fails when any issue is an error.

Examples:
  otc build blinky.yaml
  otc build blinky --store circuits.db`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	s, err := openProject(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	nl := s.Build()
	printBuildSummary(args[0], len(s.Document().Registry.Wires()), nl)

	if errs := nl.Errors(); len(errs) > 0 {
		return fmt.Errorf("%s: netlist has %d error(s)", args[0], len(errs))
	}
	return nil
}

func printBuildSummary(name string, wires int, nl *netlist.Netlist) {
	fmt.Printf("Project: %s\n", name)
	fmt.Printf("Elements: %d\n", len(nl.Entries))
	fmt.Printf("Wires: %d\n", wires)
	ground := "no"
	if nl.HasGround {
		ground = "yes"
	}
	fmt.Printf("Nodes: %d (ground: %s)\n", len(nl.Nodes), ground)

	if len(nl.Issues) == 0 {
		fmt.Println("Netlist is valid")
		return
	}
	fmt.Println()
	fmt.Println("Issues:")
	for _, issue := range nl.Issues {
		fmt.Printf("  %s\n", issue)
	}
}
