package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

var netlistCmd = &cobra.Command{
	Use:   "netlist",
	Short: "Netlist operations",
	Long:  `Commands for working with the netlist synthesized from a project`,
}

var netlistExportCmd = &cobra.Command{
	Use:   "export <project>",
	Short: "Export the netlist as SPICE, KiCad or JSON",
	Long: `Synthesize the project's netlist and write it in the chosen format.
Projects with validation errors are still exported; run 'otc build' to check
them first.

Examples:
  otc netlist export blinky.yaml --format spice
  otc netlist export blinky.yaml --format kicad -o blinky.net
  otc netlist export blinky --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runNetlistExport,
}

func init() {
	rootCmd.AddCommand(netlistCmd)
	netlistCmd.AddCommand(netlistExportCmd)

	netlistExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "spice",
		"output format: spice, kicad or json")
	netlistExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "",
		"write to file instead of stdout")
}

func runNetlistExport(cmd *cobra.Command, args []string) error {
	s, err := openProject(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	nl := s.Build()

	var out []byte
	switch exportFormat {
	case "spice":
		out = []byte(nl.ExportSPICE())
	case "kicad":
		text, err := nl.ExportKiCad(s.Document().Registry.Components(), s.Resolve())
		if err != nil {
			return fmt.Errorf("kicad export failed: %w", err)
		}
		out = []byte(text)
	case "json":
		if out, err = nl.ExportJSON(); err != nil {
			return fmt.Errorf("json export failed: %w", err)
		}
		out = append(out, '\n')
	default:
		return fmt.Errorf("unknown format %q (want spice, kicad or json)", exportFormat)
	}

	if exportOutput == "" {
		_, err := os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(exportOutput, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOutput, err)
	}
	fmt.Printf("Wrote %s netlist to %s\n", exportFormat, exportOutput)
	return nil
}
