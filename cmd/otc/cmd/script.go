package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/project"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/script"
)

var (
	scriptIn  string
	scriptOut string
)

var scriptCmd = &cobra.Command{
	Use:   "script <file>",
	Short: "Run an edit script",
	Long: `Execute an edit script statement by statement, starting from an empty
circuit or from --in. Execution stops at the first failing statement and the
edits before it are kept. With -o the result is saved to a file or to the
project store.

Examples:
  otc script blinky.otc -o blinky.yaml
  otc script tweak.otc --in blinky.yaml -o blinky-v2.yaml
  otc script tweak.otc --in blinky -o blinky`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(scriptCmd)

	scriptCmd.Flags().StringVar(&scriptIn, "in", "", "project to start from")
	scriptCmd.Flags().StringVarP(&scriptOut, "output", "o", "", "project to save the result to")
}

func runScript(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	var s *project.Session
	if scriptIn != "" {
		if s, err = openProject(cmd.Context(), scriptIn); err != nil {
			return err
		}
	} else {
		s = newSession()
	}

	n, runErr := script.Run(s, string(src))
	fmt.Printf("Executed %d statement(s)\n", n)
	d := s.Dump()
	fmt.Printf("Components: %d, Wires: %d\n", len(d.Components), len(d.Wires))
	if runErr != nil {
		return fmt.Errorf("%s: %w", args[0], runErr)
	}

	if scriptOut == "" {
		return nil
	}
	if err := writeDump(cmd.Context(), scriptOut, d); err != nil {
		return fmt.Errorf("failed to save %s: %w", scriptOut, err)
	}
	fmt.Printf("Saved %s\n", scriptOut)
	return nil
}
