package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCircuit/internal/config"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/project"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/project/sqlite"
)

var (
	// Global flags
	verbose   bool
	storePath string

	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "otc",
	Short: "OpenTraceCircuit - circuit graph editing and netlist tools",
	Long: `OpenTraceCircuit (otc) edits grid-placed circuits and turns them into
validated netlists. A <project> argument is either a .json/.yaml dump file or
the name of a project in the SQLite store.

Examples:
  otc script blinky.otc -o blinky.yaml             # Build a circuit from a script
  otc build blinky.yaml                            # Validate the netlist
  otc netlist export blinky.yaml --format spice    # Write a SPICE deck
  otc project save blinky.yaml blinky              # Store the project`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every edit to stderr")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "SQLite project store (default $OTC_STORE_PATH or otc.db)")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.FromEnv()
	if err != nil {
		return err
	}
	if storePath != "" {
		c.StorePath = storePath
	}
	if verbose {
		c.Verbose = true
	}
	cfg = c
	return nil
}

func newSession() *project.Session {
	opts := []project.Option{
		project.WithBounds(cfg.Bounds()),
		project.WithHistoryDepth(cfg.HistoryDepth),
	}
	if cfg.Verbose {
		opts = append(opts, project.WithLogger(log.New(os.Stderr, "otc: ", 0)))
	}
	return project.NewSession(opts...)
}

// isFileRef reports whether ref names a dump file rather than a stored
// project.
func isFileRef(ref string) bool {
	_, err := project.FormatFromPath(ref)
	return err == nil
}

func openStore() (*sqlite.Store, error) {
	store, err := sqlite.Open(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open project store: %w", err)
	}
	return store, nil
}

func readDump(ctx context.Context, ref string) (project.Dump, error) {
	if isFileRef(ref) {
		return project.LoadFile(ref)
	}
	store, err := openStore()
	if err != nil {
		return project.Dump{}, err
	}
	defer store.Close()
	return store.Load(ctx, ref)
}

func writeDump(ctx context.Context, ref string, d project.Dump) error {
	if isFileRef(ref) {
		return project.SaveFile(ref, d)
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(ctx, ref, d)
}

// openProject loads ref into a fresh session.
func openProject(ctx context.Context, ref string) (*project.Session, error) {
	d, err := readDump(ctx, ref)
	if err != nil {
		return nil, err
	}
	s := newSession()
	if err := s.Load(d); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", ref, err)
	}
	return s, nil
}
