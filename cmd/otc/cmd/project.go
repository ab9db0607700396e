package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects in the SQLite store",
	Long: `Commands for copying projects between dump files and the SQLite store
selected by --store or $OTC_STORE_PATH.`,
}

var projectSaveCmd = &cobra.Command{
	Use:   "save <file> [name]",
	Short: "Store a dump file under a name",
	Long: `Validate a dump file and store it. The name defaults to the file name
without its extension. An existing project with the same name is replaced.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runProjectSave,
}

var projectLoadCmd = &cobra.Command{
	Use:   "load <name> <file>",
	Short: "Write a stored project to a dump file",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectLoad,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored projects, newest first",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

var projectRenameCmd = &cobra.Command{
	Use:   "rename <from> <to>",
	Short: "Rename a stored project",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectRename,
}

var projectRmCmd = &cobra.Command{
	Use:     "rm <name>",
	Aliases: []string{"delete"},
	Short:   "Delete a stored project",
	Args:    cobra.ExactArgs(1),
	RunE:    runProjectRm,
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectSaveCmd, projectLoadCmd, projectListCmd, projectRenameCmd, projectRmCmd)
}

func runProjectSave(cmd *cobra.Command, args []string) error {
	file := args[0]
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	if len(args) == 2 {
		name = args[1]
	}

	// Loading through a session rejects dumps that would not rebuild.
	s, err := openProject(cmd.Context(), file)
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(cmd.Context(), name, s.Dump()); err != nil {
		return err
	}
	fmt.Printf("Saved %s as %q\n", file, name)
	return nil
}

func runProjectLoad(cmd *cobra.Command, args []string) error {
	name, file := args[0], args[1]
	if !isFileRef(file) {
		return fmt.Errorf("%s: want a .json or .yaml file", file)
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	d, err := store.Load(cmd.Context(), name)
	if err != nil {
		return err
	}
	if err := writeDump(cmd.Context(), file, d); err != nil {
		return err
	}
	fmt.Printf("Wrote %q to %s\n", name, file)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No projects stored")
		return nil
	}
	fmt.Printf("%-20s %10s %6s  %s\n", "NAME", "COMPONENTS", "WIRES", "UPDATED")
	for _, p := range list {
		fmt.Printf("%-20s %10d %6d  %s\n", p.Name, p.Components, p.Wires, p.UpdatedAt.Local().Format(time.DateTime))
	}
	return nil
}

func runProjectRename(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Rename(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Renamed %q to %q\n", args[0], args[1])
	return nil
}

func runProjectRm(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %q\n", args[0])
	return nil
}
