package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cuepoint/internal/cms"
	"cuepoint/internal/persist"
)

var cmsCmd = &cobra.Command{
	Use:   "cms",
	Short: "Manage editable site content",
}

var cmsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print the value stored under a dotted key",
	Args:  cobra.ExactArgs(1),
	RunE:  runCMSGet,
}

var cmsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Create or update an entry",
	Args:  cobra.ExactArgs(2),
	RunE:  runCMSSet,
}

var cmsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export all content as JSON (stdout when no file given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCMSExport,
}

var cmsImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a JSON content bundle",
	Args:  cobra.ExactArgs(1),
	RunE:  runCMSImport,
}

var cmsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard all edits and restore the seed content",
	RunE:  runCMSReset,
}

func openCMS() (*cms.Store, func(), error) {
	db, err := persist.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	seeds, err := cms.LoadSeeds(cfg.CMS.SeedPath)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to load seeds: %w", err)
	}
	store, err := cms.NewStore(db, seeds)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to init cms store: %w", err)
	}
	return store, func() { db.Close() }, nil
}

func runCMSGet(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openCMS()
	if err != nil {
		return err
	}
	defer closeDB()

	entry, found, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[0], err)
	}
	if !found {
		return fmt.Errorf("no entry for key %q", args[0])
	}
	fmt.Printf("%s (%s, %s)\n%s\n", entry.Key, entry.Type, entry.Category, entry.Value)
	return nil
}

func runCMSSet(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openCMS()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := store.Set(cms.Entry{Key: args[0], Value: args[1]}); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	fmt.Printf("Updated %s\n", args[0])
	return nil
}

func runCMSExport(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openCMS()
	if err != nil {
		return err
	}
	defer closeDB()

	data, err := store.Export()
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if len(args) == 0 {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(args[0], data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[0], err)
	}
	fmt.Printf("Exported content to %s\n", args[0])
	return nil
}

func runCMSImport(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openCMS()
	if err != nil {
		return err
	}
	defer closeDB()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	if err := store.Import(data); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Printf("Imported content from %s\n", args[0])
	return nil
}

func runCMSReset(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openCMS()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := store.Reset(); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	fmt.Println("Content restored to seeds.")
	return nil
}

func init() {
	cmsCmd.AddCommand(cmsGetCmd)
	cmsCmd.AddCommand(cmsSetCmd)
	cmsCmd.AddCommand(cmsExportCmd)
	cmsCmd.AddCommand(cmsImportCmd)
	cmsCmd.AddCommand(cmsResetCmd)
}
