package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/h-wata/meeting-transcriber/internal/config"
	"github.com/h-wata/meeting-transcriber/internal/template"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List available minutes templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		infos, err := reg.List()
		if err != nil {
			return err
		}
		for _, info := range infos {
			fmt.Printf("%-12s %s\n", info.Name, info.Description)
		}
		return nil
	},
}

var templatesInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Write the builtin templates to the config directory for editing",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		if err := reg.InstallBuiltins(); err != nil {
			return err
		}
		dir, _ := config.Dir()
		fmt.Println("templates installed to", filepath.Join(dir, "templates"))
		return nil
	},
}

func openRegistry() (*template.Registry, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return template.NewRegistry(filepath.Join(dir, "templates")), nil
}

func init() {
	templatesCmd.AddCommand(templatesInstallCmd)
}
