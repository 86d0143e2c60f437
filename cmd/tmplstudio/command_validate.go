package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sourceplane/tmplstudio/internal/loader"
	"github.com/sourceplane/tmplstudio/internal/model"
	"github.com/sourceplane/tmplstudio/internal/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file-or-dir>",
	Short: "Validate a template file or template directory against the schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validatePath(args[0])
	},
}

func registerValidateCommand(root *cobra.Command) {
	root.AddCommand(validateCmd)
}

func validatePath(path string) error {
	validator, err := schema.NewValidator()
	if err != nil {
		return fmt.Errorf("failed to load template schema: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !info.IsDir() {
		fmt.Printf("□ Validating %s...\n", path)
		doc, _, err := loader.LoadTemplateFile(path)
		if err != nil {
			return err
		}
		if err := reportValidation(validator.ValidateTemplate(*doc)); err != nil {
			return err
		}
		fmt.Println("✓ Template is valid")
		return nil
	}

	fmt.Printf("□ Loading template directory %s...\n", path)
	td, err := loader.LoadTemplateDir(path)
	if err != nil {
		return err
	}

	meta := model.Metadata{
		Name:         td.Metadata.Name,
		Identifier:   filepath.Base(td.Path),
		VersionLabel: td.StableVersion(),
		Description:  td.Metadata.Description,
		Tags:         td.Metadata.Tags,
		Icon:         td.Metadata.Icon,
	}
	fmt.Println("□ Validating metadata...")
	if err := reportValidation(validator.ValidateMetadata(meta)); err != nil {
		return err
	}

	failed := 0
	for _, version := range td.Versions {
		fmt.Printf("□ Validating version %s...\n", version.Label)
		doc, _, err := loader.LoadTemplateFile(version.Path)
		if err != nil {
			fmt.Printf("  - %v\n", err)
			failed++
			continue
		}
		if err := reportValidation(validator.ValidateTemplate(*doc)); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d versions are invalid", failed, len(td.Versions))
	}

	fmt.Printf("✓ All %d versions are valid (stable: %s)\n", len(td.Versions), td.StableVersion())
	return nil
}

func reportValidation(err error) error {
	if err == nil {
		return nil
	}
	for _, msg := range schema.Messages(err) {
		fmt.Printf("  - %s\n", msg)
	}
	return fmt.Errorf("validation failed")
}
