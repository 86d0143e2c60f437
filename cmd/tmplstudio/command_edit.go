package main

import (
	"fmt"
	"strings"

	"github.com/sourceplane/tmplstudio/internal/loader"
	"github.com/sourceplane/tmplstudio/internal/model"
	"github.com/sourceplane/tmplstudio/internal/studio"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	editFile string
	editSets []string
)

var editCmd = &cobra.Command{
	Use:   "edit <template>",
	Short: "Edit the cached template",
	Long:  "Replace the cached template with --file, or change single values with --set spec.path=value (values are parsed as YAML).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editTemplate(cmd, args[0])
	},
}

func registerEditCommand(root *cobra.Command) {
	root.AddCommand(editCmd)

	addTemplateFlags(editCmd)
	editCmd.Flags().StringVar(&editFile, "file", "", "Template file that replaces the cached template")
	editCmd.Flags().StringArrayVar(&editSets, "set", nil, "Set a value inside spec (path=value, repeatable)")
}

// parseAssignments parses path=value pairs; values are decoded as YAML scalars or collections
func parseAssignments(pairs []string) (map[string]interface{}, []string, error) {
	values := make(map[string]interface{}, len(pairs))
	order := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		path, raw, ok := strings.Cut(pair, "=")
		if !ok || path == "" {
			return nil, nil, fmt.Errorf("invalid assignment %q (expected path=value)", pair)
		}
		var value interface{}
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, nil, fmt.Errorf("invalid value for %s: %w", path, err)
		}
		if _, seen := values[path]; !seen {
			order = append(order, path)
		}
		values[path] = value
	}
	return values, order, nil
}

func editTemplate(cmd *cobra.Command, identifier string) error {
	if editFile == "" && len(editSets) == 0 {
		return fmt.Errorf("nothing to edit: pass --file or --set")
	}

	var update studio.TemplateUpdate
	if editFile != "" {
		doc, _, err := loader.LoadTemplateFile(editFile)
		if err != nil {
			return err
		}
		update = studio.Replace(*doc)
	} else {
		values, order, err := parseAssignments(editSets)
		if err != nil {
			return err
		}
		update = studio.Transform(func(doc model.Document) model.Document {
			for _, path := range order {
				doc.Set(path, values[path])
			}
			return doc
		})
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, identifier)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := checkState(a.session.State()); err != nil {
		return err
	}

	a.session.UpdateTemplate(ctx, update)

	state := a.session.State()
	if state.ErrorMessage != "" {
		return fmt.Errorf("failed to save edit: %s", state.ErrorMessage)
	}
	fmt.Printf("✓ Template updated (unsaved changes: %v)\n", state.IsUpdated)
	return nil
}
