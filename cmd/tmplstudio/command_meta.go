package main

import (
	"fmt"
	"strings"

	"github.com/sourceplane/tmplstudio/internal/model"
	"github.com/sourceplane/tmplstudio/internal/schema"
	"github.com/sourceplane/tmplstudio/internal/studio"
	"github.com/spf13/cobra"
)

var (
	metaName        string
	metaDescription string
	metaIcon        string
	metaTags        []string
)

var metaCmd = &cobra.Command{
	Use:   "meta <template>",
	Short: "Edit the cached template metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editMetadata(cmd, args[0])
	},
}

func registerMetaCommand(root *cobra.Command) {
	root.AddCommand(metaCmd)

	addTemplateFlags(metaCmd)
	metaCmd.Flags().StringVar(&metaName, "name", "", "Template name")
	metaCmd.Flags().StringVar(&metaDescription, "description", "", "Template description")
	metaCmd.Flags().StringVar(&metaIcon, "icon", "", "Template icon")
	metaCmd.Flags().StringArrayVar(&metaTags, "tag", nil, "Tag as key=value (repeatable, empty value removes the tag)")
}

func editMetadata(cmd *cobra.Command, identifier string) error {
	tags := make(map[string]string, len(metaTags))
	for _, pair := range metaTags {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid tag %q (expected key=value)", pair)
		}
		tags[key] = value
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

	a.session.UpdateTemplateMetadata(ctx, studio.TransformMetadata(func(meta model.Metadata) model.Metadata {
		if cmd.Flags().Changed("name") {
			meta.Name = metaName
		}
		if cmd.Flags().Changed("description") {
			meta.Description = metaDescription
		}
		if cmd.Flags().Changed("icon") {
			meta.Icon = metaIcon
		}
		for key, value := range tags {
			if value == "" {
				delete(meta.Tags, key)
				continue
			}
			if meta.Tags == nil {
				meta.Tags = make(map[string]string)
			}
			meta.Tags[key] = value
		}
		return meta
	}))

	state := a.session.State()
	if state.ErrorMessage != "" {
		return fmt.Errorf("failed to save metadata: %s", state.ErrorMessage)
	}
	if err := a.validator.ValidateMetadata(state.TemplateMetadata); err != nil {
		fmt.Println("! Metadata does not pass validation:")
		for _, msg := range schema.Messages(err) {
			fmt.Printf("  - %s\n", msg)
		}
	}
	fmt.Printf("✓ Metadata updated (unsaved changes: %v)\n", state.IsUpdatedMetadata)
	return nil
}
