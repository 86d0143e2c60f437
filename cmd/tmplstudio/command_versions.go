package main

import (
	"fmt"

	"github.com/sourceplane/tmplstudio/internal/render"
	"github.com/sourceplane/tmplstudio/internal/studio"
	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:     "versions <template>",
	Aliases: []string{"version"},
	Short:   "Show a template's versions as a tree",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listVersions(cmd, args[0])
	},
}

func registerVersionsCommand(root *cobra.Command) {
	root.AddCommand(versionsCmd)

	addTemplateFlags(versionsCmd)
}

func listVersions(cmd *cobra.Command, identifier string) error {
	ctx := cmd.Context()
	// Version lists are refreshed on every call; cached edits are kept
	a, err := openAppFetching(ctx, identifier, studio.FetchOptions{ForceFetch: true})
	if err != nil {
		return err
	}
	defer a.Close()

	state := a.session.State()
	if err := checkState(state); err != nil {
		return err
	}

	viewer := render.NewVersionViewer(identifier, state.Versions)
	fmt.Print(viewer.ViewTree(state.TemplateMetadata.VersionLabel))
	return nil
}
