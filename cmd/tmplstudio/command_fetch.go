package main

import (
	"fmt"

	"github.com/sourceplane/tmplstudio/internal/render"
	"github.com/sourceplane/tmplstudio/internal/studio"
	"github.com/spf13/cobra"
)

var (
	forceFetch    bool
	forceUpdate   bool
	loadFromCache bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <template>",
	Short: "Fetch a template into the local cache",
	Long:  "Fetch a template from the remote. Cached edits are kept unless --force-update is given; use new_template to start a draft.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchTemplate(cmd, args[0])
	},
}

func registerFetchCommand(root *cobra.Command) {
	root.AddCommand(fetchCmd)

	addTemplateFlags(fetchCmd)
	fetchCmd.Flags().BoolVarP(&forceFetch, "force-fetch", "f", false, "Call the remote even when a cached entry exists")
	fetchCmd.Flags().BoolVar(&forceUpdate, "force-update", false, "Replace cached edits with the fetched template")
	fetchCmd.Flags().BoolVar(&loadFromCache, "load-from-cache", false, "Allow the remote to answer from its git cache")
}

func fetchTemplate(cmd *cobra.Command, identifier string) error {
	ctx := cmd.Context()
	a, err := openAppFetching(ctx, identifier, studio.FetchOptions{
		ForceFetch:    forceFetch || forceUpdate,
		ForceUpdate:   forceUpdate,
		LoadFromCache: loadFromCache,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	state := a.session.State()
	if err := checkState(state); err != nil {
		return err
	}

	fmt.Print(render.NewRenderer().DebugDump(state))
	if state.IsBETemplateUpdated {
		fmt.Println("! The remote template changed since your edits started; use --force-update to discard them")
	}
	fmt.Println("✓ Template loaded")
	return nil
}
