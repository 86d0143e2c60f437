package main

import (
	"fmt"

	"github.com/sourceplane/tmplstudio/internal/model"
	"github.com/spf13/cobra"
)

var (
	moveRepo         string
	moveBranch       string
	moveFilePath     string
	moveStoreType    string
	moveConnectorRef string
)

var moveCmd = &cobra.Command{
	Use:   "move <template>",
	Short: "Move cached edits to other git coordinates or another store",
	Long:  "Re-key the cached template under a new repository/branch. With --store-type the store metadata changes as well.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return moveTemplate(cmd, args[0])
	},
}

func registerMoveCommand(root *cobra.Command) {
	root.AddCommand(moveCmd)

	addTemplateFlags(moveCmd)
	moveCmd.Flags().StringVar(&moveRepo, "to-repo", "", "Target repository (default: current)")
	moveCmd.Flags().StringVar(&moveBranch, "to-branch", "", "Target branch")
	moveCmd.Flags().StringVar(&moveFilePath, "file-path", "", "Template file path inside the repository")
	moveCmd.Flags().StringVar(&moveStoreType, "store-type", "", "Store type: INLINE or REMOTE")
	moveCmd.Flags().StringVar(&moveConnectorRef, "connector", "", "Git connector reference for REMOTE templates")
}

func moveTemplate(cmd *cobra.Command, identifier string) error {
	switch moveStoreType {
	case "", model.StoreTypeInline, model.StoreTypeRemote:
	default:
		return fmt.Errorf("invalid store type: %s (valid: %s, %s)", moveStoreType, model.StoreTypeInline, model.StoreTypeRemote)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, identifier)
	if err != nil {
		return err
	}
	defer a.Close()

	state := a.session.State()
	if err := checkState(state); err != nil {
		return err
	}

	gitDetails := state.GitDetails
	if moveRepo != "" {
		gitDetails.RepoName = moveRepo
	}
	if moveBranch != "" {
		gitDetails.Branch = moveBranch
	}
	if moveFilePath != "" {
		gitDetails.FilePath = moveFilePath
	}

	if moveStoreType != "" {
		a.session.UpdateStoreMetadata(ctx, model.StoreMetadata{
			StoreType:    moveStoreType,
			ConnectorRef: moveConnectorRef,
			RepoName:     gitDetails.RepoName,
			Branch:       gitDetails.Branch,
			FilePath:     gitDetails.FilePath,
		})
	} else {
		a.session.UpdateGitDetails(ctx, gitDetails)
	}

	state = a.session.State()
	if state.ErrorMessage != "" {
		return fmt.Errorf("failed to move template: %s", state.ErrorMessage)
	}
	fmt.Printf("✓ Template moved to %s@%s\n", orDefault(state.Identity.RepoName, "(inline)"), orDefault(state.Identity.Branch, "(default)"))
	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
