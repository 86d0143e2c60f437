package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var discardCmd = &cobra.Command{
	Use:   "discard <template>",
	Short: "Discard cached edits and the unsaved draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return discardTemplate(cmd, args[0])
	},
}

func registerDiscardCommand(root *cobra.Command) {
	root.AddCommand(discardCmd)

	addTemplateFlags(discardCmd)
}

func discardTemplate(cmd *cobra.Command, identifier string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, identifier)
	if err != nil {
		return err
	}
	defer a.Close()

	a.session.DeleteTemplateCache(ctx, nil)

	fmt.Printf("✓ Discarded cached edits for %s\n", identifier)
	return nil
}
