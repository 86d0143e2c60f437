package main

import (
	"fmt"

	"github.com/sourceplane/tmplstudio/internal/render"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <template>",
	Short: "Print the session state of a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showState(cmd, args[0])
	},
}

func registerShowCommand(root *cobra.Command) {
	root.AddCommand(showCmd)

	addTemplateFlags(showCmd)
	showCmd.Flags().StringVarP(&outputFormat, "format", "o", "yaml", "Output format: json or yaml")
	showCmd.Flags().StringVar(&outputFile, "out", "", "Write the state to a file instead of stdout")
	showCmd.Flags().BoolVar(&debugMode, "debug", false, "Print a short summary instead of the full state")
}

func showState(cmd *cobra.Command, identifier string) error {
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

	renderer := render.NewRenderer()
	if debugMode {
		fmt.Print(renderer.DebugDump(state))
		return nil
	}

	if outputFile != "" {
		if err := renderer.WriteState(state, outputFile); err != nil {
			return err
		}
		fmt.Printf("✓ State written to %s\n", outputFile)
		return nil
	}

	data, err := renderer.Render(state, outputFormat)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
