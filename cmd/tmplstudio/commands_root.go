package main

import "github.com/spf13/cobra"

var (
	configFile   string
	accountID    string
	orgID        string
	projectID    string
	repoName     string
	branch       string
	logLevel     string
	noCache      bool
	versionLabel string
	templateType string
	outputFormat string
	outputFile   string
	debugMode    bool
)

var rootCmd = &cobra.Command{
	Use:           "tmplstudio",
	Short:         "Template studio: edit pipeline templates against a local cache",
	Long:          "tmplstudio fetches pipeline templates, keeps in-progress edits in a local cache and tracks them against the remote copy",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "tmplstudio.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&accountID, "account", "", "Account identifier (overrides config)")
	rootCmd.PersistentFlags().StringVar(&orgID, "org", "", "Organization identifier (overrides config)")
	rootCmd.PersistentFlags().StringVar(&projectID, "project", "", "Project identifier (overrides config)")
	rootCmd.PersistentFlags().StringVar(&repoName, "repo", "", "Git repository of a remote template")
	rootCmd.PersistentFlags().StringVar(&branch, "branch", "", "Git branch of a remote template")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Keep edits in memory only for this run")

	registerFetchCommand(rootCmd)
	registerEditCommand(rootCmd)
	registerMetaCommand(rootCmd)
	registerMoveCommand(rootCmd)
	registerDiscardCommand(rootCmd)
	registerVersionsCommand(rootCmd)
	registerShowCommand(rootCmd)
	registerExportCommand(rootCmd)
	registerValidateCommand(rootCmd)
}

// addTemplateFlags registers the flags shared by commands that open a session
func addTemplateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&versionLabel, "label", "l", "", "Version label (default: stable version)")
	cmd.Flags().StringVarP(&templateType, "type", "t", "", "Child type used for new or unparseable templates")
}
