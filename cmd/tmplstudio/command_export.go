package main

import (
	"fmt"
	"path/filepath"

	"github.com/sourceplane/tmplstudio/internal/loader"
	"github.com/sourceplane/tmplstudio/internal/schema"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export <template>",
	Short: "Write the cached template into a template directory",
	Long:  "Write the cached template to <dir>/[org/[project/]]<template>/<version>/template.yaml, the layout read by the dir remote.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportTemplate(cmd, args[0])
	},
}

func registerExportCommand(root *cobra.Command) {
	root.AddCommand(exportCmd)

	addTemplateFlags(exportCmd)
	exportCmd.Flags().StringVarP(&exportDir, "dir", "d", "", "Template root directory (default: remote.dir from config)")
}

func exportTemplate(cmd *cobra.Command, identifier string) error {
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

	root := exportDir
	if root == "" {
		root = a.cfg.Remote.Dir
	}
	if root == "" {
		return fmt.Errorf("no export directory: pass --dir")
	}

	label := state.TemplateMetadata.VersionLabel
	if label == "" {
		return fmt.Errorf("template has no version label; set one with --label")
	}
	name := state.TemplateMetadata.Identifier
	if name == "" {
		name = identifier
	}

	if err := a.validator.ValidateTemplate(state.Template); err != nil {
		a.logger.Warn("Exporting a template that does not pass validation", zap.Strings("errors", schema.Messages(err)))
	}

	parts := []string{root}
	if a.cfg.Scope.Org != "" {
		parts = append(parts, a.cfg.Scope.Org)
		if a.cfg.Scope.Project != "" {
			parts = append(parts, a.cfg.Scope.Project)
		}
	}
	parts = append(parts, name)

	path, err := loader.WriteTemplateVersion(filepath.Join(parts...), label, state.Template)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Template written to %s\n", path)
	return nil
}
