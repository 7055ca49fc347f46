package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/teemow/scheduler/internal/calendar"
	"github.com/teemow/scheduler/internal/tools"
	"github.com/teemow/scheduler/internal/tools/calendar_tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate calendar tool documentation",
		Long: `Generate markdown documentation for all calendar tools.
This command introspects the registered tools and outputs their documentation
in markdown format, so the documentation always matches the tool definitions
the assistant and MCP clients see.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			markdown, err := toolsMarkdown()
			if err != nil {
				return err
			}

			if outputFile == "" {
				fmt.Fprint(cmd.OutOrStdout(), markdown)
				return nil
			}
			if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// toolsMarkdown registers the catalogue against an empty in-memory calendar
// and renders it; no credentials are needed.
func toolsMarkdown() (string, error) {
	registry := tools.NewRegistry(nil)
	if err := calendar_tools.Register(registry, calendar_tools.Deps{Backend: calendar.NewMemoryBackend()}); err != nil {
		return "", err
	}
	return generateToolsMarkdown(registry.Definitions()), nil
}

func generateToolsMarkdown(defs []mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("# Calendar Tools Reference\n\n")
	sb.WriteString("This document lists the tools the scheduling assistant calls, which are also served by `scheduler serve --transport stdio`.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	toolsByCategory := groupToolsByCategory(defs)

	sb.WriteString("## Table of Contents\n\n")
	categories := make([]string, 0, len(toolsByCategory))
	for category := range toolsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", category, anchor))
	}
	sb.WriteString("\n")

	sb.WriteString("## Conventions\n\n")
	sb.WriteString("- Times are RFC3339 with an explicit offset, for example `2025-07-26T14:00:00+01:00`\n")
	sb.WriteString("- `date` accepts `today`, `tomorrow`, `yesterday`, `next week`, `last week` or `YYYY-MM-DD`\n")
	sb.WriteString("- Failed calls return text starting with `Error: `\n\n")

	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		sb.WriteString(fmt.Sprintf("## %s\n\n", category))

		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func groupToolsByCategory(defs []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)

	for _, tool := range defs {
		category := getCategory(tool)
		categories[category] = append(categories[category], tool)
	}

	return categories
}

func getCategory(tool mcp.Tool) string {
	if ro := tool.Annotations.ReadOnlyHint; ro != nil && *ro {
		return "Reading Tools"
	}
	if d := tool.Annotations.DestructiveHint; d != nil && *d {
		return "Destructive Tools"
	}
	return "Writing Tools"
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))

	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		propNames := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, name := range propNames {
			propMap, ok := tool.InputSchema.Properties[name].(map[string]any)
			if !ok {
				continue
			}

			requiredStr := "optional"
			if contains(tool.InputSchema.Required, name) {
				requiredStr = "required"
			}

			sb.WriteString(fmt.Sprintf("- `%s` (%s, %s): ", name, getPropertyType(propMap), requiredStr))
			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
