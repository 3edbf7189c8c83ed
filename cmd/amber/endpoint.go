package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/astroamber/amber/internal/endpoint"
)

func endpointCMD() *cobra.Command {
	var runtimeID string
	var region string

	cmd := &cobra.Command{
		Use:   "endpoint",
		Short: "Manage AgentCore runtime endpoints",
	}
	cmd.PersistentFlags().StringVar(&runtimeID, "agent-runtime-id", "", "Agent Runtime ID (e.g. testAgent-71evTo5Zf8)")
	cmd.PersistentFlags().StringVar(&region, "region", "eu-central-1", "AWS region")
	_ = cmd.MarkPersistentFlagRequired("agent-runtime-id")

	manager := func(cmd *cobra.Command) (*endpoint.Manager, error) {
		return endpoint.NewManagerForRegion(cmd.Context(), region, os.Stdout)
	}

	var version, description string
	var tags []string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new endpoint pointing at a runtime version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseTags(tags)
			if err != nil {
				return err
			}
			m, err := manager(cmd)
			if err != nil {
				return err
			}
			return m.Create(cmd.Context(), endpoint.CreateParams{
				RuntimeID:   runtimeID,
				Name:        args[0],
				Version:     version,
				Description: description,
				Tags:        parsed,
			})
		},
	}
	create.Flags().StringVar(&version, "version", "", "version number to point to (omit for latest)")
	create.Flags().StringVar(&description, "description", "", "description of the endpoint")
	create.Flags().StringArrayVar(&tags, "tag", nil, "tag as KEY=VALUE (repeatable)")

	var updateVersion string
	update := &cobra.Command{
		Use:   "update <name>",
		Short: "Point an existing endpoint at a specific runtime version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if updateVersion == "" {
				return fmt.Errorf("--version is required")
			}
			m, err := manager(cmd)
			if err != nil {
				return err
			}
			return m.Update(cmd.Context(), runtimeID, args[0], updateVersion)
		},
	}
	update.Flags().StringVar(&updateVersion, "version", "", "version number to deploy (e.g. 4)")

	get := &cobra.Command{
		Use:   "get <name>",
		Short: "Show details of a specific endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager(cmd)
			if err != nil {
				return err
			}
			return m.Get(cmd.Context(), runtimeID, args[0])
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all endpoints of the agent runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager(cmd)
			if err != nil {
				return err
			}
			return m.List(cmd.Context(), runtimeID)
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager(cmd)
			if err != nil {
				return err
			}
			return m.Delete(cmd.Context(), runtimeID, args[0])
		},
	}

	cmd.AddCommand(create, update, get, list, del)
	return cmd
}

// parseTags converts repeated KEY=VALUE flags into a tag map.
func parseTags(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	tags := make(map[string]string, len(raw))
	for _, tag := range raw {
		key, value, ok := strings.Cut(tag, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid tag format %q, use KEY=VALUE", tag)
		}
		tags[key] = value
	}
	return tags, nil
}
