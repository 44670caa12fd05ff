// cmd/tools/registry-updater/main.go
//
// Maintains configs/activity-registry.json, the catalog the worker manager
// and BPMN designers use to discover loan activities and their contracts.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tezloan-workers/pkg/registry"
)

var registryPath string

func main() {
	root := &cobra.Command{
		Use:           "registry-updater",
		Short:         "Manage the loan activity registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&registryPath, "path", "configs/activity-registry.json", "path to the registry file")

	root.AddCommand(newAddCmd(), newUpdateCmd(), newValidateCmd(), newListCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newAddCmd() *cobra.Command {
	var (
		displayName string
		description string
		category    string
		taskType    string
		version     string
		status      string
	)
	cmd := &cobra.Command{
		Use:   "add <activity-id>",
		Short: "Add a new activity to the registry",
		Example: `  registry-updater add check-bureau-score \
    --displayName "Check Bureau Score" \
    --description "Fetches the external credit bureau score" \
    --category credit --taskType check-bureau-score`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if displayName == "" || description == "" || category == "" || taskType == "" {
				return fmt.Errorf("displayName, description, category and taskType are required")
			}
			activity := registry.Activity{
				ID:                   args[0],
				DisplayName:          displayName,
				Description:          description,
				Category:             category,
				Version:              version,
				TaskType:             taskType,
				ImplementationStatus: status,
				InputSchema:          map[string]interface{}{},
				OutputSchema:         map[string]interface{}{},
				ErrorCodes:           []string{},
				Timeout:              "10s",
				Retries:              3,
				Workflows:            []string{},
				Tags:                 []string{},
			}
			if err := addActivity(&activity); err != nil {
				return err
			}
			fmt.Printf("Added activity: %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&displayName, "displayName", "", "human-readable name")
	cmd.Flags().StringVar(&description, "description", "", "what the activity does")
	cmd.Flags().StringVar(&category, "category", "", "category (conversation, kyc, credit, application, communication, orchestration)")
	cmd.Flags().StringVar(&taskType, "taskType", "", "Zeebe task type the worker subscribes to")
	cmd.Flags().StringVar(&version, "version", "1.0.0", "activity version")
	cmd.Flags().StringVar(&status, "status", "planned", "implementation status (planned, in-progress, implemented, verified)")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var (
		field string
		value string
	)
	cmd := &cobra.Command{
		Use:     "update <activity-id>",
		Short:   "Update a single field of an existing activity",
		Example: `  registry-updater update verify-documents --field status --value verified`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if field == "" || value == "" {
				return fmt.Errorf("field and value are required")
			}
			if err := updateActivity(args[0], field, value); err != nil {
				return err
			}
			fmt.Printf("Updated activity %s: %s = %s\n", args[0], field, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "field to update (status, version, displayName, description, category, taskType, timeout, retries)")
	cmd.Flags().StringVar(&value, "value", "", "new value")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the registry file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := validateRegistry()
			if err != nil {
				return err
			}
			fmt.Printf("Registry validation passed. Found %d activities.\n", count)
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(registryPath)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			for _, a := range reg.Activities {
				if category != "" && a.Category != category {
					continue
				}
				fmt.Printf("%-24s %-14s %-12s %s\n", a.ID, a.Category, a.ImplementationStatus, a.DisplayName)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only show activities in this category")
	return cmd
}

func addActivity(activity *registry.Activity) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.ActivityRegistry{
			Version:    "1.0.0",
			Activities: []registry.Activity{},
		}
	}

	for _, existing := range reg.Activities {
		if existing.ID == activity.ID {
			return fmt.Errorf("activity %s already exists", activity.ID)
		}
	}

	reg.Activities = append(reg.Activities, *activity)
	reg.LastUpdated = time.Now().Format(time.RFC3339)
	return saveRegistry(reg, registryPath)
}

func updateActivity(id, field, value string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	idx := -1
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("activity %s not found", id)
	}

	a := &reg.Activities[idx]
	switch field {
	case "status":
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "category":
		a.Category = value
	case "taskType":
		a.TaskType = value
	case "timeout":
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	reg.LastUpdated = time.Now().Format(time.RFC3339)
	return saveRegistry(reg, registryPath)
}

func validateRegistry() (int, error) {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return 0, fmt.Errorf("failed to load registry: %w", err)
	}
	if len(reg.Activities) == 0 {
		return 0, fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	for _, activity := range reg.Activities {
		if activity.ID == "" {
			return 0, fmt.Errorf("activity missing required field: ID")
		}
		if ids[activity.ID] {
			return 0, fmt.Errorf("duplicate activity ID: %s", activity.ID)
		}
		ids[activity.ID] = true

		if activity.DisplayName == "" {
			return 0, fmt.Errorf("activity %s missing required field: DisplayName", activity.ID)
		}
		if activity.TaskType == "" {
			return 0, fmt.Errorf("activity %s missing required field: TaskType", activity.ID)
		}
		if activity.Category == "" {
			return 0, fmt.Errorf("activity %s missing required field: Category", activity.ID)
		}
	}
	return len(reg.Activities), nil
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
