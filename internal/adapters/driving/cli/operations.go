package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var operationsCmd = &cobra.Command{
	Use:   "operations",
	Short: "List supported operations and their parameters",
	Args:  cobra.NoArgs,
	RunE:  runOperationsList,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("suitetalk %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(operationsCmd)
	rootCmd.AddCommand(versionCmd)
}

func runOperationsList(cmd *cobra.Command, _ []string) error {
	if operationRegistry == nil {
		return errors.New("operation registry not configured")
	}

	ops := operationRegistry.List()
	if len(ops) == 0 {
		cmd.Println("No operations available.")
		return nil
	}

	cmd.Println("Available operations:")
	cmd.Println()
	for _, op := range ops {
		cmd.Printf("  %s\n", op.ID)
		cmd.Printf("    Name: %s\n", op.Name)
		cmd.Printf("    Description: %s\n", op.Description)
		if op.Method != "" {
			cmd.Printf("    Method: %s\n", op.Method)
		}
		if op.Paginated {
			cmd.Println("    Paginated: yes")
		}
		if len(op.Params) > 0 {
			cmd.Println("    Params:")
			for _, p := range op.Params {
				req := ""
				if p.Required {
					req = " (required)"
				}
				cmd.Printf("      %s: %s%s\n", p.Key, p.Description, req)
			}
		}
		cmd.Println()
	}
	return nil
}
