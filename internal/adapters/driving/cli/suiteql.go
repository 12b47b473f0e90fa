package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

var suiteqlCmd = &cobra.Command{
	Use:   "suiteql [query]",
	Short: "Run a SuiteQL query",
	Long: `Run a SuiteQL query. Without --all or --limit one page of up to 1000 rows is returned.

Examples:
  suitetalk suiteql "SELECT id, companyname FROM customer" --limit 50
  suitetalk suiteql "SELECT id FROM transaction WHERE type = 'SalesOrd'" --all`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSuiteQL,
}

func init() {
	addPagingFlags(suiteqlCmd)
	rootCmd.AddCommand(suiteqlCmd)
}

func runSuiteQL(cmd *cobra.Command, args []string) error {
	return runOperations(cmd, []domain.OperationParams{{
		Operation: domain.OpRunSuiteQL,
		Query:     strings.Join(args, " "),
		ReturnAll: pageAll,
		Limit:     pageLimit,
		Offset:    pageOffset,
	}})
}
