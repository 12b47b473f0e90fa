package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

var rawCmd = &cobra.Command{
	Use:   "raw [method] [path]",
	Short: "Send a request to any REST path",
	Long: `Send a request to a path below /services/rest, or to an absolute URL.

Examples:
  suitetalk raw GET /record/v1/metadata-catalog
  suitetalk raw POST /query/v1/suiteql --type suiteql -q "SELECT id FROM employee"
  suitetalk raw GET "https://1234567.suitetalk.api.netsuite.com/services/rest/record/v1/customer?offset=100"`,
	Args: cobra.ExactArgs(2),
	RunE: runRaw,
}

var (
	rawType  string
	rawQuery string
	rawData  string
)

func init() {
	rawCmd.Flags().StringVarP(&rawType, "type", "t", string(domain.RequestRaw), "request type: record, suiteql, workbook or raw")
	rawCmd.Flags().StringVarP(&rawQuery, "query", "q", "", "SuiteQL statement for --type suiteql")
	rawCmd.Flags().StringVarP(&rawData, "data", "d", "", "request body: JSON, @file or -")
	rawCmd.Flags().BoolVar(&fullResponse, "full-response", false, "emit status code, headers and body")
	rootCmd.AddCommand(rawCmd)
}

func runRaw(cmd *cobra.Command, args []string) error {
	body, err := readBody(cmd.InOrStdin(), rawData)
	if err != nil {
		return err
	}
	return runOperations(cmd, []domain.OperationParams{{
		Operation:    domain.OpRawRequest,
		Method:       strings.ToUpper(args[0]),
		Path:         args[1],
		RequestType:  domain.RequestType(rawType),
		Query:        rawQuery,
		Body:         body,
		FullResponse: fullResponse,
	}})
}
