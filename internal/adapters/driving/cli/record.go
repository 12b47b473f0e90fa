package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Work with NetSuite records",
	Long:  `List, fetch, create, update, upsert or delete records through the REST record service.`,
}

var recordListCmd = &cobra.Command{
	Use:   "list [record-type]",
	Short: "List records of a type",
	Long: `List records of a type.

Examples:
  suitetalk record list customer --limit 10
  suitetalk record list customer -q 'email START_WITH "a"' --all
  suitetalk record list salesOrder --fields tranId,total`,
	Args: cobra.ExactArgs(1),
	RunE: runRecordList,
}

var recordGetCmd = &cobra.Command{
	Use:   "get [record-type] [internal-id]",
	Short: "Fetch one record",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecordGet,
}

var recordCreateCmd = &cobra.Command{
	Use:   "create [record-type]",
	Short: "Create a record",
	Long: `Create a record. The body is read from --data, which accepts inline JSON,
@file or - for stdin.

Example:
  suitetalk record create customer --data '{"companyName":"Acme","subsidiary":{"id":"1"}}'`,
	Args: cobra.ExactArgs(1),
	RunE: runRecordCreate,
}

var recordUpdateCmd = &cobra.Command{
	Use:   "update [record-type] [internal-id]",
	Short: "Update a record",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecordUpdate,
}

var recordUpsertCmd = &cobra.Command{
	Use:   "upsert [record-type] [external-id]",
	Short: "Create or replace a record by external id",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecordUpsert,
}

var recordDeleteCmd = &cobra.Command{
	Use:   "delete [record-type] [internal-id]",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecordDelete,
}

// Flags for record and query commands.
var (
	recordQuery           string
	recordFields          string
	recordData            string
	recordExpand          bool
	recordSimpleEnum      bool
	recordReplaceSelected bool
	recordReplace         string
	pageAll               bool
	pageLimit             int
	pageOffset            int
	fullResponse          bool
	apiVersion            string
)

func init() {
	addPagingFlags(recordListCmd)
	recordListCmd.Flags().StringVarP(&recordQuery, "query", "q", "", "record filter expression")
	recordListCmd.Flags().StringVar(&recordFields, "fields", "", "comma-separated fields to return")

	recordGetCmd.Flags().BoolVar(&recordExpand, "expand", false, "expand sublists and subrecords")
	recordGetCmd.Flags().BoolVar(&recordSimpleEnum, "simple-enum", false, "return enumerations as plain values")
	recordGetCmd.Flags().StringVar(&recordFields, "fields", "", "comma-separated fields to return")

	for _, c := range []*cobra.Command{recordCreateCmd, recordUpdateCmd, recordUpsertCmd} {
		c.Flags().StringVarP(&recordData, "data", "d", "", "record body: JSON, @file or -")
	}
	recordUpdateCmd.Flags().BoolVar(&recordReplaceSelected, "replace-selected", false, "replace only the sublists named by --replace")
	recordUpdateCmd.Flags().StringVar(&recordReplace, "replace", "", "comma-separated sublists to replace")

	for _, c := range []*cobra.Command{
		recordListCmd, recordGetCmd, recordCreateCmd, recordUpdateCmd, recordUpsertCmd, recordDeleteCmd,
	} {
		c.Flags().StringVar(&apiVersion, "api-version", "", "record API version (default v1)")
		c.Flags().BoolVar(&fullResponse, "full-response", false, "emit status code, headers and body")
		recordCmd.AddCommand(c)
	}
	rootCmd.AddCommand(recordCmd)
}

func addPagingFlags(c *cobra.Command) {
	c.Flags().BoolVar(&pageAll, "all", false, "return every row by following next links")
	c.Flags().IntVar(&pageLimit, "limit", 0, "maximum rows to return (default one page)")
	c.Flags().IntVar(&pageOffset, "offset", 0, "offset of the first row")
}

func runRecordList(cmd *cobra.Command, args []string) error {
	return runOperations(cmd, []domain.OperationParams{{
		Operation:  domain.OpListRecords,
		RecordType: args[0],
		Query:      recordQuery,
		Fields:     recordFields,
		Version:    apiVersion,
		ReturnAll:  pageAll,
		Limit:      pageLimit,
		Offset:     pageOffset,
	}})
}

func runRecordGet(cmd *cobra.Command, args []string) error {
	return runOperations(cmd, []domain.OperationParams{{
		Operation:          domain.OpGetRecord,
		RecordType:         args[0],
		InternalID:         args[1],
		Fields:             recordFields,
		ExpandSubResources: recordExpand,
		SimpleEnumFormat:   recordSimpleEnum,
		Version:            apiVersion,
		FullResponse:       fullResponse,
	}})
}

func runRecordCreate(cmd *cobra.Command, args []string) error {
	body, err := readBody(cmd.InOrStdin(), recordData)
	if err != nil {
		return err
	}
	return runOperations(cmd, []domain.OperationParams{{
		Operation:    domain.OpInsertRecord,
		RecordType:   args[0],
		Body:         body,
		Version:      apiVersion,
		FullResponse: fullResponse,
	}})
}

func runRecordUpdate(cmd *cobra.Command, args []string) error {
	body, err := readBody(cmd.InOrStdin(), recordData)
	if err != nil {
		return err
	}
	return runOperations(cmd, []domain.OperationParams{{
		Operation:             domain.OpUpdateRecord,
		RecordType:            args[0],
		InternalID:            args[1],
		Body:                  body,
		ReplaceSelectedFields: recordReplaceSelected,
		Replace:               recordReplace,
		Version:               apiVersion,
		FullResponse:          fullResponse,
	}})
}

func runRecordUpsert(cmd *cobra.Command, args []string) error {
	body, err := readBody(cmd.InOrStdin(), recordData)
	if err != nil {
		return err
	}
	return runOperations(cmd, []domain.OperationParams{{
		Operation:    domain.OpUpsertRecord,
		RecordType:   args[0],
		ExternalID:   args[1],
		Body:         body,
		Version:      apiVersion,
		FullResponse: fullResponse,
	}})
}

func runRecordDelete(cmd *cobra.Command, args []string) error {
	return runOperations(cmd, []domain.OperationParams{{
		Operation:    domain.OpRemoveRecord,
		RecordType:   args[0],
		InternalID:   args[1],
		Version:      apiVersion,
		FullResponse: fullResponse,
	}})
}

// runOperations executes inputs with the active services and writes the output rows.
func runOperations(cmd *cobra.Command, inputs []domain.OperationParams) error {
	s, err := loadServices(cmd)
	if err != nil {
		return err
	}
	if s.Operations == nil {
		return fmt.Errorf("operation service not configured")
	}

	results, err := s.Operations.Execute(cmd.Context(), inputs, batchOptions(cmd, s))
	if err != nil {
		return err
	}
	return writeResults(cmd.OutOrStdout(), flatten(results), outputFormat)
}

// readBody parses a JSON object from inline text, @file or - (stdin).
// An empty value yields a nil body.
func readBody(stdin io.Reader, value string) (domain.Item, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	var data []byte
	switch {
	case value == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		data = b
	case strings.HasPrefix(value, "@"):
		b, err := os.ReadFile(value[1:])
		if err != nil {
			return nil, fmt.Errorf("read body file: %w", err)
		}
		data = b
	default:
		data = []byte(value)
	}

	var body domain.Item
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON object: %v", domain.ErrInvalidInput, err)
	}
	return body, nil
}
