package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Apply operations to a batch of input items",
	Long: `Read input items and run one operation per item.

Input is a JSON array or a stream of JSON objects (one per line). Each item
carries the operation parameters, for example:

  {"operation":"getRecord","recordType":"customer","internalId":"42"}
  {"operation":"runSuiteQL","query":"SELECT id FROM employee","limit":10}

Items without an operation use --operation. Output rows are written in input
order. With --continue-on-fail a failing item yields {"json":{"error":"..."}}.

Examples:
  suitetalk run --input items.jsonl --concurrency 4
  cat ids.jsonl | suitetalk run --operation getRecord --continue-on-fail`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

var (
	runInput     string
	runOperation string
)

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "-", "input file, or - for stdin")
	runCmd.Flags().StringVar(&runOperation, "operation", "", "operation for items that do not name one")
	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	var in io.Reader = cmd.InOrStdin()
	if runInput != "" && runInput != "-" {
		f, err := os.Open(runInput)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	inputs, err := decodeInputs(in)
	if err != nil {
		return err
	}
	for i := range inputs {
		if inputs[i].Operation == "" {
			inputs[i].Operation = domain.Operation(runOperation)
		}
		if inputs[i].Operation == "" {
			return fmt.Errorf("%w: item %d has no operation; set it or pass --operation", domain.ErrInvalidInput, i)
		}
	}
	return runOperations(cmd, inputs)
}

// decodeInputs reads a JSON array or a stream of JSON objects.
func decodeInputs(r io.Reader) ([]domain.OperationParams, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var inputs []domain.OperationParams
		if err := dec.Decode(&inputs); err != nil {
			return nil, fmt.Errorf("%w: decode input array: %v", domain.ErrInvalidInput, err)
		}
		return inputs, nil
	}

	var inputs []domain.OperationParams
	for {
		var p domain.OperationParams
		err := dec.Decode(&p)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: decode input item %d: %v", domain.ErrInvalidInput, len(inputs), err)
		}
		inputs = append(inputs, p)
	}
	return inputs, nil
}

// peekNonSpace returns the first non-whitespace byte without consuming it.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
