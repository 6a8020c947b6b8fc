package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/fallacia/internal/extract"
)

var extractFile string

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [response text]",
	Short: "Show the fallacy labels found in a model response",
	Long: `Extract runs the keyword extractor used for prediction records that carry
a raw response instead of labels, and prints the labels it finds as JSON.

Example:
  fallacia extract "This is a slippery slope fallacy (12, 48)."
  fallacia extract --file response.txt`,
	Args: cobra.ArbitraryArgs,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "read the response from a file ('-' for stdin)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	response, err := readResponse(cmd, args)
	if err != nil {
		return err
	}

	matches := extract.NewFallacyExtractor().Extract(response)
	if matches == nil {
		matches = []extract.Match{}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(matches); err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	return nil
}

func readResponse(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case extractFile == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case extractFile != "":
		data, err := os.ReadFile(extractFile)
		if err != nil {
			return "", fmt.Errorf("read response: %w", err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", fmt.Errorf("no response given: pass text or --file")
	}
}
