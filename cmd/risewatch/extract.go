package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/risewatch"
	"github.com/jpalmerr/risewatch/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Run the extractor on a saved response",
	Long: `Search a saved response body for "<keyword>": and print the value found
after it, exactly as the poll loop would. A keyword holding a quote or a colon
is searched for as given, e.g. -k 'risetime": '.

The body is read from file, or from stdin when no file is given.

Example:
  curl -s 'http://api.open-notify.org/iss-pass.json?lat=45&lon=-73' | risewatch extract -k risetime`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("keyword", "k", "", "field name to search for (required)")
	extractCmd.Flags().Int("max-len", risewatch.DefaultMaxTokenLength, "maximum token length")
	extractCmd.Flags().Int("lookahead", risewatch.DefaultLookahead, "number of bytes searched")
	_ = extractCmd.MarkFlagRequired("keyword")
}

func runExtract(cmd *cobra.Command, args []string) error {
	keyword, _ := cmd.Flags().GetString("keyword")
	maxLen, _ := cmd.Flags().GetInt("max-len")
	lookahead, _ := cmd.Flags().GetInt("lookahead")
	if maxLen < 1 {
		return fmt.Errorf("max-len must be at least 1, got %d", maxLen)
	}

	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	out := make([]byte, maxLen+1)
	n, found := extract.Field(body, keyword, out, lookahead)
	if !found {
		return fmt.Errorf("keyword %q not found in the first %d bytes", keyword, lookahead)
	}

	if n == 0 {
		return fmt.Errorf("keyword %q has an empty value", keyword)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "token: %q\n", out[:n])
	v, err := extract.ParseUint(out[:n])
	if err != nil {
		return fmt.Errorf("token %q is not a timestamp: %w", out[:n], err)
	}
	fmt.Fprintf(w, "value: %d\n", v)
	fmt.Fprintf(w, "time:  %s\n", time.Unix(int64(v), 0).UTC().Format(time.RFC3339))
	return nil
}
