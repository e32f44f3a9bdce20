package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/avana/avana/internal/app"
	"github.com/avana/avana/internal/config"
	"github.com/avana/avana/internal/export"
	"github.com/avana/avana/internal/extract"
)

var (
	extractMaxPerDomain int
	extractKeywords     string
	extractFormat       string
	extractOutput       string
	extractSkipped      string
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract and select email addresses from text",
	Long: `Read text from a file (or stdin when no file or "-" is given), detect email
addresses, and keep at most --max-per-domain addresses per domain. Addresses whose
local part contains one of --keywords are kept first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntVarP(&extractMaxPerDomain, "max-per-domain", "n", extract.DefaultMaxPerDomain, "Maximum addresses per domain (1-200)")
	extractCmd.Flags().StringVarP(&extractKeywords, "keywords", "k", "", "Comma separated role keywords (default from config)")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "table", "Output format (table, csv, json)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Write the selection to a file instead of stdout")
	extractCmd.Flags().StringVar(&extractSkipped, "skipped", "", "Write skipped addresses as CSV to this file")

	rootCmd.AddCommand(extractCmd)
}

// extractParams holds the resolved settings of one extract invocation
type extractParams struct {
	opts        extract.Options
	format      export.Format
	outputPath  string
	skippedPath string
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	params, err := resolveExtractParams(cfg,
		cmd.Flags().Changed("max-per-domain"), extractMaxPerDomain,
		cmd.Flags().Changed("keywords"), extractKeywords,
		extractFormat)
	if err != nil {
		return err
	}
	params.outputPath = extractOutput
	params.skippedPath = extractSkipped

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	logger := app.NewLogger(config.LoggingConfig{Level: cfg.Logging.Level, Format: "text"}, cmd.ErrOrStderr())

	res, err := extractFrom(in, cmd.OutOrStdout(), cmd.ErrOrStderr(), params)
	if err != nil {
		return err
	}

	logger.Debug("extraction completed",
		"unique", res.Summary.UniqueTotal,
		"selected", res.Summary.SelectedCount,
		"skipped", res.Summary.SkippedCount,
	)
	return nil
}

// resolveExtractParams merges flags over config defaults. Flags that were not
// set on the command line keep the configured values.
func resolveExtractParams(cfg *config.Config, capSet bool, maxPerDomain int, keywordsSet bool, keywords, format string) (extractParams, error) {
	opts := cfg.ExtractOptions()

	if capSet {
		opts.MaxPerDomain = maxPerDomain
	}
	if keywordsSet {
		opts.Keywords = extract.ParseKeywords(keywords)
	}

	if err := opts.Validate(); err != nil {
		return extractParams{}, fmt.Errorf("invalid --max-per-domain: %w", err)
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		return extractParams{}, err
	}

	return extractParams{opts: opts.Normalize(), format: f}, nil
}

// extractFrom runs the pipeline over everything readable from in and writes
// the selection to p.outputPath, or to out when no path is set. Notices go to
// errOut. No file is created for an empty result.
func extractFrom(in io.Reader, out, errOut io.Writer, p extractParams) (*extract.Result, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	res := extract.Run(string(data), p.opts)

	if res.Empty() {
		fmt.Fprintln(errOut, "No valid emails found in the input text.")
		return res, nil
	}

	writeResult := func(w io.Writer) error {
		return export.Write(w, p.format, res)
	}
	if p.outputPath != "" {
		err = writeFile(p.outputPath, writeResult)
	} else {
		err = writeResult(out)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write result: %w", err)
	}

	if p.skippedPath != "" {
		err := writeFile(p.skippedPath, func(w io.Writer) error {
			return export.WriteSkippedCSV(w, res.Skipped)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to write skipped file: %w", err)
		}
	}

	if len(res.Skipped) > 0 {
		fmt.Fprintf(errOut, "%d emails were filtered out by the per-domain limit.\n", len(res.Skipped))
	} else {
		fmt.Fprintln(errOut, "No emails were skipped.")
	}

	return res, nil
}

// writeFile creates path and passes it to write. A failed Close is reported.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return write(f)
}
