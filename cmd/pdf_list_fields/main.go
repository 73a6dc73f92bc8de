package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/a3tai/pdf-template-filler/internal/config"
	"github.com/a3tai/pdf-template-filler/internal/pdf"
)

// FieldListResult is the outcome of listing a document's form fields.
type FieldListResult struct {
	FilePath   string           `json:"file_path"`
	Success    bool             `json:"success"`
	FieldCount int              `json:"field_count"`
	PageCount  int              `json:"page_count"`
	Fields     []pdf.FieldValue `json:"fields"`
	Error      string           `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("pdf_list_fields", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	outputFormat := flags.String("format", "text", "Output format: text, json")
	maxFileSize := flags.Int64("maxfilesize", config.DefaultMaxFileSize, "Maximum PDF file size in bytes")
	help := flags.Bool("help", false, "Show help message")

	if err := flags.Parse(args); err != nil {
		return 2
	}
	if *help {
		printHelp(stdout)
		return 0
	}
	if flags.NArg() == 0 {
		fmt.Fprintf(stderr, "Error: PDF file path required\n\n")
		printUsage(stderr)
		return 1
	}

	result := listFields(context.Background(), flags.Arg(0), *maxFileSize)

	var err error
	switch *outputFormat {
	case "json":
		err = outputJSON(stdout, result)
	case "text":
		outputText(stdout, result)
	default:
		err = fmt.Errorf("unsupported output format: %s", *outputFormat)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error outputting results: %v\n", err)
		return 1
	}
	if !result.Success {
		return 1
	}
	return 0
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "PDF List Fields - Show the form fields a template upload would discover")
	fmt.Fprintln(w)
	printUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "  --format        Output format: text (default), json")
	fmt.Fprintln(w, "  --maxfilesize   Maximum PDF file size in bytes")
	fmt.Fprintln(w, "  --help          Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  pdf_list_fields w9.pdf")
	fmt.Fprintln(w, "  pdf_list_fields --format json form_Jane.pdf")
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  pdf_list_fields [OPTIONS] <pdf_file>")
}

// listFields reads the document at path and collects its fields. Failures
// are reported in the result.
func listFields(ctx context.Context, path string, maxFileSize int64) *FieldListResult {
	result := &FieldListResult{FilePath: path}
	if abs, err := filepath.Abs(path); err == nil {
		result.FilePath = abs
	}

	data, err := pdf.NewValidator(maxFileSize).ReadFile(result.FilePath)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	fields, err := pdf.NewPDFCPUInspector(nil).FieldValues(ctx, data)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if rendering, err := pdf.NewGeometryRenderer().RenderPage(ctx, data, 0, 0); err == nil {
		result.PageCount = rendering.PageCount
	}

	result.Success = true
	result.FieldCount = len(fields)
	result.Fields = fields
	return result
}

func outputJSON(w io.Writer, result *FieldListResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputText(w io.Writer, result *FieldListResult) {
	if !result.Success {
		fmt.Fprintf(w, "❌ Reading form fields failed: %s\n", result.Error)
		return
	}

	if result.FieldCount == 0 {
		fmt.Fprintf(w, "⚠️  No form fields detected in the PDF (%d page(s))\n", result.PageCount)
		fmt.Fprintln(w, "Values can still be placed with manual fields once the PDF is uploaded as a template.")
		return
	}

	fmt.Fprintf(w, "✅ Found %d form fields (%d page(s))\n\n", result.FieldCount, result.PageCount)
	for i, field := range result.Fields {
		fmt.Fprintf(w, "[%d] %s\n", i+1, field.Name)
		fmt.Fprintf(w, "    Type: %s\n", field.Type)
		if field.Value != "" {
			fmt.Fprintf(w, "    Value: %s\n", field.Value)
		}
	}
}
