package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/aristath/meterwatch/internal/metrics"
	"github.com/aristath/meterwatch/internal/modules/classification"
	"github.com/aristath/meterwatch/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats of the classify command
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

type classifyOptions struct {
	file     string
	output   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "meterwatch",
		Short:         "Classify monthly electricity consumption anomalies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newClassifyCmd(), newCategoriesCmd(), newMetricsDocCmd())
	return root
}

func newClassifyCmd() *cobra.Command {
	opts := &classifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify the series in a JSON file (or stdin with --file -)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "JSON file with a records array or {\"records\": [...]}")
	cmd.Flags().StringVarP(&opts.output, "output", "o", formatJSON, "Output format: json or yaml")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "error", "Log level: debug, info, warn, error")
	return cmd
}

func runClassify(cmd *cobra.Command, opts *classifyOptions) error {
	if opts.output != formatJSON && opts.output != formatYAML {
		return fmt.Errorf("unsupported output format %q", opts.output)
	}

	log := logger.NewWithWriter(logger.Config{Level: opts.logLevel, Pretty: true}, cmd.ErrOrStderr())

	data, err := readInput(cmd.InOrStdin(), opts.file)
	if err != nil {
		return err
	}

	records, err := decodeRecords(data)
	if err != nil {
		return err
	}

	service := classification.NewService(nil, nil, 0, log)
	result, _, err := service.Classify(context.Background(), records)
	if err != nil {
		return fmt.Errorf("failed to classify series: %w", err)
	}

	return writeResult(cmd.OutOrStdout(), opts.output, result)
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, nil
}

// decodeRecords accepts a bare records array or an object with a records field
func decodeRecords(data []byte) ([]domain.MonthlyRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []domain.MonthlyRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("failed to decode records: %w", err)
		}
		return records, nil
	}

	var body struct {
		Records []domain.MonthlyRecord `json:"records"`
	}
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return body.Records, nil
}

func writeResult(w io.Writer, format string, result *domain.ClassificationResult) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the verdict categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, c := range domain.AllCategories {
				fmt.Fprintf(cmd.OutOrStdout(), "%-26s %s\n", c, c.Description())
			}
			return nil
		},
	}
}

func newMetricsDocCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics-doc",
		Short: "Print the Prometheus metrics reference as markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := metrics.New(prometheus.NewRegistry()).Documentation()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "# Meterwatch metrics\n%s", doc)
			return err
		},
	}
}
