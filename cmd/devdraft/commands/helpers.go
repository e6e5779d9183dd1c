// Package commands implements the devdraft CLI commands.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/devdraft/saligen/internal/constants"
	"github.com/devdraft/saligen/pkg/ddclient"
	"github.com/devdraft/saligen/pkg/devdraft"
)

// Common string constants used throughout the commands package.
const (
	// KeyOutput is the viper key of the output format.
	KeyOutput = "output"

	NotAvailable = "N/A"
	Masked       = "****"

	defaultJSONIndent = "  "
)

// Common static errors used throughout the commands package.
var (
	ErrInvalidQueryParam       = errors.New("invalid query parameter, expected KEY=VALUE")
	ErrInvalidHeader           = errors.New("invalid header, expected NAME:VALUE")
	ErrInvalidRequestBody      = errors.New("request body is not valid JSON")
	ErrConflictingIdempotency  = errors.New("--idempotency-key and --auto-idempotency-key are mutually exclusive")
	ErrAPIKeyRequired          = errors.New("API key is required")
	ErrUnknownConfigKey        = errors.New("unknown configuration key")
	ErrInvalidConfigValue      = errors.New("invalid configuration value")
	ErrUnsupportedOutputFormat = errors.New("unsupported output format")
)

// CreateClient builds an SDK client from flags, environment and config file.
func CreateClient() (devdraft.Client, error) {
	config, err := ddclient.ConfigFromViper(viper.GetViper())
	if err != nil {
		return nil, err
	}

	return ddclient.New(config)
}

// PrintError writes err to w. Details of an API error are printed as JSON.
func PrintError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)

	apiErr, ok := devdraft.AsAPIError(err)
	if !ok || apiErr.Details.IsNull() {
		return
	}

	details, marshalErr := json.Marshal(apiErr.Details)
	if marshalErr == nil {
		_, _ = fmt.Fprintf(w, "Details: %s\n", details)
	}
}

func parseQueryParams(pairs []string) (url.Values, error) {
	query := url.Values{}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidQueryParam, pair)
		}

		query.Add(key, value)
	}

	return query, nil
}

func parseHeaders(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	headers := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHeader, pair)
		}

		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	return headers, nil
}

// parseRequestBody reads --data: inline JSON, @FILE, or - for stdin.
// An empty flag means no body.
func parseRequestBody(data string, stdin io.Reader) (interface{}, error) {
	if data == "" {
		return nil, nil
	}

	var (
		raw []byte
		err error
	)

	switch {
	case data == "-":
		raw, err = io.ReadAll(stdin)
	case strings.HasPrefix(data, "@"):
		raw, err = os.ReadFile(filepath.Clean(data[1:]))
	default:
		raw = []byte(data)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	value, err := devdraft.ParseValue(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequestBody, err)
	}

	return value, nil
}

// outputValue renders value in the configured output format.
func outputValue(w io.Writer, value devdraft.Value) error {
	switch format := viper.GetString(KeyOutput); format {
	case constants.FormatJSON, "":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", defaultJSONIndent)

		return encoder.Encode(value)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)

		err := encoder.Encode(value)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}

		return encoder.Close()
	case constants.FormatTable:
		return renderValueTable(w, value)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedOutputFormat, format)
	}
}

// renderValueTable prints arrays of objects one row per element, objects one
// row per field, and scalars as a single cell.
func renderValueTable(w io.Writer, value devdraft.Value) error {
	if value.IsNull() {
		_, err := fmt.Fprintln(w, "No content")

		return err
	}

	table := tablewriter.NewWriter(w)

	switch value.Kind() {
	case devdraft.KindArray:
		items := value.Array()
		columns := objectColumns(items)

		if len(columns) == 0 {
			table.Header("Value")

			for _, item := range items {
				_ = table.Append([]string{cellText(item)})
			}

			break
		}

		table.Header(toHeader(columns)...)

		for _, item := range items {
			row := make([]string, len(columns))
			for i, column := range columns {
				row[i] = cellText(item.Get(column))
			}

			_ = table.Append(row)
		}
	case devdraft.KindObject:
		table.Header("Property", "Value")

		fields := value.Object()
		for _, key := range sortedKeys(fields) {
			_ = table.Append([]string{key, cellText(fields[key])})
		}
	default:
		table.Header("Value")
		_ = table.Append([]string{cellText(value)})
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func objectColumns(items []devdraft.Value) []string {
	seen := make(map[string]struct{})

	for _, item := range items {
		for key := range item.Object() {
			seen[key] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}

	sort.Strings(columns)

	return columns
}

func sortedKeys(fields map[string]devdraft.Value) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func toHeader(columns []string) []any {
	header := make([]any, len(columns))
	for i, column := range columns {
		header[i] = column
	}

	return header
}

// cellText prints scalars as text and nested documents as compact JSON.
func cellText(value devdraft.Value) string {
	switch value.Kind() {
	case devdraft.KindNull:
		return NotAvailable
	case devdraft.KindArray, devdraft.KindObject:
		data, err := json.Marshal(value)
		if err != nil {
			return NotAvailable
		}

		return string(data)
	default:
		return value.Text()
	}
}
