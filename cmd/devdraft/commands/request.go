package commands

import (
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devdraft/saligen/internal/constants"
	"github.com/devdraft/saligen/pkg/ddclient"
	"github.com/devdraft/saligen/pkg/devdraft"
)

// requestFlags are shared by every request command.
type requestFlags struct {
	query   []string
	headers []string
	data    string
}

func (f *requestFlags) bind(cmd *cobra.Command, withBody bool) {
	cmd.Flags().StringArrayVarP(&f.query, "query", "q", nil, "query parameter KEY=VALUE (repeatable)")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "request header NAME:VALUE (repeatable)")

	if withBody {
		cmd.Flags().StringVarP(&f.data, "data", "d", "", "JSON body, @FILE to read it from a file, or - for stdin")
	}
}

func (f *requestFlags) options(cmd *cobra.Command) (*devdraft.RequestOptions, error) {
	query, err := parseQueryParams(f.query)
	if err != nil {
		return nil, err
	}

	headers, err := parseHeaders(f.headers)
	if err != nil {
		return nil, err
	}

	body, err := parseRequestBody(f.data, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}

	return &devdraft.RequestOptions{Query: query, Headers: headers, Body: body}, nil
}

func runRequest(cmd *cobra.Command, method, path string, opts *devdraft.RequestOptions) error {
	client, err := CreateClient()
	if err != nil {
		return err
	}

	result, err := client.Do(cmd.Context(), method, path, opts)
	if err != nil {
		return err
	}

	return outputValue(cmd.OutOrStdout(), result)
}

func newRequestCommand(method, short string, withBody bool) *cobra.Command {
	flags := &requestFlags{}
	name := strings.ToLower(method)

	cmd := &cobra.Command{
		Use:   name + " PATH",
		Short: short,
		Long:  short + ". PATH is joined to the configured base URL and may carry its own query string.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}

			return runRequest(cmd, method, args[0], opts)
		},
	}

	flags.bind(cmd, withBody)

	return cmd
}

// NewGetCommand creates the get command
func NewGetCommand() *cobra.Command {
	return newRequestCommand(http.MethodGet, "Send a GET request", false)
}

// NewPostCommand creates the post command
func NewPostCommand() *cobra.Command {
	var (
		idempotencyKey     string
		autoIdempotencyKey bool
	)

	flags := &requestFlags{}

	cmd := &cobra.Command{
		Use:   "post PATH",
		Short: "Send a POST request",
		Long: `Send a POST request. Retried attempts reuse the same Idempotency-Key header,
so supplying one lets the API deduplicate them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if idempotencyKey != "" && autoIdempotencyKey {
				return ErrConflictingIdempotency
			}

			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}

			key := idempotencyKey
			if autoIdempotencyKey {
				key = ddclient.NewIdempotencyKey()
			}

			if key != "" {
				if opts.Headers == nil {
					opts.Headers = make(map[string]string)
				}

				opts.Headers[constants.HeaderIdempotencyKey] = key
			}

			return runRequest(cmd, http.MethodPost, args[0], opts)
		},
	}

	flags.bind(cmd, true)
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header value")
	cmd.Flags().BoolVar(&autoIdempotencyKey, "auto-idempotency-key", false, "generate a random Idempotency-Key")

	return cmd
}

// NewPutCommand creates the put command
func NewPutCommand() *cobra.Command {
	return newRequestCommand(http.MethodPut, "Send a PUT request", true)
}

// NewPatchCommand creates the patch command
func NewPatchCommand() *cobra.Command {
	return newRequestCommand(http.MethodPatch, "Send a PATCH request", true)
}

// NewDeleteCommand creates the delete command
func NewDeleteCommand() *cobra.Command {
	return newRequestCommand(http.MethodDelete, "Send a DELETE request", false)
}
