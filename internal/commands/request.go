package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-openapi/config"
	"github.com/gaborage/go-openapi/httpclient"
	"github.com/gaborage/go-openapi/logger"
	"github.com/gaborage/go-openapi/payload"
)

// RequestOptions holds the flags of the request command
type RequestOptions struct {
	Query   []string
	Headers []string
	Body    string
	Raw     bool
}

// NewRequestCommand creates the request command
func NewRequestCommand(global *GlobalOptions) *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send one signed request and print the response data",
		Example: `  # Account balance
  openapi request GET /v1/asset/account

  # Query parameters and a JSON body
  openapi request POST /v1/trade/order --body '{"symbol":"700.HK"}' --query dry_run=true`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(global.ConfigFile)
			if err != nil {
				return err
			}
			log := logger.NewWithOptions(logger.Options{
				Level:  cfg.Log.Level,
				Pretty: cfg.Log.Pretty,
				Output: cmd.ErrOrStderr(),
			})
			return runRequest(cmd, httpclient.FromConfig(cfg, log), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Query, "query", "q", nil, "Query parameter as key=value (repeatable, replaces any query in PATH)")
	cmd.Flags().StringArrayVarP(&opts.Headers, "header", "H", nil, "Extra header as name:value (repeatable)")
	cmd.Flags().StringVarP(&opts.Body, "body", "d", "", "JSON request body")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "Print data without indentation")

	return cmd
}

func runRequest(cmd *cobra.Command, client *httpclient.Client, method, path string, opts *RequestOptions) error {
	query, err := parseQuery(opts.Query)
	if err != nil {
		return err
	}
	if opts.Body != "" && !json.Valid([]byte(opts.Body)) {
		return errors.New("--body is not valid JSON")
	}

	req := client.Request(method, path)
	for _, h := range opts.Headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return fmt.Errorf("invalid header %q, expected name:value", h)
		}
		req = req.Header(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	// --query replaces a query written into PATH, so only attach it when given
	withBody := httpclient.WithBody(req, payload.Text(opts.Body))
	var data payload.JSON[json.RawMessage]
	if len(query) > 0 {
		data, err = httpclient.WithResponse[payload.JSON[json.RawMessage]](httpclient.WithQuery(withBody, query)).Send(cmd.Context())
	} else {
		data, err = httpclient.WithResponse[payload.JSON[json.RawMessage]](withBody).Send(cmd.Context())
	}
	if err != nil {
		return err
	}

	out := []byte(data.Value)
	if !opts.Raw {
		var buf bytes.Buffer
		if err := json.Indent(&buf, out, "", "  "); err == nil {
			out = buf.Bytes()
		}
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func parseQuery(pairs []string) (url.Values, error) {
	values := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query parameter %q, expected key=value", pair)
		}
		values.Add(key, value)
	}
	return values, nil
}

// exitCode maps a failed command to a process exit status.
func exitCode(err error) int {
	var cfgErr *config.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		return 2
	case httpclient.IsErrorType(err, httpclient.DomainError):
		return 3
	default:
		return 1
	}
}

// Execute runs the CLI and returns the process exit status.
func Execute(version string) int {
	cmd := NewRootCommand(version)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return 0
}
