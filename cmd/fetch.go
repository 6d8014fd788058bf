package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/assetpipe/internal/httpclient"
	"github.com/conneroisu/assetpipe/internal/logging"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <host> [path]",
	Short: "Send an HTTP request and print the response body",
	Long: `Send one HTTP request, as build scripts do to notify services or pull
remote data. HTTPS is used unless --scheme http is given. A response status
of 400 or above is an error and its body is printed to stderr.

Examples:
  assetpipe fetch api.example.com /v1/status
  assetpipe fetch --method POST --data '{"a":1}' -H 'Content-Type: application/json' localhost /hook --scheme http --port 8080`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFetch,
}

var (
	fetchMethod   string
	fetchScheme   string
	fetchPort     int
	fetchHeaders  []string
	fetchData     string
	fetchEncoding string
	fetchInsecure bool
	fetchCA       string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchMethod, "method", "X", "", "HTTP method (default GET, POST when --data is set)")
	fetchCmd.Flags().StringVar(&fetchScheme, "scheme", "https", "URL scheme (https, http)")
	fetchCmd.Flags().IntVarP(&fetchPort, "port", "p", 0, "port (default for the scheme when 0)")
	fetchCmd.Flags().StringArrayVarP(&fetchHeaders, "header", "H", nil, "request header as 'Name: value' (repeatable)")
	fetchCmd.Flags().StringVarP(&fetchData, "data", "d", "", "request body")
	fetchCmd.Flags().StringVar(&fetchEncoding, "encoding", "utf8", "response encoding (utf8, latin1)")
	fetchCmd.Flags().BoolVarP(&fetchInsecure, "insecure", "k", false, "skip TLS certificate verification")
	fetchCmd.Flags().StringVar(&fetchCA, "ca", "", "PEM file with additional trusted certificates")
}

func runFetch(cmd *cobra.Command, args []string) error {
	opts := httpclient.Options{
		Method:             fetchMethod,
		Scheme:             fetchScheme,
		Host:               args[0],
		Port:               fetchPort,
		Encoding:           fetchEncoding,
		InsecureSkipVerify: fetchInsecure,
	}
	if len(args) > 1 {
		opts.Path = args[1]
	}

	headers, err := parseHeaders(fetchHeaders)
	if err != nil {
		return err
	}
	opts.Headers = headers

	if fetchCA != "" {
		ca, err := os.ReadFile(fetchCA)
		if err != nil {
			return fmt.Errorf("failed to read CA file: %w", err)
		}
		opts.CA = ca
	}

	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelWarn, Output: cmd.ErrOrStderr()})
	client, err := httpclient.New(logger)
	if err != nil {
		return err
	}

	var body string
	if fetchData != "" || (fetchMethod != "" && !strings.EqualFold(fetchMethod, "GET")) {
		body, err = client.Request(cmd.Context(), opts, fetchData)
	} else {
		body, err = client.Get(cmd.Context(), opts)
	}
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.Body != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), statusErr.Body)
		}
		return err
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), body)
	return err
}

func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}
