package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// envelope mirrors the daemon's unified response format.
type envelope struct {
	Result        string          `json:"result"`
	Data          json.RawMessage `json:"data,omitempty"`
	Code          string          `json:"code,omitempty"`
	Message       string          `json:"message,omitempty"`
	CorrelationID string          `json:"correlationId"`
}

// client is a thin wrapper over the maintenance API.
type client struct {
	opts *RootOptions
	http *http.Client
}

func newClient(opts *RootOptions) *client {
	return &client{
		opts: opts,
		http: &http.Client{Timeout: opts.Timeout},
	}
}

// call performs a request and returns the envelope's data payload. A
// non-ok envelope becomes an error carrying the daemon's code and
// message.
func (c *client) call(method, path string, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	url := strings.TrimRight(c.opts.Addr, "/") + path
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("malformed response from %s: %w", url, err)
	}
	if env.Result != "ok" {
		return nil, fmt.Errorf("%s: %s", env.Code, env.Message)
	}
	return env.Data, nil
}

// printData renders the payload per the --format flag. In text mode the
// keys are printed as "key: value" lines in sorted order.
func printData(out io.Writer, opts *RootOptions, data json.RawMessage) error {
	if opts.Format == "json" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		fmt.Fprintln(out, buf.String())
		return nil
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(out, "%s: %v\n", key, fields[key])
	}
	return nil
}
