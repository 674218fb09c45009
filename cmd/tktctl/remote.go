package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/h1v3-io/tkt/pkg/protocol"
)

// client talks to a running tktd.
type client struct {
	base string
	key  string
	http *http.Client
}

func newClient(opts *cliOptions) *client {
	return &client{
		base: strings.TrimSuffix(opts.addr, "/"),
		key:  opts.key,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *client) do(method, path string, body any) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}

func newSendCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <command...>",
		Short: "Run one command through a running tktd",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := newClient(opts).do(http.MethodPost, "/api/process", map[string]string{
				"message": strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			var res struct {
				Response json.RawMessage `json:"ai_response"`
			}
			var r protocol.Response
			if err := json.Unmarshal(body, &res); err != nil {
				return fmt.Errorf("decode reply: %w", err)
			}
			if err := json.Unmarshal(res.Response, &r); err != nil {
				return fmt.Errorf("decode reply: %w", err)
			}
			// Print the daemon's bytes so field order survives.
			fmt.Fprintln(cmd.OutOrStdout(), statusTag(r.Status)+" "+string(res.Response))
			return nil
		},
	}
}

func newTicketsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "Query tickets on a running tktd",
	}

	var status, cat, pri string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List tickets (--status, --cat, --pri, --limit)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			if status != "" {
				q.Set("status", status)
			}
			if cat != "" {
				q.Set("cat", cat)
			}
			if pri != "" {
				q.Set("pri", pri)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			path := "/api/tickets"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			body, err := newClient(opts).do(http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			var res struct {
				Data []protocol.Summary `json:"data"`
			}
			if err := json.Unmarshal(body, &res); err != nil {
				return fmt.Errorf("decode tickets: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderSummaries(res.Data))
			return nil
		},
	}
	list.Flags().StringVar(&status, "status", "", "filter by status (open|prog|done)")
	list.Flags().StringVar(&cat, "cat", "", "filter by category (code|infra|doc|other)")
	list.Flags().StringVar(&pri, "pri", "", "filter by priority (1-3 or high|med|low)")
	list.Flags().IntVar(&limit, "limit", 0, "max results (default 10)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := newClient(opts).do(http.MethodGet, "/api/tickets/"+url.PathEscape(strings.ToUpper(args[0])), nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), prettyJSON(body))
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func newStatsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show ticket statistics from a running tktd",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := newClient(opts).do(http.MethodGet, "/api/stats", nil)
			if err != nil {
				return err
			}
			var st protocol.Stats
			if err := json.Unmarshal(body, &st); err != nil {
				return fmt.Errorf("decode stats: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStats(st))
			return nil
		},
	}
}

func newHealthCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check daemon health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := newClient(opts).do(http.MethodGet, "/api/health", nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(body)))
			return nil
		},
	}
}

func prettyJSON(data []byte) string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	out, _ := json.MarshalIndent(v, "", "  ")
	return string(out)
}
