package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// postJSON posts body to path and decodes the JSON response. Non-2xx
// responses surface the server's error field.
func postJSON(baseURL BaseURLFunc, path string, body any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}
	resp, err := http.Post(baseURL()+path, "application/json", &buf)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("server: %s", e.Error)
		}
		return fmt.Errorf("server: %s", resp.Status)
	}
	if out != nil && len(data) > 0 {
		return json.Unmarshal(data, out)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newQueueListCommand constructs the `queue ls` subcommand.
func newQueueListCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List live queues",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := http.Get(baseURL() + "/v1/queues")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			var out map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

// newQueuePushCommand constructs the `queue push` subcommand.
func newQueuePushCommand(baseURL BaseURLFunc) *cobra.Command {
	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Push a JSON record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("queue")
			recJSON, _ := cmd.Flags().GetString("record")
			flushAt, _ := cmd.Flags().GetInt("flush-at")
			maxLength, _ := cmd.Flags().GetInt("max-length")
			flushTimeoutMs, _ := cmd.Flags().GetInt("flush-timeout-ms")
			noPersist, _ := cmd.Flags().GetBool("no-persist")

			var rec map[string]any
			if err := json.Unmarshal([]byte(recJSON), &rec); err != nil {
				return fmt.Errorf("invalid --record: %w", err)
			}
			return postJSON(baseURL, "/v1/queues/push", map[string]any{
				"queue":          name,
				"record":         rec,
				"flushAt":        flushAt,
				"maxLength":      maxLength,
				"flushTimeoutMs": flushTimeoutMs,
				"noPersist":      noPersist,
			}, nil)
		},
	}
	pushCmd.Flags().StringP("queue", "q", "", "Queue name")
	pushCmd.Flags().StringP("record", "r", "", "Record as a JSON object")
	pushCmd.Flags().Int("flush-at", 0, "Flush threshold if this push creates the queue")
	pushCmd.Flags().Int("max-length", 0, "Capacity bound if this push creates the queue")
	pushCmd.Flags().Int("flush-timeout-ms", 0, "Flush deadline if this push creates the queue")
	pushCmd.Flags().Bool("no-persist", false, "Drop stored records on open instead of recovering them")
	_ = pushCmd.MarkFlagRequired("queue")
	_ = pushCmd.MarkFlagRequired("record")
	return pushCmd
}

// newQueueLengthCommand constructs the `queue length` subcommand.
func newQueueLengthCommand(baseURL BaseURLFunc) *cobra.Command {
	lengthCmd := &cobra.Command{
		Use:   "length",
		Short: "Report the record count",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("queue")
			var out map[string]any
			if err := postJSON(baseURL, "/v1/queues/length", map[string]any{"queue": name}, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	lengthCmd.Flags().StringP("queue", "q", "", "Queue name")
	_ = lengthCmd.MarkFlagRequired("queue")
	return lengthCmd
}

// newQueueRecordsCommand constructs the `queue records` subcommand.
func newQueueRecordsCommand(baseURL BaseURLFunc) *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "List stored records, optionally filtered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("queue")
			filter, _ := cmd.Flags().GetString("filter")
			var out map[string]any
			if err := postJSON(baseURL, "/v1/queues/list", map[string]any{
				"queue":  name,
				"filter": filter,
			}, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	recordsCmd.Flags().StringP("queue", "q", "", "Queue name")
	recordsCmd.Flags().String("filter", "", "CEL filter over record/index/now_ms")
	_ = recordsCmd.MarkFlagRequired("queue")
	return recordsCmd
}

// newQueueFlushCommand constructs the `queue flush` subcommand.
func newQueueFlushCommand(baseURL BaseURLFunc) *cobra.Command {
	flushCmd := &cobra.Command{
		Use:   "flush",
		Short: "Drain all stored records and print them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("queue")
			var out map[string]any
			if err := postJSON(baseURL, "/v1/queues/flush", map[string]any{"queue": name}, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	flushCmd.Flags().StringP("queue", "q", "", "Queue name")
	_ = flushCmd.MarkFlagRequired("queue")
	return flushCmd
}

// newQueueDestroyCommand constructs the `queue destroy` subcommand.
func newQueueDestroyCommand(baseURL BaseURLFunc) *cobra.Command {
	destroyCmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy a queue, optionally erasing records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("queue")
			erase, _ := cmd.Flags().GetBool("erase")
			return postJSON(baseURL, "/v1/queues/destroy", map[string]any{
				"queue": name,
				"erase": erase,
			}, nil)
		},
	}
	destroyCmd.Flags().StringP("queue", "q", "", "Queue name")
	destroyCmd.Flags().Bool("erase", false, "Also erase persisted records")
	_ = destroyCmd.MarkFlagRequired("queue")
	return destroyCmd
}
