package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs the root command group for queue operations.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "queue",
		Short: "Queue operations",
	}
	root.AddCommand(
		newQueueListCommand(baseURL),
		newQueuePushCommand(baseURL),
		newQueueLengthCommand(baseURL),
		newQueueRecordsCommand(baseURL),
		newQueueFlushCommand(baseURL),
		newQueueDestroyCommand(baseURL),
	)
	return root
}
