// Package client contains Cobra CLI commands that drive a running batchq
// server over its HTTP API. The base URL is provided by the binary via a
// BaseURLFunc so it can come from a flag or the environment.
package client
