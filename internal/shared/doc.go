// Package shared holds helpers used by more than one layer of the service.
//
// The testutil subpackage provides a capturing slog handler and xlsx
// fixtures for the claims and outstanding claims registers, so that the
// pipeline, service and HTTP tests exercise the same workbooks.
package shared
