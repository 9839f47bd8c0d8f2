// Package cli implements the qmva command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qmva/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootOptions holds global flag values accessible to all subcommands.
type rootOptions struct {
	configDir string
	dataDir   string
	password  string
	jsonMode  bool
}

// NewRootCmd creates the top-level "qmva" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "qmva",
		Short: "Desk for QM procedure instructions and read confirmations",
		Long: "qmva maintains the procedure instructions (Verfahrensanweisungen) of a\n" +
			"quality-management system, records read confirmations against the\n" +
			"employee roster and renders procedures as PDF documents.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", "configuration directory (default: .qmva)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory (default: .qmva-data)")
	root.PersistentFlags().StringVar(&opts.password, "password", "", "access password for changes (default: $QMVA_PASSWORD)")
	root.PersistentFlags().BoolVar(&opts.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newVACmd(opts))
	root.AddCommand(newConfirmCmd(opts))
	root.AddCommand(newProgressCmd(opts))
	root.AddCommand(newRenderCmd(opts))
	root.AddCommand(newRosterCmd(opts))
	root.AddCommand(newArchiveCmd(opts))
	root.AddCommand(newExportCmd(opts))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

// run executes root with args and returns the process exit code. Errors are
// printed to stderr.
func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "qmva:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// systemError marks failures of the environment (file system, network) as
// opposed to bad input.
type systemError struct {
	err error
}

func (e *systemError) Error() string { return e.err.Error() }
func (e *systemError) Unwrap() error { return e.err }

// sysErr wraps a non-nil err as a system error.
func sysErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &systemError{err: fmt.Errorf("%s: %w", op, err)}
}

// classify returns err unchanged when it is caused by bad input and wraps it
// as a system error otherwise.
func classify(op string, err error) error {
	if err == nil || isUserError(err) {
		return err
	}
	return sysErr(op, err)
}

// exitCode maps err to a process exit code. Input errors exit with 1,
// environment failures with 2.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se *systemError
	if errors.As(err, &se) && !isUserError(err) {
		return exitSysError
	}
	return exitUserError
}

func isUserError(err error) bool {
	for _, target := range []error{
		types.ErrNotFound,
		types.ErrInvalidID,
		types.ErrInvalidData,
		types.ErrInvalidName,
		types.ErrDuplicateID,
		types.ErrAlreadyConfirmed,
		types.ErrUnauthorized,
		types.ErrUnknownTable,
		types.ErrPasswordEmpty,
		types.ErrTimezoneUnknown,
		types.ErrArchiveUnknown,
		types.ErrArchiveBucketEmpty,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
