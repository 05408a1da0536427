package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"mgaq/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	closeLogFile()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
	os.Exit(exitStatus)
}

// printError writes err and any suggested fixes it carries
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	var aqErr *errors.AqError
	if !stderrors.As(err, &aqErr) {
		return
	}
	for _, fix := range aqErr.SuggestedFixes {
		switch fix.Type {
		case errors.RunCommand:
			fmt.Fprintf(w, "  Try: %s  # %s\n", fix.Command, fix.Description)
		case errors.OpenDocs:
			fmt.Fprintf(w, "  See: %s  # %s\n", fix.URL, fix.Description)
		}
	}
}
