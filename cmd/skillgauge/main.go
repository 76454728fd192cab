package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess    = 0 // All cases passed
	ExitCaseFailed = 1 // One or more cases failed validation
	ExitError      = 2 // Configuration or runtime error
)

// CaseFailureError indicates that the suite ran to completion, but one or
// more test cases failed validation.
type CaseFailureError struct {
	Message string
}

func (e *CaseFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var caseFailureErr *CaseFailureError
		if errors.As(err, &caseFailureErr) {
			os.Exit(ExitCaseFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
