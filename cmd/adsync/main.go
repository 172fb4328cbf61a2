// Command adsync extracts Ad Library search results from captured GraphQL
// responses and reconciles them into the ads database.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/pipeline"
)

// Exit codes: 1 for environment failures, 2 for unusable input.
const (
	exitFailure    = 1
	exitInputError = 2
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "adsync: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var usage *usageError
	if pipeline.IsInputError(err) || errors.As(err, &usage) {
		return exitInputError
	}
	return exitFailure
}

// usageError marks invalid flag combinations.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }
