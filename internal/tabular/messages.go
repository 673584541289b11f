package tabular

// messages.go maps pipeline errors to user-friendly coded messages.
//
// Error codes are grouped by category:
//
//	LOAD001-LOAD099  file loading (empty files, encodings, separators)
//	CONF001-CONF099  conflict resolution
//	SCH001-SCH099    schema reconciliation
//	DUP001-DUP099    duplicate resolution
//	EXP001-EXP099    export
//	ENR001-ENR099    enrichment collaborators (catalog, forex, upload)
//
// Users can quote the code to support staff for faster diagnosis.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage is the user-facing form of a technical error.
type UserMessage struct {
	Message string `json:"message"` // what happened
	Action  string `json:"action"`  // what to do about it
	Code    string `json:"code"`    // support reference
}

// MapError converts a pipeline error to a coded user message. Typed errors
// are matched first; string patterns cover errors from collaborators.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return UserMessage{
			Message: fmt.Sprintf("File %q could not be read", loadErr.Source),
			Action:  "Check that the file is a valid CSV and that the separator and encoding match",
			Code:    "LOAD001",
		}
	}

	var conflict *AmbiguousConflict
	if errors.As(err, &conflict) {
		return UserMessage{
			Message: fmt.Sprintf("Column %q cannot be coerced because its declared types differ between files", conflict.Column),
			Action:  "Choose Rename or Drop for this column instead",
			Code:    "CONF001",
		}
	}

	var designation *InvalidDesignation
	if errors.As(err, &designation) {
		return UserMessage{
			Message: fmt.Sprintf("Column %q cannot be dropped without choosing which file keeps it", designation.Column),
			Action:  "Designate one of the uploaded files to keep the column",
			Code:    "CONF003",
		}
	}

	if errors.Is(err, ErrEmptyIntersection) {
		return UserMessage{
			Message: "The uploaded files share no common columns",
			Action:  "Use the Union strategy, or upload files with overlapping headers",
			Code:    "SCH001",
		}
	}

	if errors.Is(err, ErrEmptyTemplate) {
		return UserMessage{
			Message: "The template file has no columns",
			Action:  "Upload a template file with a header row, or pick another strategy",
			Code:    "SCH002",
		}
	}

	var exportErr *ExportError
	if errors.As(err, &exportErr) {
		return UserMessage{
			Message: "The dataset could not be exported in the chosen format",
			Action:  "Try a different encoding, or export as UTF-8 CSV",
			Code:    "EXP001",
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again, or contact support with the error code",
		Code:    "ERR000",
	}
}

// errorPattern defines a substring to match and its user message.
// The first matching pattern wins, so specific patterns come first.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "unknown comparison column",
		msg: UserMessage{
			Message: "One of the selected comparison columns does not exist in the merged dataset",
			Action:  "Pick comparison columns from the reconciled schema",
			Code:    "DUP001",
		},
	},
	{
		pattern: "unknown merge strategy",
		msg: UserMessage{
			Message: "The selected merge strategy is not recognized",
			Action:  "Choose union, intersection, or custom",
			Code:    "SCH003",
		},
	},
	{
		pattern: "unknown duplicate policy",
		msg: UserMessage{
			Message: "The selected duplicate policy is not recognized",
			Action:  "Choose keep-first, keep-last, keep-all, or drop-all",
			Code:    "DUP002",
		},
	},
	{
		pattern: "unknown conflict policy",
		msg: UserMessage{
			Message: "The selected conflict policy is not recognized",
			Action:  "Choose rename, coerce, or drop",
			Code:    "CONF002",
		},
	},
	{
		pattern: "card not found",
		msg: UserMessage{
			Message: "A card name was not found in the catalog",
			Action:  "Check the spelling, or add a set code to disambiguate",
			Code:    "ENR001",
		},
	},
	{
		pattern: "exchange rate",
		msg: UserMessage{
			Message: "The currency exchange rate could not be fetched",
			Action:  "Prices will be left empty; try again in a few moments",
			Code:    "ENR002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Try again, or upload a smaller file",
			Code:    "ERR001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "ERR002",
		},
	},
}
