package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Details      []string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ TYPE NOT FOUND
//	   Schema files do not define type 'Sensr'.
//
//	   Did you mean: Sensor?
//
//	   → See all types: topickey derive sensors.yaml
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var headerAttrs, bodyAttrs []color.Attribute
	var symbol string
	switch opts.Level {
	case ErrorLevelWarning:
		headerAttrs = []color.Attribute{color.FgYellow, color.Bold}
		bodyAttrs = []color.Attribute{color.FgYellow}
		symbol = "⚠️"
	default:
		headerAttrs = []color.Attribute{color.FgRed, color.Bold}
		bodyAttrs = []color.Attribute{color.FgRed}
		symbol = "❌"
	}
	header := paint(opts.NoColor, headerAttrs...)
	body := paint(opts.NoColor, bodyAttrs...)

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s\n", symbol, strings.ToUpper(opts.Context))
		body.Fprintf(&b, "   %s\n", indent(opts.Problem))
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, indent(opts.Problem))
	}

	if len(opts.Details) > 0 {
		b.WriteString("\n")
		for _, d := range opts.Details {
			body.Fprintf(&b, "   %s\n", indent(d))
		}
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		paint(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := paint(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// indent keeps continuation lines of multi-line messages aligned
func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n   ")
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return paint(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// SchemaError reports a rejected schema. Each joined field error becomes
// one detail line under the registration message.
func SchemaError(err error, noColor bool) string {
	problem := err.Error()
	var details []string
	if joined := joinedErrors(err); len(joined) > 0 {
		problem, _, _ = strings.Cut(problem, ": ")
		for _, e := range joined {
			details = append(details, e.Error())
		}
	}

	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "SCHEMA REJECTED",
		Problem: problem,
		Details: details,
		HelpCommands: []string{
			"Check type expressions: topickey derive --help",
		},
		NoColor: noColor,
	})
}

func joinedErrors(err error) []error {
	for err != nil {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			return joined.Unwrap()
		}
		err = errors.Unwrap(err)
	}
	return nil
}

// TypeNotFoundError reports an unknown type identifier
func TypeNotFoundError(typeID string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "TYPE NOT FOUND",
		Problem:     fmt.Sprintf("Schema files do not define type '%s'.", typeID),
		Suggestions: suggestions,
		HelpCommands: []string{
			"See all types: topickey derive <schema files>",
		},
		NoColor: noColor,
	})
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "CONFIGURATION ERROR",
		Problem: message,
		HelpCommands: []string{
			"View config: cat topickey.yaml",
			"Get help: topickey --help",
		},
		NoColor: noColor,
	})
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelWarning,
		Problem: message,
		NoColor: noColor,
	})
}
