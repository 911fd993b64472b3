// Package pali wires the pali assembler into the lawa CLI.
package pali

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/crashandsideburns/lawa/pkg/pali"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	errLabel  = color.New(color.FgRed, color.Bold)
	errDetail = color.New(color.FgWhite)
	errSpan   = color.New(color.FgCyan)
	errSource = color.New(color.FgHiBlack)
)

// Cmd is the `lawa pali` subcommand tree, added to cmd.RootCmd.
var Cmd = &cobra.Command{
	Use:   "pali <source> [output]",
	Short: "Assemble a pali source file into a poki object",
	Long: `pali reads a parenthesized lawa assembly source file and writes a
relocatable poki object file.

If output is omitted, it defaults to the source path with its extension
replaced by .poki.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAssemble,
}

func runAssemble(cmd *cobra.Command, args []string) error {
	sourcePath := args[0]
	outputPath := outputPathFor(sourcePath, args)

	contents, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", sourcePath, err)
	}
	source := string(contents)

	object, err := pali.Assemble(source)
	if err != nil {
		printDiagnostic(sourcePath, source, err)
		os.Exit(1)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	defer out.Close()

	if err := object.Serialize(out); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	fmt.Fprintf(os.Stderr, "wrote %s\n", outputPath)
	return nil
}

func outputPathFor(sourcePath string, args []string) string {
	if len(args) == 2 {
		return args[1]
	}
	if ext := lastExt(sourcePath); ext != "" {
		return strings.TrimSuffix(sourcePath, ext) + ".poki"
	}
	return sourcePath + ".poki"
}

func lastExt(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 && strings.LastIndexByte(path, '/') < i {
		return path[i:]
	}
	return ""
}

// printDiagnostic prints an assembly error with the offending span's
// source context highlighted, in the style of a compiler's caret
// diagnostic, colorized via fatih/color the way the rest of this
// toolchain colorizes its debug output.
func printDiagnostic(path, source string, err error) {
	var parseErr *pali.ParseError
	var lexErr *pali.LexError

	switch {
	case errors.As(err, &parseErr):
		printSpan(path, source, parseErr.Span, parseErr.Err.Error())
		if parseErr.RelatedSpan != nil {
			printSpan(path, source, *parseErr.RelatedSpan, parseErr.RelatedLabel)
		}
	case errors.As(err, &lexErr):
		printSpan(path, source, lexErr.Span, lexErr.Err.Error())
	default:
		fmt.Fprintf(os.Stderr, "%s %v\n", errLabel.Sprint("error:"), err)
	}
}

func printSpan(path, source string, span pali.Span, message string) {
	line, col, lineText := locate(source, span.Start)
	fmt.Fprintf(os.Stderr, "%s %s:%d:%d: %s\n",
		errLabel.Sprint("error:"), path, line, col, errDetail.Sprint(message))
	fmt.Fprintf(os.Stderr, "  %s\n", errSource.Sprint(lineText))
	fmt.Fprintf(os.Stderr, "  %s%s\n", strings.Repeat(" ", col-1), errSpan.Sprint("^"))
}

func locate(source string, offset int) (line, col int, lineText string) {
	line = 1
	lineStart := 0
	for i := 0; i < offset && i < len(source); i++ {
		if source[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	lineEnd := len(source)
	if idx := strings.IndexByte(source[lineStart:], '\n'); idx >= 0 {
		lineEnd = lineStart + idx
	}
	return line, offset - lineStart + 1, source[lineStart:lineEnd]
}
