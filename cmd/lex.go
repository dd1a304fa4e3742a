package cmd

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/zjrosen/hlspan/internal/input"
	"github.com/zjrosen/hlspan/internal/lexer"
)

var lexChars bool

var lexCmd = &cobra.Command{
	Use:   "lex <source-file>",
	Short: "Print the example lexer's tokens as span lines",
	Long: `Tokenizes a file with the built-in example lexer and prints one
"<start> <end> <Token>" line per token, ready to be piped back into hlspan.

Offsets are bytes by default; pass --chars to emit character indices.

Example:
  hlspan lex prog.mini | hlspan --bytes prog.mini
  hlspan lex --chars prog.mini | hlspan prog.mini`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := input.LoadFile(args[0])
		if err != nil {
			return err
		}
		return writeTokens(cmd.OutOrStdout(), source, lexChars)
	},
}

func init() {
	lexCmd.Flags().BoolVar(&lexChars, "chars", false, "emit character indices instead of byte offsets")
	rootCmd.AddCommand(lexCmd)
}

// writeTokens prints every token of source as a span line.
func writeTokens(w io.Writer, source string, chars bool) error {
	// Tokens arrive in order, so character indices are counted incrementally.
	var lastByte, lastChar int
	toChar := func(b int) int {
		lastChar += utf8.RuneCountInString(source[lastByte:b])
		lastByte = b
		return lastChar
	}

	for _, tok := range lexer.Lex(source) {
		start, end := tok.Start(), tok.End()
		if chars {
			start, end = toChar(start), toChar(end)
		}
		if _, err := fmt.Fprintf(w, "%d %d %s\n", start, end, tok.TokenName()); err != nil {
			return fmt.Errorf("writing tokens: %w", err)
		}
	}
	return nil
}
