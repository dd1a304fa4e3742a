package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/hlspan/internal/config"
	"github.com/zjrosen/hlspan/internal/highlight"
	"github.com/zjrosen/hlspan/internal/lexer"
	"github.com/zjrosen/hlspan/internal/templates"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Highlight the built-in sample program",
	Long: `Lexes a small embedded sample program and prints its highlight table
using the current configuration. Span and line columns are always shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		applyColorMode(cfg.Color)

		hl, err := demoHighlighter(cfg)
		if err != nil {
			return err
		}
		return hl.Print(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

// demoHighlighter lexes the embedded sample into a filled Highlighter.
func demoHighlighter(c config.Config) (*highlight.Highlighter, error) {
	c.ShowSpan = true
	c.ShowLine = true
	opts, err := highlightOptions(c, true)
	if err != nil {
		return nil, err
	}

	source := templates.Sample()
	hl, err := highlight.New(source, opts)
	if err != nil {
		return nil, err
	}
	for _, tok := range lexer.Lex(source) {
		if err := hl.Submit(tok, tok); err != nil {
			return nil, err
		}
	}
	return hl, nil
}
