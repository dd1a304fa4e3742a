package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/zjrosen/hlspan/internal/config"
	"github.com/zjrosen/hlspan/internal/highlight"
	"github.com/zjrosen/hlspan/internal/input"
	"github.com/zjrosen/hlspan/internal/lexer"
	"github.com/zjrosen/hlspan/internal/log"
	"github.com/zjrosen/hlspan/internal/span"
)

// runOptions carries the per-invocation inputs that are not configuration.
type runOptions struct {
	SourcePath string // empty reads the source from stdin
	Lex        bool   // tokenize the source instead of reading spans
	Watch      bool   // redraw when the source file changes
}

// highlightOptions maps the loaded configuration onto highlighter options.
// Lexer tokens are byte offsets, so forceBytes overrides the configured unit.
func highlightOptions(c config.Config, forceBytes bool) (highlight.Options, error) {
	sep, err := config.ParseSeparator(c.Separator)
	if err != nil {
		return highlight.Options{}, err
	}
	border, err := highlight.BorderByName(c.Theme.Border)
	if err != nil {
		return highlight.Options{}, err
	}

	opts := highlight.DefaultOptions()
	opts.Separator = sep
	opts.TabWidth = c.TabWidth
	opts.ShowSpan = c.ShowSpan
	opts.ShowLine = c.ShowLine
	opts.MaxWidth = c.MaxWidth
	opts.Style = highlight.NewSpanStyle(c.Theme.Foreground, c.Theme.Background)
	opts.Border = border
	if c.Bytes || forceBytes {
		opts.Unit = span.UnitBytes
	}
	return opts, nil
}

// run reads the source and spans, then prints the highlight table to stdout.
// In watch mode the table is redrawn whenever the source file changes, until
// ctx is cancelled; spans read from stdin are kept and reapplied.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, c config.Config, ro runOptions) error {
	if ro.Watch && ro.SourcePath == "" {
		return errors.New("--watch needs a source file argument")
	}

	opts, err := highlightOptions(c, ro.Lex)
	if err != nil {
		return err
	}

	reader := input.NewReader(stdin)

	var source string
	if ro.SourcePath != "" {
		source, err = input.LoadFile(ro.SourcePath)
	} else {
		source, err = reader.ReadSource()
	}
	if err != nil {
		return err
	}

	skip := func(err error) error {
		if !c.SkipInvalid {
			return err
		}
		log.Warn(log.CatInput, "Skipping span", "error", err)
		_, _ = fmt.Fprintf(stderr, "hlspan: skipping: %v\n", err)
		return nil
	}

	var spans []input.SpanLine
	if !ro.Lex {
		err = reader.ReadSpans(func(sl input.SpanLine) error {
			spans = append(spans, sl)
			return nil
		}, func(perr *input.ParseError) error {
			return skip(perr)
		})
		if err != nil {
			return err
		}
	}

	draw := func(source string) error {
		return render(stdout, source, opts, ro.Lex, spans, skip)
	}
	if err := draw(source); err != nil {
		return err
	}
	if !ro.Watch {
		return nil
	}

	return watchSource(ctx, stdout, stderr, ro.SourcePath, func() error {
		source, err := input.LoadFile(ro.SourcePath)
		if err != nil {
			return err
		}
		return draw(source)
	})
}

// render highlights spans (or lexer tokens when lex is set) in source and
// prints the table.
func render(w io.Writer, source string, opts highlight.Options, lex bool, spans []input.SpanLine, skip func(error) error) error {
	hl, err := highlight.New(source, opts)
	if err != nil {
		return err
	}

	if lex {
		for _, tok := range lexer.Lex(source) {
			if err := hl.Submit(tok, tok); err != nil {
				if err := skip(fmt.Errorf("token %s %s: %w", tok.TokenName(), tok.Range, err)); err != nil {
					return err
				}
			}
		}
	} else {
		for _, sl := range spans {
			if err := hl.Submit(sl, sl); err != nil {
				if err := skip(fmt.Errorf("span %d..%d %s: %w", sl.Lo, sl.Hi, sl.TokenName(), err)); err != nil {
					return err
				}
			}
		}
	}

	log.Debug(log.CatHighlight, "Rendering table", "rows", hl.Len())
	return hl.Print(w)
}
