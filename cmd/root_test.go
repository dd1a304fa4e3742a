package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/hlspan/internal/config"
	"github.com/zjrosen/hlspan/internal/input"
	"github.com/zjrosen/hlspan/internal/lineindex"
	"github.com/zjrosen/hlspan/internal/span"
)

func init() {
	// Force ANSI color output in tests (lipgloss disables colors when no TTY)
	lipgloss.SetColorProfile(termenv.ANSI256)
}

func runString(t *testing.T, c config.Config, ro runOptions, stdin string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = run(context.Background(), strings.NewReader(stdin), &out, &errOut, c, ro)
	return out.String(), errOut.String(), err
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.mini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_SourceAndSpansFromStdin(t *testing.T) {
	stdin := "let x = 1\nlet y = 2\n==========\n4 5 Ident\n14 15 Ident2\n"

	out, _, err := runString(t, config.Defaults(), runOptions{}, stdin)
	require.NoError(t, err)

	plain := ansi.Strip(out)
	require.Contains(t, plain, "Ident")
	require.Contains(t, plain, "Ident2")
	require.Contains(t, plain, "let x = 1⏎")
	require.Contains(t, plain, "let y = 2⏎")
	require.Less(t, strings.Index(plain, "let x"), strings.Index(plain, "let y"))
}

func TestRun_SourceFromFile(t *testing.T) {
	path := writeSource(t, "12 345 6")

	out, _, err := runString(t, config.Defaults(), runOptions{SourcePath: path}, "3 6 Int\n")
	require.NoError(t, err)
	require.Contains(t, ansi.Strip(out), "12 345 6")
	require.Contains(t, out, "345")
}

func TestRun_MalformedLineAborts(t *testing.T) {
	stdin := "abc\n==========\n0 1 A\nbogus\n"

	_, _, err := runString(t, config.Defaults(), runOptions{}, stdin)
	require.Error(t, err)
	require.True(t, errors.Is(err, input.ErrMalformedLine))
}

func TestRun_SkipInvalid(t *testing.T) {
	c := config.Defaults()
	c.SkipInvalid = true
	stdin := "abc\n==========\nbogus\n0 3 Word\n2 99 TooFar\n"

	out, errOut, err := runString(t, c, runOptions{}, stdin)
	require.NoError(t, err)
	require.Contains(t, ansi.Strip(out), "Word")
	require.NotContains(t, ansi.Strip(out), "TooFar")
	require.Contains(t, errOut, "bogus")
	require.Contains(t, errOut, "TooFar")
}

func TestRun_SubmitErrorAborts(t *testing.T) {
	stdin := "abc\n==========\n2 99 TooFar\n"

	_, _, err := runString(t, config.Defaults(), runOptions{}, stdin)
	require.Error(t, err)
	require.True(t, errors.Is(err, lineindex.ErrOutOfRange))
	require.Contains(t, err.Error(), "TooFar")
}

func TestRun_LexMode(t *testing.T) {
	path := writeSource(t, "if (x < 10) { \"바\" }\n")

	out, _, err := runString(t, config.Defaults(), runOptions{SourcePath: path, Lex: true}, "")
	require.NoError(t, err)

	plain := ansi.Strip(out)
	require.Contains(t, plain, "If")
	require.Contains(t, plain, "LeftAngledBracket")
	require.Contains(t, plain, "String")
	require.Contains(t, plain, "RBrace")
}

func TestRun_BadSeparator(t *testing.T) {
	c := config.Defaults()
	c.Separator = `\`

	_, _, err := runString(t, c, runOptions{}, "abc\n")
	require.Error(t, err)
}

func TestRun_MissingSourceFile(t *testing.T) {
	_, _, err := runString(t, config.Defaults(), runOptions{SourcePath: filepath.Join(t.TempDir(), "nope")}, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading source file")
}

func TestRun_ColorNever(t *testing.T) {
	prev := lipgloss.ColorProfile()
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })
	applyColorMode(config.ColorNever)

	out, _, err := runString(t, config.Defaults(), runOptions{}, "abc\n==========\n0 1 A\n")
	require.NoError(t, err)
	require.Equal(t, ansi.Strip(out), out)
}

func TestHighlightOptions(t *testing.T) {
	c := config.Defaults()
	c.Separator = "crlf"
	c.TabWidth = 2
	c.ShowSpan = true
	c.ShowLine = true
	c.MaxWidth = 40

	opts, err := highlightOptions(c, false)
	require.NoError(t, err)
	require.Equal(t, "\r\n", opts.Separator)
	require.Equal(t, span.UnitChars, opts.Unit)
	require.Equal(t, 2, opts.TabWidth)
	require.True(t, opts.ShowSpan)
	require.True(t, opts.ShowLine)
	require.Equal(t, 40, opts.MaxWidth)
	require.Equal(t, lipgloss.NormalBorder(), opts.Border)

	opts, err = highlightOptions(c, true)
	require.NoError(t, err)
	require.Equal(t, span.UnitBytes, opts.Unit)

	c.Theme.Border = "wavy"
	_, err = highlightOptions(c, false)
	require.Error(t, err)
}

func TestWriteTokens(t *testing.T) {
	tests := []struct {
		name   string
		source string
		chars  bool
		want   string
	}{
		{
			name:   "bytes",
			source: "if 바 x",
			want:   "0 2 If\n3 6 Illegal\n7 8 Ident\n",
		},
		{
			name:   "chars",
			source: "if 바 x",
			chars:  true,
			want:   "0 2 If\n3 4 Illegal\n5 6 Ident\n",
		},
		{
			name:   "empty",
			source: "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeTokens(&buf, tt.source, tt.chars))
			require.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteTokens_RoundTripsThroughRun(t *testing.T) {
	source := "if (é) { \"ü\" }\n"
	path := writeSource(t, source)

	var spans bytes.Buffer
	require.NoError(t, writeTokens(&spans, source, true))

	out, _, err := runString(t, config.Defaults(), runOptions{SourcePath: path}, spans.String())
	require.NoError(t, err)
	require.Contains(t, ansi.Strip(out), "LParen")
}

func TestWriteConfig(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeConfig(&buf, config.Defaults()))
	require.Contains(t, buf.String(), "tab_width: 4")
	require.Contains(t, buf.String(), "border: sharp")

	var decoded config.Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, config.Defaults(), decoded)
}

func TestDemoHighlighter(t *testing.T) {
	hl, err := demoHighlighter(config.Defaults())
	require.NoError(t, err)
	require.Positive(t, hl.Len())

	rows := hl.Rows()
	require.Equal(t, "LComment", rows[0].Label)
	require.Equal(t, 1, rows[0].FirstLine)

	var sawBlock bool
	for _, row := range rows {
		if row.Label == "BComment" {
			sawBlock = true
			require.Less(t, row.FirstLine, row.LastLine)
		}
	}
	require.True(t, sawBlock)

	plain := ansi.Strip(hl.Render())
	require.Contains(t, plain, "under ten")
	require.NotContains(t, plain, "\t")
}

func TestRun_WatchNeedsSourceFile(t *testing.T) {
	_, _, err := runString(t, config.Defaults(), runOptions{Watch: true}, "abc\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--watch")
}

func TestDemo_AcceptsRenderingFlags(t *testing.T) {
	for _, name := range []string{"bytes", "tab-width", "separator", "show-span", "show-line", "max-width", "color", "skip-invalid"} {
		require.NotNil(t, demoCmd.InheritedFlags().Lookup(name), "demo should inherit --%s", name)
	}
	require.Nil(t, demoCmd.InheritedFlags().Lookup("watch"))

	tabWidth := rootCmd.PersistentFlags().Lookup("tab-width")
	t.Cleanup(func() {
		_ = tabWidth.Value.Set(tabWidth.DefValue)
		tabWidth.Changed = false
	})

	require.NoError(t, demoCmd.ParseFlags([]string{"--tab-width", "8"}))
	require.Equal(t, 8, viper.GetInt("tab_width"))
}
