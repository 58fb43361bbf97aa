package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/plotlogic/internal/cli"
	"github.com/leapstack-labs/plotlogic/internal/cli/config"
	"github.com/leapstack-labs/plotlogic/internal/cli/output"
)

// sampleRuns are the invocations whose markdown output is embedded in each
// command page. They only use flags, so the output depends on defaults alone.
var sampleRuns = map[string][]string{
	"eval":    {"eval", "x^2 - y^2", "--at", "1,2"},
	"symbols": {"symbols", "a*x^2 + b*sin(k*y)"},
	"surface": {"surface", "--expr", "sin(x)*cos(y)", "--steps", "12"},
	"tangent": {"tangent", "--expr", "x^2 + y^2", "--at", "1,0"},
	"field":   {"field", "--preset", "rotation", "--field-steps", "3", "--limit", "4"},
	"slice":   {"slice", "--expr", "sin(3*x)", "--width", "40", "--height", "6"},
}

// generateCLIDocs generates CLI documentation from the cobra command tree.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	samples, err := runSamples()
	if err != nil {
		return err
	}

	rootCmd := cli.NewRootCmd()
	if err := os.WriteFile(filepath.Join(outDir, "index.md"), cliIndex(rootCmd), 0600); err != nil {
		return fmt.Errorf("failed to generate index: %w", err)
	}
	log.Printf("  Generated index.md")

	for _, cmd := range visibleCommands(rootCmd) {
		page := commandPage(cmd, samples[cmd.Name()])
		if err := os.WriteFile(filepath.Join(outDir, cmd.Name()+".md"), page, 0600); err != nil {
			return fmt.Errorf("failed to generate page for %s: %w", cmd.Name(), err)
		}
		log.Printf("  Generated %s.md", cmd.Name())
	}
	return nil
}

func visibleCommands(root *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "__complete" {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

// runSamples executes every sample run in an empty directory so no project
// config file leaks into the output.
func runSamples() (map[string]string, error) {
	dir, err := os.MkdirTemp("", "plotlogic-docs")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if err := os.Chdir(dir); err != nil {
		return nil, err
	}
	defer func() { _ = os.Chdir(cwd) }()

	out := make(map[string]string, len(sampleRuns))
	for name, args := range sampleRuns {
		text, err := runSample(args)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", name, err)
		}
		out[name] = text
	}
	return out, nil
}

func runSample(args []string) (string, error) {
	config.ResetConfig()
	cmd := cli.NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(append([]string{}, args...), "-o", string(output.ModeMarkdown)))
	if err := cmd.Execute(); err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func cliIndex(rootCmd *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for PlotLogic")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(rootCmd.Long)

	w.Header(2, "Installation")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/plotlogic/cmd/plotlogic@latest")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range visibleCommands(rootCmd) {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	writeFlagsTable(w, rootCmd.PersistentFlags())

	w.Header(2, "Configuration")
	w.Paragraph(fmt.Sprintf(`Settings are read from %s in the current directory or the nearest
parent, then from environment variables, then from command-line flags. Later
sources win.`, InlineCode(config.ConfigFileNames[0])))
	w.Table([]string{"Key", "Default", "Environment", "Flag"}, configRows())

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "Success"},
		{InlineCode("1"), "Error (check stderr for details)"},
	})
	return w.Bytes()
}

// configRows lists every configuration key with its default, environment
// variable and flag.
func configRows() [][]string {
	defaults := config.Defaults()
	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		flag := ""
		if f, ok := config.FlagForKey(key); ok {
			flag = InlineCode("--" + f)
		}
		rows = append(rows, []string{
			InlineCode(key),
			formatDefault(defaults[key]),
			InlineCode(config.EnvVar(key)),
			flag,
		})
	}
	return rows
}

func formatDefault(v any) string {
	switch v := v.(type) {
	case float64:
		return output.FormatFloat(v, 6)
	case string:
		if v == "" {
			return ""
		}
		return InlineCode(v)
	default:
		return fmt.Sprint(v)
	}
}

func commandPage(cmd *cobra.Command, sample string) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", cmd.UseLine())

	if cmd.HasSubCommands() {
		w.Header(2, "Subcommands")
		var rows [][]string
		for _, sub := range cmd.Commands() {
			if !sub.Hidden {
				rows = append(rows, []string{InlineCode(sub.Name()), cleanDescription(sub.Short)})
			}
		}
		w.Table([]string{"Subcommand", "Description"}, rows)
	}

	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}

	if sample != "" {
		w.Header(2, "Sample Output")
		w.CodeBlock("bash", "plotlogic "+strings.Join(quoteArgs(sampleRuns[cmd.Name()]), " ")+" -o markdown")
		w.Paragraph(sample)
	}
	return w.Bytes()
}

func quoteArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " *^()") {
			a = fmt.Sprintf("%q", a)
		}
		out[i] = a
	}
	return out
}

// writeFlagsTable writes a table of flags with the config key each one sets.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		short := ""
		if f.Shorthand != "" {
			short = "-" + f.Shorthand
		}
		def := f.DefValue
		if def == "[]" || (def == "0" && f.Value.Type() == "int") {
			def = ""
		}
		key := ""
		if k, ok := config.KeyForFlag(f.Name); ok {
			key = InlineCode(k)
		}
		rows = append(rows, []string{InlineCode("--" + f.Name), short, def, key, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Option", "Short", "Default", "Config key", "Description"}, rows)
}

// cleanExample removes the common leading indentation of an example block.
func cleanExample(example string) string {
	lines := strings.Split(strings.Trim(example, "\n"), "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	for i, line := range lines {
		if len(line) >= indent && indent > 0 {
			lines[i] = line[indent:]
		}
	}
	return strings.Join(lines, "\n")
}
