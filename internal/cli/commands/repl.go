package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/plotlogic/internal/cli/config"
	"github.com/leapstack-labs/plotlogic/internal/cli/output"
	"github.com/leapstack-labs/plotlogic/internal/scene"
	"github.com/leapstack-labs/plotlogic/pkg/expr"
)

const replPrompt = "plot> "

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive formula evaluator",
		Long: `Start an interactive session. Each line is a formula that is evaluated
at the current point together with its partial derivatives. Dot-commands
change the point and the parameter values.`,
		Args: cobra.NoArgs,
		RunE: runREPL,
	}
	addSceneFlags(cmd)
	cmd.Flags().String("at", "", "Initial point x,y")
	return cmd
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	sess := newREPLSession(cc.Scene(), cc.Renderer)

	historyFile := filepath.Join(cc.Cfg.ProjectRoot, ".plotlogic_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "PlotLogic REPL")
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type a formula to evaluate it, .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if sess.handle(line) {
			break
		}
	}
	return nil
}

// replSession is the state of one interactive session.
type replSession struct {
	s *scene.Scene
	r *output.Renderer
}

func newREPLSession(s *scene.Scene, r *output.Renderer) *replSession {
	if s.Params == nil {
		s.Params = expr.Params{}
	}
	return &replSession{s: s, r: r}
}

// handle runs one input line and reports whether the session should end.
func (rs *replSession) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ".") {
		rs.s.Expr = line
		rs.eval()
		return false
	}

	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case ".quit", ".exit":
		return true
	case ".help":
		printREPLHelp(rs.r.Writer())
	case ".set":
		if len(args) == 0 {
			rs.r.Error("usage: .set name=value ...")
			return false
		}
		p, err := scene.ParseParams(args)
		if err != nil {
			rs.r.Error(err.Error())
			return false
		}
		for k, v := range p {
			rs.s.Params[k] = v
		}
		rs.eval()
	case ".unset":
		for _, name := range args {
			delete(rs.s.Params, name)
		}
	case ".at":
		if len(args) != 1 {
			rs.r.Error("usage: .at x,y")
			return false
		}
		x, y, err := config.ParsePoint(args[0])
		if err != nil {
			rs.r.Error(err.Error())
			return false
		}
		rs.s.Tangent.X, rs.s.Tangent.Y = x, y
		rs.eval()
	case ".params":
		names := rs.s.Params.Names()
		if len(names) == 0 {
			rs.r.Muted("no parameters set")
			return false
		}
		rs.r.Println(formatParams(rs.s.Params, names))
	case ".symbols":
		if err := renderSymbols(rs.r, output.SymbolsOutput{Expr: rs.s.Expr, Symbols: rs.s.Symbols()}); err != nil {
			rs.r.Error(err.Error())
		}
	case ".d", ".eval":
		rs.eval()
	default:
		rs.r.Error(fmt.Sprintf("unknown command: %s (type .help for commands)", command))
	}
	return false
}

func (rs *replSession) eval() {
	out, err := evalAt(rs.s.Expr, rs.s.Params, rs.s.Tangent.X, rs.s.Tangent.Y)
	if err != nil {
		rs.r.Error(err.Error())
		return
	}
	rs.r.Printf("f(%s, %s) = %s   df/dx = %s   df/dy = %s\n",
		output.FormatFloat(out.X, 4),
		output.FormatFloat(out.Y, 4),
		output.FormatFloat(out.Value, 10),
		output.FormatFloat(out.DfDx, 6),
		output.FormatFloat(out.DfDy, 6))
	var unbound []string
	for _, name := range out.Symbols {
		if _, ok := rs.s.Params[name]; !ok {
			unbound = append(unbound, name)
		}
	}
	if len(unbound) > 0 {
		rs.r.Warning("unbound parameters evaluate as 0: " + strings.Join(unbound, ", "))
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  <formula>         Evaluate a formula at the current point
  .set a=1 b=2      Set parameter values
  .unset a          Remove a parameter
  .at x,y           Move the point
  .params           Show parameter values
  .symbols          List the free parameters of the formula
  .d                Re-evaluate the current formula
  .help             Show this help message
  .quit / .exit     Exit the REPL
`
	_, _ = fmt.Fprintln(w, help)
}

func newREPLCompleter() *readline.PrefixCompleter {
	var fns []readline.PrefixCompleterInterface
	for _, name := range expr.Functions() {
		fns = append(fns, readline.PcItem(name+"("))
	}
	items := append(fns,
		readline.PcItem(".set"),
		readline.PcItem(".unset"),
		readline.PcItem(".at"),
		readline.PcItem(".params"),
		readline.PcItem(".symbols"),
		readline.PcItem(".d"),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}
