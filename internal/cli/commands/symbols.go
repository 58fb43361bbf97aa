package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/plotlogic/internal/cli/output"
	"github.com/leapstack-labs/plotlogic/pkg/expr"
)

// NewSymbolsCommand creates the symbols command.
func NewSymbolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "symbols [expr]",
		Short: "List the free parameters of a formula",
		Long: `List the identifiers of a formula that are not x, y, a known constant or
a function name. Each one becomes a parameter with a slider.`,
		Example: `  plotlogic symbols "a*sin(k*x) + pi"`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			src := cc.Cfg.Expr
			if len(args) == 1 {
				src = args[0]
			}
			prog, err := expr.Parse(src)
			if err != nil {
				return err
			}
			return renderSymbols(cc.Renderer, output.SymbolsOutput{Expr: prog.Source(), Symbols: prog.Symbols()})
		},
	}
}

func renderSymbols(r *output.Renderer, out output.SymbolsOutput) error {
	if ok, err := r.Structured(out); ok {
		return err
	}
	if len(out.Symbols) == 0 {
		r.Muted("no free parameters")
		return nil
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		for _, s := range out.Symbols {
			r.Println("- " + s)
		}
		return nil
	}
	r.Println(strings.Join(out.Symbols, " "))
	return nil
}
