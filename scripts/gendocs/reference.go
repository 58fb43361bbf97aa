package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/leapstack-labs/plotlogic/internal/cli/output"
	"github.com/leapstack-labs/plotlogic/pkg/expr"
	"github.com/leapstack-labs/plotlogic/pkg/field"
	"github.com/leapstack-labs/plotlogic/pkg/geom"
)

// generateReferenceDocs writes the formula language reference.
func generateReferenceDocs(outDir string) error {
	log.Printf("Generating reference docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(outDir, "formulas.md")
	if err := os.WriteFile(filename, formulaReference(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated formulas.md")
	return nil
}

func formulaReference() []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("Formula Reference", "Functions, constants and vector field presets")
	w.GeneratedMarker()

	w.Header(1, "Formula Reference")
	w.Paragraph(`Formulas are written in x and y. Every other identifier is either a
constant below or a free parameter. Free parameters are set with --param or
the params config key and evaluate as 0 when unset.`)

	w.Header(2, "Functions")
	var fns []string
	for _, name := range expr.Functions() {
		fns = append(fns, InlineCode(name+"()"))
	}
	w.BulletList(fns)

	w.Header(2, "Constants")
	consts := expr.Constants()
	names := make([]string, 0, len(consts))
	for name := range consts {
		names = append(names, name)
	}
	sort.Strings(names)
	var rows [][]string
	for _, name := range names {
		rows = append(rows, []string{InlineCode(name), output.FormatFloat(consts[name], 10)})
	}
	w.Table([]string{"Name", "Value"}, rows)
	w.Paragraph("A parameter with the same name as a constant takes precedence.")

	w.Header(2, "Vector Field Presets")
	rows = nil
	for _, name := range field.Presets() {
		v := field.Preset(name)(1, 2)
		rows = append(rows, []string{InlineCode(name), sampleAt(v)})
	}
	w.Table([]string{"Preset", "Value at (1, 2)"}, rows)

	return w.Bytes()
}

func sampleAt(v geom.Vec2) string {
	return output.FormatVec(4, v.X, v.Y)
}
