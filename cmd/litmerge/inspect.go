package main

import (
	"strings"

	"github.com/matsen/litmerge/internal/sheet"
	"github.com/spf13/cobra"
)

var inspectRows int

func init() {
	inspectCmd.Flags().IntVarP(&inspectRows, "rows", "n", 5, "Number of data rows to show")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the columns and first rows of both exports",
	Long: `Show the columns and first rows of both exports.

Useful for checking that an export has the columns the merge expects
before running it.

Examples:
  litmerge inspect
  litmerge inspect -n 10 --human`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

// SheetPreview is the inspect output for one export.
type SheetPreview struct {
	Name    string     `json:"name"`
	Path    string     `json:"path"`
	Rows    int        `json:"rows"`
	Columns []string   `json:"columns"`
	Head    [][]string `json:"head"`
}

func previewSheet(name, path string, t *sheet.Table, n int) SheetPreview {
	if n > t.Len() {
		n = t.Len()
	}
	if n < 0 {
		n = 0
	}
	head := make([][]string, n)
	for i := range head {
		row := make([]string, len(t.Headers))
		for j := range row {
			row[j] = t.Cell(i, j)
		}
		head[i] = row
	}
	return SheetPreview{Name: name, Path: path, Rows: t.Len(), Columns: t.Headers, Head: head}
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	var previews []SheetPreview
	for _, src := range []struct{ name, path string }{
		{"WOS", cfg.Sources.WOS},
		{"PsycInfo", cfg.Sources.PsycInfo},
	} {
		t, err := sheet.Open(src.path)
		if err != nil {
			exitWithError(loadExitCode(err), "reading %s: %v", src.path, err)
		}
		previews = append(previews, previewSheet(src.name, src.path, t, inspectRows))
	}

	if humanOutput {
		for i, p := range previews {
			if i > 0 {
				outputHuman("\n\n")
			}
			outputHuman("--- %s (%s) ---\n", p.Name, p.Path)
			outputHuman("Rows: %d\n", p.Rows)
			outputHuman("Columns: %s\n", strings.Join(p.Columns, ", "))
			for j, row := range p.Head {
				outputHuman("%d: ", j)
				for k, c := range row {
					if k > 0 {
						outputHuman(" | ")
					}
					outputHuman("%s", truncateString(c, 30))
				}
				outputHuman("\n")
			}
		}
		return nil
	}
	return outputJSON(previews)
}
