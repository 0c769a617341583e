package cmd

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theflyingzamboni/lodscript/pkg/common"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump [script_dir] [output_csv]",
	Short: "Dump script text from game files to a CSV",
	Long: `Dump script text from extracted game files to an editable CSV.

Every file in script_dir matching a configured file kind is decoded and
its entries written to output_csv as UTF-16 tab-delimited rows. Edit the
"New Dialogue" column and feed the CSV back with 'lodscript insert'.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		csvPath := args[1]

		engine, err := newEngine()
		if err != nil {
			return err
		}
		paths, err := scriptFiles(dir)
		if err != nil {
			return err
		}

		report, err := engine.DumpToCSV(paths, csvPath)
		if err != nil {
			return err
		}
		if report.Failed() > 0 {
			return common.FormatErrorString(common.ErrFailedToCreateCSV, "%d script files failed", report.Failed())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

// scriptFiles lists the regular files directly under dir, sorted by name.
func scriptFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToReadFile, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
