package cmd

import (
	"github.com/spf13/cobra"

	"github.com/theflyingzamboni/lodscript/pkg/common"
)

// insertCmd represents the insert command
var insertCmd = &cobra.Command{
	Use:   "insert [input_csv] [script_dir]",
	Short: "Insert edited script text back into game files",
	Long: `Insert edited script text from a CSV back into extracted game files.

Rows whose "New Dialogue" differs from "Original Dialogue" are re-encoded
and repacked; untouched rows keep their original bytes so a round trip
leaves the files byte-identical. A file whose rebuilt text exceeds its
length budget is reported and left untouched.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		csvPath := args[0]
		dir := args[1]

		engine, err := newEngine()
		if err != nil {
			return err
		}
		paths, err := scriptFiles(dir)
		if err != nil {
			return err
		}

		report, err := engine.InsertAllText(csvPath, paths)
		if err != nil {
			return err
		}
		if report.Failed() > 0 {
			return common.FormatErrorString(common.ErrFailedToWriteFile, "%d script files failed", report.Failed())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insertCmd)
}
