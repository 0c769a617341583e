package cmd

import (
	"github.com/spf13/cobra"
)

// boxdimCmd represents the boxdim command
var boxdimCmd = &cobra.Command{
	Use:   "boxdim [script_csv]",
	Short: "Refresh box dimensions for edited CSV rows",
	Long: `Recompute the "Box Dimension" column for edited rows of a script CSV.

Each row whose "New Dialogue" differs from "Original Dialogue" gets its
dialogue box width and height recomputed from the new text, so the CSV can
be reviewed before 'lodscript insert' writes the files. The CSV is
rewritten in place.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		csvPath := args[0]

		engine, err := newEngine()
		if err != nil {
			return err
		}
		_, err = engine.RefreshBoxDimensions(csvPath)
		return err
	},
}

func init() {
	rootCmd.AddCommand(boxdimCmd)
}
