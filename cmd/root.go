// Package cmd provides the command-line interface for LODScript.
// LODScript dumps script text from The Legend of Dragoon (PSX) game files
// to an editable CSV and inserts the edited text back.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/theflyingzamboni/lodscript/pkg"
	"github.com/theflyingzamboni/lodscript/pkg/common"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lodscript",
	Short: "Script text tools for The Legend of Dragoon PSX game files",
	Long: `LODScript - Dump and insert script text for The Legend of Dragoon (PSX).

The engine decodes the game's glyph-indexed text encoding into an editable
UTF-16 CSV and re-encodes edited rows back into the game files, keeping
pointer tables, box dimensions, and per-file length budgets intact.

Examples:
  lodscript dump ./extracted/ script.csv
  lodscript boxdim script.csv
  lodscript insert script.csv ./extracted/
  lodscript dump --table lod.tbl --kinds kinds.yaml ./extracted/ script.csv

Use 'lodscript [command] --help' for more information about a command.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		common.SetVerboseMode(viper.GetBool("verbose"))
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default lodscript.yaml in the working directory)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().String("table", "lod.tbl", "character table file (UTF-16, one character per font cell)")
	rootCmd.PersistentFlags().String("kinds", "kinds.yaml", "file kind descriptor config")
	rootCmd.PersistentFlags().Int("workers", 0, "script files processed in parallel (0 = one per CPU)")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("table", rootCmd.PersistentFlags().Lookup("table"))
	viper.BindPFlag("kinds", rootCmd.PersistentFlags().Lookup("kinds"))
	viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
}

// initConfig reads in the config file and environment variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("lodscript")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("lodscript")
	viper.AutomaticEnv()

	// A missing config file is fine; flags and defaults cover everything.
	_ = viper.ReadInConfig()
}

// newEngine builds the shared engine from the configured character table
// and kind descriptors.
func newEngine() (*pkg.Engine, error) {
	cfg, err := pkg.LoadConfig(viper.GetString("kinds"))
	if err != nil {
		return nil, err
	}
	common.LogDebug(common.InfoKindsLoaded, len(cfg.Kinds), len(cfg.Contexts))
	glyphs, err := pkg.LoadGlyphTable(viper.GetString("table"))
	if err != nil {
		return nil, err
	}
	common.LogDebug(common.InfoTableLoaded, glyphs.PrimarySize(), glyphs.TotalSize()-glyphs.PrimarySize())

	engine, err := pkg.NewEngine(cfg, glyphs)
	if err != nil {
		return nil, err
	}
	if workers := viper.GetInt("workers"); workers > 0 {
		engine.Workers = workers
	}
	return engine, nil
}
