package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/rdx/internal/ui"
)

var browseCmd = &cobra.Command{
	Use:   "browse <connection>",
	Short: "Browse a connection's key space interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		defer reg.CloseAll()
		s, err := reg.Open(args[0])
		if err != nil {
			return err
		}
		return ui.Run(rootCtx, s, ui.Options{NoColor: noColor})
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
