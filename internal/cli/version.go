package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the megakanban release.
const Version = "0.3.0"

const modulePath = "github.com/jeffreyruoss/ru-mega-kanban"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the megakanban version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.jsonMode {
				return printJSON(cmd, map[string]string{"version": Version, "module": modulePath})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "megakanban v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
