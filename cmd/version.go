package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of e3smci",
		Long:  `All software has versions. This is e3smci's.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("e3smci version %s\n", rootCmd.Version)
		},
	}
}
