package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/vellum/internal/common"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("vellum version %s\n", common.GetVersion())
			return nil
		},
	}
}
