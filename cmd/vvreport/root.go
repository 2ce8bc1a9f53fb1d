package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for vvreport.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vvreport",
		Short: "Render and deliver validation reports",
		Long: `vvreport turns a validation report document into HTML, JSON, fixed-width
text or GitHub-flavored Markdown.

A report has a titled header of key/value pairs and a tree of sections.
Leaf sections carry a table of violations. Rendered reports can be mailed
through an SMTP relay or Postmark and archived in a local SQLite database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewRenderCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
