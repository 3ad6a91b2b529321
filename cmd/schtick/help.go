package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/schyntax/pkg/help"
)

// newHelpCmd prints language topics. Command names fall through to the
// usual cobra help.
func newHelpCmd(root *cobra.Command) *cobra.Command {
	var index bool
	cmd := &cobra.Command{
		Use:   "help [topic|command]",
		Short: "Show the language reference or help for a command",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				if index {
					return &exitError{code: exitUsage, err: fmt.Errorf("--index requires a topic (schtick help fields --index)")}
				}
				fmt.Fprint(out, help.QUICKREF)
				return nil
			}

			if sub, _, err := root.Find(args); err == nil && sub != root && !index {
				return sub.Help()
			}

			name, content, err := help.MatchTopic(args[0])
			if err != nil {
				return &exitError{code: exitUsage, err: fmt.Errorf("%w\navailable topics: %s", err, strings.Join(help.TopicList, ", "))}
			}
			if index {
				if name != "fields" {
					return &exitError{code: exitUsage, err: fmt.Errorf("--index is only supported for the fields topic")}
				}
				fmt.Fprint(out, help.FieldIndex())
				return nil
			}
			fmt.Fprint(out, content)
			return nil
		},
	}
	cmd.Flags().BoolVar(&index, "index", false, "list every field keyword")
	return cmd
}
