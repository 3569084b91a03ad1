package cmd

import (
	"fmt"
	"strings"

	"github.com/nfrund/yauth/internal/authflow"
	"github.com/spf13/cobra"
)

// flowDisplay represents a flow for display purposes
type flowDisplay struct {
	Name      string   `json:"name"`
	Title     string   `json:"title"`
	Operation string   `json:"operation"`
	Fields    []string `json:"fields"`
	Links     []string `json:"links"`
}

func newFlowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flows",
		Short: "List the widget's flows",
		Long: `List every flow the widget can mount, with its fields, the backend
operation it submits to, and the flows its footer links to.

Examples:
  yauth-cli flows
  yauth-cli flows --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(); err != nil {
				return err
			}
			flows := make([]flowDisplay, 0, len(authflow.Flows))
			for _, f := range authflow.Flows {
				cfg, err := authflow.ConfigFor(f)
				if err != nil {
					return err
				}
				d := flowDisplay{
					Name:      f.String(),
					Title:     cfg.Title,
					Operation: cfg.OperationName,
					Fields:    cfg.FieldNames(),
				}
				for _, to := range authflow.Links(f) {
					d.Links = append(d.Links, displayName(to))
				}
				flows = append(flows, d)
			}

			if outputFormat == "json" {
				return writeJSON(cmd.OutOrStdout(), flows)
			}
			tw := newTable(cmd.OutOrStdout(), "NAME", "TITLE", "OPERATION", "FIELDS", "LINKS")
			for _, d := range flows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Name, d.Title, d.Operation,
					strings.Join(d.Fields, ", "), strings.Join(d.Links, ", "))
			}
			return tw.Flush()
		},
	}
}
