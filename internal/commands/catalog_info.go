package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/okra-platform/gisgen/internal/codegen/ops"
	"github.com/okra-platform/gisgen/internal/codegen/target"
)

// Operations prints every operation grouped, with the dialects that render it
func (c *Controller) Operations(_ context.Context) error {
	title := cases.Title(language.English)
	tw := tabwriter.NewWriter(c.stdout(), 0, 0, 2, ' ', 0)
	for _, group := range []ops.Group{ops.GroupGeneral, ops.GroupMassing} {
		fmt.Fprintf(tw, "%s operations:\n", title.String(string(group)))
		for _, op := range ops.All() {
			if op.Group != group {
				continue
			}
			fmt.Fprintf(tw, "  %s\t%s\t[%s]\n", op.Name, op.Summary, joinDialects(ops.DefaultRegistry.Dialects(op.Name)))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// Dialects prints the registered dialects and their capabilities
func (c *Controller) Dialects(_ context.Context) error {
	tw := tabwriter.NewWriter(c.stdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLATFORM\tCLASS\tEXT\tOPERATIONS\tDESCRIPTION")
	for _, d := range c.registry().Dialects() {
		caps, _ := target.Lookup(d)
		operations := "no"
		if caps.Operations {
			operations = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d, caps.Class, caps.Extension, operations, caps.Label)
	}
	return tw.Flush()
}

func joinDialects(ds []target.Dialect) string {
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}
