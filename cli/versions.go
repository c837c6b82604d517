package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/codesentry/codesentry/analyzers"
	"github.com/codesentry/codesentry/runner"
	"github.com/urfave/cli/v2"
)

func (a *App) versions(ctx *cli.Context) error {
	set := analyzers.New(a.logger, runner.New(a.logger), a.catalog, 0)
	versions := set.Versions(ctx.Context)

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	for _, an := range set.Catalog().Probed() {
		fmt.Fprintf(w, "%s\t%s\n", an.Name, versions[an.Name])
	}
	return w.Flush()
}
