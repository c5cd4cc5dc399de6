package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"text/tabwriter"

	"mapexec/internal/catalog"
	"mapexec/internal/logging"
)

func handleCatalog(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := cf.setup()
	if err != nil {
		return err
	}
	defer e.Close()

	items, err := catalog.NewLoader(e.client, e.log, e.userAgent).Load(ctx, e.settings.BaseURL)
	if err != nil {
		return err
	}
	if cf.jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	if len(items) == 0 {
		fmt.Fprintf(stdout, "No mappings available at %s\n", logging.SanitizeURL(e.settings.BaseURL.String()))
		return nil
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tDESCRIPTION")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.Title, it.Type, it.Description)
	}
	return tw.Flush()
}
