package cli

import (
	"fmt"

	"autojv/internal/repository"
	"autojv/internal/resolver"
	"autojv/internal/theme"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (a *app) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "List cached JDK archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := cachedEntries(resolver.CacheStore(a.cfg))
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.stderr, theme.InfoMessage("The cache is empty."))
				return nil
			}
			fmt.Fprintln(a.stdout, cacheTable(entries))
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(a.stdout, a.cfg.CacheDir())
			return nil
		},
	})
	return cmd
}

func cachedEntries(store *repository.Store) ([]repository.Entry, error) {
	namespaces, err := store.Namespaces()
	if err != nil {
		return nil, err
	}
	var entries []repository.Entry
	for _, ns := range namespaces {
		found, err := store.List(ns)
		if err != nil {
			return nil, fmt.Errorf("failed to list cache namespace %s: %w", ns, err)
		}
		entries = append(entries, found...)
	}
	return entries, nil
}

func cacheTable(entries []repository.Entry) string {
	var total int64
	rows := make([][]string, len(entries))
	for i, e := range entries {
		total += e.Size
		rows[i] = []string{
			e.Key.Namespace,
			e.Key.Vendor,
			e.Key.Version,
			e.Key.Classifier,
			string(e.Key.ArchiveType),
			humanize.Bytes(uint64(e.Size)),
			humanize.Time(e.ModTime),
		}
	}
	table := theme.Table([]string{"CATALOG", "VENDOR", "VERSION", "PLATFORM", "ARCHIVE", "SIZE", "CACHED"}, rows)
	return table + "\n\n" + theme.LabelStyle.Render("Total: ") + humanize.Bytes(uint64(total))
}
