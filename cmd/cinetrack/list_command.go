package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/cinetrack/internal/domain"
	"github.com/mmcdole/cinetrack/internal/view"
)

// listOutput is the JSON shape of `cinetrack list`. Flat views carry items,
// the sectioned movie view carries sections; either is present even when empty.
type listOutput struct {
	Total    int             `json:"total"`
	Items    *[]domain.Entry `json:"items,omitempty"`
	Sections *sectionsOutput `json:"sections,omitempty"`
}

type sectionsOutput struct {
	Theatrical []domain.Entry `json:"theatrical"`
	Streaming  []domain.Entry `json:"streaming"`
}

type listOptions struct {
	status string
	kind   string
	sort   string
	rating string
	search string
	json   bool
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List library entries",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter()
			if err != nil {
				return err
			}
			return ctx.withLibrary(commandCtx(cmd), func(a *app) error {
				v := view.Build(a.lib.List(), filter)
				if opts.json || !stdoutIsTerminal() {
					return writeJSON(cmd, newListOutput(v))
				}
				fmt.Fprint(cmd.OutOrStdout(), renderView(v, filter, a.lib.List()))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.status, "status", "all", "Status filter: all, watchlist, in-progress, watched")
	cmd.Flags().StringVar(&opts.kind, "kind", "all", "Kind filter: all, movie, series")
	cmd.Flags().StringVar(&opts.sort, "sort", "recency", "Sort: recency, alphabetical, rating")
	cmd.Flags().StringVar(&opts.rating, "rating", "all", "Personal rating filter (watched movies only)")
	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "Case-insensitive title search")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output JSON")
	return cmd
}

func (o listOptions) filter() (view.Filter, error) {
	var f view.Filter
	var err error
	if f.Status, err = view.ParseStatusFilter(o.status); err != nil {
		return f, err
	}
	if f.Kind, err = view.ParseKindFilter(o.kind); err != nil {
		return f, err
	}
	if f.Sort, err = view.ParseSortKey(o.sort); err != nil {
		return f, err
	}
	if f.Rating, err = view.ParseRatingFilter(o.rating); err != nil {
		return f, err
	}
	f.Search = o.search
	return f, nil
}

func newListOutput(v view.View) listOutput {
	out := listOutput{Total: v.Total}
	if v.IsSectioned() {
		out.Sections = &sectionsOutput{
			Theatrical: nonNil(v.Sections.Theatrical),
			Streaming:  nonNil(v.Sections.Streaming),
		}
		return out
	}
	items := nonNil(v.Items)
	out.Items = &items
	return out
}

func nonNil(entries []domain.Entry) []domain.Entry {
	if entries == nil {
		return []domain.Entry{}
	}
	return entries
}

// renderView renders the view as one table, or one per movie section
func renderView(v view.View, f view.Filter, all []domain.Entry) string {
	var b strings.Builder
	switch {
	case len(all) == 0:
		b.WriteString("Your library is empty. Add something with `cinetrack add <title>`.\n")
		return b.String()
	case v.Total == 0:
		if f.Search != "" {
			fmt.Fprintf(&b, "No titles match %q.\n", f.Search)
			if suggestions := view.Suggest(all, f.Search, 3); len(suggestions) > 0 {
				b.WriteString("Did you mean:\n")
				for _, s := range suggestions {
					fmt.Fprintf(&b, "  %s\n", s)
				}
			}
			return b.String()
		}
		b.WriteString("Nothing here with these filters.\n")
		return b.String()
	}

	if v.IsSectioned() {
		writeSection(&b, view.TheatricalTitle, v.Sections.Theatrical)
		b.WriteString("\n")
		writeSection(&b, view.StreamingTitle, v.Sections.Streaming)
	} else {
		b.WriteString(entryTable(v.Items))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Showing %d %s\n", v.Total, plural(v.Total, "item", "items"))
	return b.String()
}

func writeSection(b *strings.Builder, title string, entries []domain.Entry) {
	fmt.Fprintf(b, "%s (%d)\n", title, len(entries))
	if len(entries) == 0 {
		b.WriteString("  Nothing here yet.\n")
		return
	}
	b.WriteString(entryTable(entries))
	b.WriteString("\n")
}

func entryTable(entries []domain.Entry) string {
	headers := []string{"ID", "Title", "Year", "Kind", "Status", "Progress", "Release"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		year := ""
		if e.Year > 0 {
			year = strconv.Itoa(e.Year)
		}
		rows = append(rows, []string{
			shortID(e.ID),
			e.Title,
			year,
			e.Kind.String(),
			e.Status.String(),
			progressText(e),
			releaseText(e),
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight}
	return renderTable(headers, rows, aligns)
}

// progressText is the episode code for series and the personal rating for movies
func progressText(e domain.Entry) string {
	if e.IsSeries() {
		if e.Progress.IsZero() {
			return ""
		}
		return e.EpisodeCode()
	}
	return string(e.PersonalRating)
}

func releaseText(e domain.Entry) string {
	switch e.EffectiveReleaseSource() {
	case domain.ReleaseVOD:
		if e.VodProvider != "" {
			return "VOD · " + string(e.VodProvider)
		}
		return "VOD"
	case domain.ReleaseTheater:
		return "Theater"
	default:
		return ""
	}
}

// shortID is the ID prefix shown in tables; commands accept any unique prefix
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
