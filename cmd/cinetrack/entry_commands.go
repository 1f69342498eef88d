package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmcdole/cinetrack/internal/domain"
)

// writeTimeout bounds a single store write
const writeTimeout = 30 * time.Second

func newEntryCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newAddCommand(ctx),
		newSetCommand(ctx),
		newWatchedCommand(ctx),
		newNextCommand(ctx),
		newRemoveCommand(ctx),
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var pick int
	var kind string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Search the catalog and add a title to the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.New("title must not be empty")
			}
			var wantKind domain.Kind
			switch strings.ToLower(kind) {
			case "", "all":
			case "movie":
				wantKind = domain.KindMovie
			case "series":
				wantKind = domain.KindSeries
			default:
				return fmt.Errorf("unknown kind %q (want movie or series)", kind)
			}

			return ctx.withLibrary(commandCtx(cmd), func(a *app) error {
				if !a.cfg.HasCatalog() {
					return errors.New("title search needs a TMDB key (set tmdb.api_key or TMDB_API_KEY)")
				}
				results := a.service.Search(commandCtx(cmd), query)
				if wantKind != "" {
					results = filterKind(results, wantKind)
				}
				if len(results) == 0 {
					return fmt.Errorf("no results for %q", query)
				}

				choice, err := chooseCandidate(cmd, results, pick)
				if err != nil {
					return err
				}
				// The detail lookup has no deadline of its own beyond the HTTP client's
				e, err := a.service.Add(commandCtx(cmd), choice)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s to your watchlist [%s]\n", displayTitle(e.Title, e.Year), shortID(e.ID))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&pick, "pick", "p", 0, "Add the Nth result without prompting")
	cmd.Flags().StringVar(&kind, "kind", "", "Only consider movie or series results")
	return cmd
}

func filterKind(results []domain.Candidate, kind domain.Kind) []domain.Candidate {
	out := results[:0:0]
	for _, c := range results {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// chooseCandidate returns the picked result. Without --pick it prompts on a
// terminal and takes the best match otherwise.
func chooseCandidate(cmd *cobra.Command, results []domain.Candidate, pick int) (domain.Candidate, error) {
	if pick > 0 {
		if pick > len(results) {
			return domain.Candidate{}, fmt.Errorf("--pick %d out of range (%d results)", pick, len(results))
		}
		return results[pick-1], nil
	}
	if !stdinIsTerminal() {
		return results[0], nil
	}

	rows := make([][]string, 0, len(results))
	for i, c := range results {
		rating := ""
		if c.ExternalRating > 0 {
			rating = fmt.Sprintf("%.1f", c.ExternalRating)
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), displayTitle(c.Title, c.Year), c.Kind.String(), rating})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Title", "Kind", "Rating"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight}))

	fmt.Fprint(cmd.OutOrStdout(), "Pick a number [1]: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return domain.Candidate{}, fmt.Errorf("failed to read choice: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return results[0], nil
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(results) {
		return domain.Candidate{}, fmt.Errorf("invalid choice %q", line)
	}
	return results[n-1], nil
}

var setFlagNames = []string{"status", "rating", "source", "provider", "season", "episode"}

type setOptions struct {
	status   string
	rating   string
	source   string
	provider string
	season   int
	episode  int
}

func newSetCommand(ctx *commandContext) *cobra.Command {
	var opts setOptions

	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Edit the status, rating, release or progress of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !slices.ContainsFunc(setFlagNames, flags.Changed) {
				return errors.New("nothing to change (see --help)")
			}
			return ctx.withLibrary(commandCtx(cmd), func(a *app) error {
				e, err := resolveEntry(a, args[0])
				if err != nil {
					return err
				}
				if err := opts.apply(&e, flags.Changed); err != nil {
					return err
				}

				wctx, cancel := context.WithTimeout(commandCtx(cmd), writeTimeout)
				defer cancel()
				saved, err := a.service.Update(wctx, e)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", describeEntry(saved))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.status, "status", "", "watchlist, in-progress or watched")
	cmd.Flags().StringVar(&opts.rating, "rating", "", "Excellent, Good, Average, Bad, Terrible or none")
	cmd.Flags().StringVar(&opts.source, "source", "", "Release source of a movie: Theater or VOD")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Streaming provider of a VOD movie")
	cmd.Flags().IntVar(&opts.season, "season", 0, "Next season to watch")
	cmd.Flags().IntVar(&opts.episode, "episode", 0, "Next episode to watch")
	return cmd
}

// apply edits e in place. Edits are validated against the result of the
// earlier ones, so `--status watched --rating Good` works in one call.
func (o setOptions) apply(e *domain.Entry, changed func(string) bool) error {
	if changed("status") {
		st, ok := parseStatus(o.status)
		if !ok {
			return fmt.Errorf("unknown status %q", o.status)
		}
		e.Status = st
		if st != domain.StatusWatched {
			e.PersonalRating = ""
		}
	}

	if changed("rating") || changed("source") || changed("provider") {
		if !e.IsMovie() {
			return domain.ErrNotMovie
		}
	}
	if changed("rating") {
		if strings.EqualFold(o.rating, "none") || o.rating == "" {
			e.PersonalRating = ""
		} else {
			r, ok := domain.ParsePersonalRating(o.rating)
			if !ok {
				return fmt.Errorf("unknown rating %q", o.rating)
			}
			if e.Status != domain.StatusWatched {
				return fmt.Errorf("%w: only watched movies can be rated", domain.ErrInvalidEntry)
			}
			e.PersonalRating = r
		}
	}
	if changed("source") {
		src, ok := domain.ParseReleaseSource(o.source)
		if !ok {
			return fmt.Errorf("unknown release source %q (want Theater or VOD)", o.source)
		}
		e.ReleaseSource = src
	}
	if changed("provider") {
		if e.EffectiveReleaseSource() != domain.ReleaseVOD {
			return fmt.Errorf("%w: a provider applies to VOD releases only", domain.ErrInvalidEntry)
		}
		p, ok := domain.ParseVodProvider(o.provider)
		if !ok {
			return fmt.Errorf("unknown provider %q", o.provider)
		}
		e.VodProvider = p
	}

	if changed("season") || changed("episode") {
		if !e.IsSeries() {
			return domain.ErrNotSeries
		}
		if changed("season") {
			e.Progress.Season = o.season
		}
		if changed("episode") {
			e.Progress.Episode = o.episode
		}
		if e.Progress.Season < 1 || e.Progress.Episode < 1 {
			return fmt.Errorf("%w: season and episode must be at least 1", domain.ErrInvalidEntry)
		}
	}
	return nil
}

func parseStatus(s string) (domain.Status, bool) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "watching", "inprogress", "in_progress":
		return domain.StatusInProgress, true
	default:
		st := domain.Status(v)
		return st, st.Valid()
	}
}

func newWatchedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watched <id>",
		Short: "Mark an entry as watched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(commandCtx(cmd), func(a *app) error {
				e, err := resolveEntry(a, args[0])
				if err != nil {
					return err
				}
				wctx, cancel := context.WithTimeout(commandCtx(cmd), writeTimeout)
				defer cancel()
				if _, err := a.service.MarkWatched(wctx, e.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as watched\n", e.Title)
				return nil
			})
		},
	}
}

func newNextCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "next <id>",
		Short: "Advance a series to its next episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(commandCtx(cmd), func(a *app) error {
				e, err := resolveEntry(a, args[0])
				if err != nil {
					return err
				}
				wctx, cancel := context.WithTimeout(commandCtx(cmd), writeTimeout)
				defer cancel()
				saved, err := a.service.AdvanceEpisode(wctx, e.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Now at %s: %s\n", saved.EpisodeCode(), saved.Title)
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(commandCtx(cmd), func(a *app) error {
				e, err := resolveEntry(a, args[0])
				if err != nil {
					return err
				}
				if !yes {
					if !stdinIsTerminal() {
						return errors.New("refusing to delete without confirmation (pass --yes)")
					}
					ok, err := confirm(cmd, fmt.Sprintf("Delete %q?", e.Title))
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
						return nil
					}
				}

				wctx, cancel := context.WithTimeout(commandCtx(cmd), writeTimeout)
				defer cancel()
				if err := a.service.Delete(wctx, e.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", e.Title)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// resolveEntry finds an entry by ID prefix with a readable error
func resolveEntry(a *app, prefix string) (domain.Entry, error) {
	e, err := a.service.Resolve(prefix)
	switch {
	case errors.Is(err, domain.ErrEntryNotFound):
		return domain.Entry{}, fmt.Errorf("no entry matches %q", prefix)
	case errors.Is(err, domain.ErrAmbiguousID):
		return domain.Entry{}, fmt.Errorf("%q: %w", prefix, err)
	case err != nil:
		return domain.Entry{}, err
	}
	return e, nil
}

func displayTitle(title string, year int) string {
	if year > 0 {
		return fmt.Sprintf("%s (%d)", title, year)
	}
	return title
}

// describeEntry summarizes the editable state of an entry on one line
func describeEntry(e domain.Entry) string {
	parts := []string{e.Title, e.Status.String()}
	if e.IsSeries() {
		parts = append(parts, e.EpisodeCode())
	} else {
		if e.PersonalRating != "" {
			parts = append(parts, string(e.PersonalRating))
		}
		parts = append(parts, releaseText(e))
	}
	return strings.Join(parts, " · ")
}
