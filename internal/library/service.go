package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/cinetrack/internal/domain"
)

// Store is the subset of store.Library the service needs
type Store interface {
	List() []domain.Entry
	Get(id string) (domain.Entry, bool)
	Put(ctx context.Context, e domain.Entry) error
	Delete(ctx context.Context, id string) error
}

// Service implements the library operations behind the presentation layer:
// the add flow, field edits, quick actions and deletes. Every write goes
// through the store; the caller sees the result on the next notification.
type Service struct {
	store  Store
	lookup domain.MetadataLookup
	logger *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a new library service.
func NewService(store Store, lookup domain.MetadataLookup, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		lookup: lookup,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Search resolves a free-text query to candidates. Never fails.
func (s *Service) Search(ctx context.Context, query string) []domain.Candidate {
	return s.lookup.Search(ctx, query)
}

// Add creates a watchlist entry from a candidate. The runtime comes from an
// existing entry for the same title when there is one, otherwise from a
// detail lookup. If ctx ends during the lookup nothing is written.
func (s *Service) Add(ctx context.Context, c domain.Candidate) (domain.Entry, error) {
	if !c.Kind.Valid() {
		return domain.Entry{}, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidEntry, c.Kind)
	}

	runtime, ok := s.knownRuntime(c)
	if !ok {
		runtime = s.lookup.FetchDetails(ctx, c.ExternalID, c.Kind).RuntimeMinutes
	}
	if err := ctx.Err(); err != nil {
		return domain.Entry{}, err
	}

	e := domain.Entry{
		ID:             s.newID(),
		ExternalID:     c.ExternalID,
		Title:          c.Title,
		Kind:           c.Kind,
		Status:         domain.StatusWatchlist,
		Year:           c.Year,
		Synopsis:       c.Synopsis,
		PosterRef:      c.PosterRef,
		BackdropRef:    c.BackdropRef,
		ExternalRating: c.ExternalRating,
		RuntimeMinutes: runtime,
		AddedAt:        s.now().UnixMilli(),
	}
	switch c.Kind {
	case domain.KindMovie:
		e.ReleaseSource = domain.ReleaseTheater
	case domain.KindSeries:
		e.Progress = domain.Progress{Season: 1, Episode: 1}
	}

	if err := e.Validate(); err != nil {
		return domain.Entry{}, err
	}
	if err := s.store.Put(ctx, e); err != nil {
		s.logger.Error("failed to add entry", "title", e.Title, "error", err)
		return domain.Entry{}, fmt.Errorf("add %q: %w", e.Title, err)
	}
	s.logger.Debug("added entry", "id", e.ID, "title", e.Title, "kind", e.Kind, "runtime", runtime)
	return e, nil
}

// knownRuntime looks for a resolved runtime on an entry with the same
// catalog ID and kind
func (s *Service) knownRuntime(c domain.Candidate) (int, bool) {
	if c.ExternalID <= 0 {
		return 0, false
	}
	for _, e := range s.store.List() {
		if e.ExternalID == c.ExternalID && e.Kind == c.Kind && e.RuntimeMinutes > 0 {
			return e.RuntimeMinutes, true
		}
	}
	return 0, false
}

// Update overwrites an existing entry. Kind and addedAt cannot change;
// fields whose preconditions no longer hold are stripped.
func (s *Service) Update(ctx context.Context, e domain.Entry) (domain.Entry, error) {
	existing, ok := s.store.Get(e.ID)
	if !ok {
		return domain.Entry{}, domain.ErrEntryNotFound
	}
	if e.Kind != existing.Kind {
		return domain.Entry{}, domain.ErrKindChange
	}
	if e.AddedAt != existing.AddedAt {
		return domain.Entry{}, fmt.Errorf("%w: addedAt", domain.ErrImmutableField)
	}

	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return domain.Entry{}, err
	}
	if err := s.store.Put(ctx, e); err != nil {
		s.logger.Error("failed to update entry", "id", e.ID, "error", err)
		return domain.Entry{}, fmt.Errorf("update %q: %w", e.Title, err)
	}
	return e, nil
}

// modify applies fn to the current version of an entry and saves the result
func (s *Service) modify(ctx context.Context, id string, fn func(*domain.Entry) error) (domain.Entry, error) {
	e, ok := s.store.Get(id)
	if !ok {
		return domain.Entry{}, domain.ErrEntryNotFound
	}
	if err := fn(&e); err != nil {
		return domain.Entry{}, err
	}
	return s.Update(ctx, e)
}

// SetStatus changes the lifecycle stage. Leaving watched clears the rating.
func (s *Service) SetStatus(ctx context.Context, id string, status domain.Status) (domain.Entry, error) {
	if !status.Valid() {
		return domain.Entry{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidEntry, status)
	}
	return s.modify(ctx, id, func(e *domain.Entry) error {
		e.Status = status
		return nil
	})
}

// SetRating sets or clears (empty rating) the personal rating of a watched movie
func (s *Service) SetRating(ctx context.Context, id string, rating domain.PersonalRating) (domain.Entry, error) {
	if rating != "" && !rating.Valid() {
		return domain.Entry{}, fmt.Errorf("%w: unknown rating %q", domain.ErrInvalidEntry, rating)
	}
	return s.modify(ctx, id, func(e *domain.Entry) error {
		if e.Kind != domain.KindMovie {
			return domain.ErrNotMovie
		}
		if rating != "" && e.Status != domain.StatusWatched {
			return fmt.Errorf("%w: only watched movies can be rated", domain.ErrInvalidEntry)
		}
		e.PersonalRating = rating
		return nil
	})
}

// SetReleaseSource classifies a movie. The provider only applies to VOD.
func (s *Service) SetReleaseSource(ctx context.Context, id string, src domain.ReleaseSource, provider domain.VodProvider) (domain.Entry, error) {
	if src != domain.ReleaseTheater && src != domain.ReleaseVOD {
		return domain.Entry{}, fmt.Errorf("%w: unknown release source %q", domain.ErrInvalidEntry, src)
	}
	return s.modify(ctx, id, func(e *domain.Entry) error {
		if e.Kind != domain.KindMovie {
			return domain.ErrNotMovie
		}
		e.ReleaseSource = src
		e.VodProvider = provider
		return nil
	})
}

// SetProgress records the next season/episode of a series
func (s *Service) SetProgress(ctx context.Context, id string, season, episode int) (domain.Entry, error) {
	if season < 1 || episode < 1 {
		return domain.Entry{}, fmt.Errorf("%w: season and episode must be at least 1", domain.ErrInvalidEntry)
	}
	return s.modify(ctx, id, func(e *domain.Entry) error {
		if e.Kind != domain.KindSeries {
			return domain.ErrNotSeries
		}
		e.Progress = domain.Progress{Season: season, Episode: episode}
		return nil
	})
}

// MarkWatched is the quick action that moves an entry to watched
func (s *Service) MarkWatched(ctx context.Context, id string) (domain.Entry, error) {
	return s.SetStatus(ctx, id, domain.StatusWatched)
}

// AdvanceEpisode is the quick action that moves a series to its next
// episode in the same season. Status is left alone.
func (s *Service) AdvanceEpisode(ctx context.Context, id string) (domain.Entry, error) {
	return s.modify(ctx, id, func(e *domain.Entry) error {
		if e.Kind != domain.KindSeries {
			return domain.ErrNotSeries
		}
		e.Progress = e.Progress.NextEpisode()
		if e.Progress.Season < 1 {
			e.Progress.Season = 1
		}
		return nil
	})
}

// Delete removes an entry
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete entry", "id", id, "error", err)
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Resolve finds the entry whose ID equals or uniquely starts with prefix
func (s *Service) Resolve(prefix string) (domain.Entry, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return domain.Entry{}, domain.ErrEntryNotFound
	}

	var matches []domain.Entry
	for _, e := range s.store.List() {
		if e.ID == prefix {
			return e, nil
		}
		if strings.HasPrefix(e.ID, prefix) {
			matches = append(matches, e)
		}
	}

	switch len(matches) {
	case 0:
		return domain.Entry{}, domain.ErrEntryNotFound
	case 1:
		return matches[0], nil
	default:
		return domain.Entry{}, fmt.Errorf("%w: %q matches %d entries", domain.ErrAmbiguousID, prefix, len(matches))
	}
}
