package domain

import (
	"fmt"
	"time"
)

// Kind distinguishes movies from series. It never changes after creation.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// String returns a human-readable label for the kind
func (k Kind) String() string {
	switch k {
	case KindMovie:
		return "Movie"
	case KindSeries:
		return "Series"
	default:
		return "Unknown"
	}
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	return k == KindMovie || k == KindSeries
}

// Status is the lifecycle stage of an entry
type Status string

const (
	StatusWatchlist  Status = "watchlist"
	StatusInProgress Status = "in-progress"
	StatusWatched    Status = "watched"
)

// Statuses lists every status in display order
var Statuses = []Status{StatusWatchlist, StatusInProgress, StatusWatched}

// String returns a human-readable label for the status
func (s Status) String() string {
	switch s {
	case StatusWatchlist:
		return "Watchlist"
	case StatusInProgress:
		return "Watching"
	case StatusWatched:
		return "Watched"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	return s == StatusWatchlist || s == StatusInProgress || s == StatusWatched
}

// Entry is one tracked movie or series in a user's library.
//
// Descriptive metadata (year, synopsis, images, external rating, runtime) is
// copied from the lookup result at creation time and never recomputed.
type Entry struct {
	ID         string `json:"id" validate:"required"`
	ExternalID int64  `json:"externalId,omitempty" validate:"gte=0"` // Metadata catalog ID (0 = unknown)
	Title      string `json:"title" validate:"required"`
	Kind       Kind   `json:"kind" validate:"required,oneof=movie series"`
	Status     Status `json:"status" validate:"required,oneof=watchlist in-progress watched"`

	Year           int     `json:"year,omitempty" validate:"gte=0"`
	Synopsis       string  `json:"synopsis,omitempty"`
	PosterRef      string  `json:"posterRef,omitempty"`
	BackdropRef    string  `json:"backdropRef,omitempty"`
	ExternalRating float64 `json:"externalRating,omitempty" validate:"gte=0,lte=10"` // 0-10 community rating
	RuntimeMinutes int     `json:"runtimeMinutes,omitempty" validate:"gte=0"`

	// Series only
	Progress Progress `json:"progress"`

	// Movie only
	PersonalRating PersonalRating `json:"personalRating,omitempty" validate:"omitempty,oneof=Terrible Bad Average Good Excellent"`
	ReleaseSource  ReleaseSource  `json:"releaseSource,omitempty" validate:"omitempty,oneof=Theater VOD"`
	VodProvider    VodProvider    `json:"vodProvider,omitempty"`

	AddedAt int64 `json:"addedAt" validate:"gte=0"` // Unix milliseconds when added to library
}

// IsMovie reports whether the entry is a movie
func (e Entry) IsMovie() bool { return e.Kind == KindMovie }

// IsSeries reports whether the entry is a series
func (e Entry) IsSeries() bool { return e.Kind == KindSeries }

// EffectiveReleaseSource returns the release source, treating an absent
// value as Theater. Series have no release source.
func (e Entry) EffectiveReleaseSource() ReleaseSource {
	if e.Kind != KindMovie {
		return ""
	}
	if e.ReleaseSource == "" {
		return ReleaseTheater
	}
	return e.ReleaseSource
}

// Normalize returns a copy of e with every field whose precondition no longer
// holds stripped:
//   - series carry no personal rating, release source or VOD provider
//   - movies carry no episode progress
//   - a personal rating requires status watched
//   - a VOD provider requires release source VOD
func (e Entry) Normalize() Entry {
	switch e.Kind {
	case KindSeries:
		e.PersonalRating = ""
		e.ReleaseSource = ""
		e.VodProvider = ""
	case KindMovie:
		e.Progress = Progress{}
		if e.Status != StatusWatched {
			e.PersonalRating = ""
		}
		if e.ReleaseSource != ReleaseVOD {
			e.VodProvider = ""
		}
	}
	return e
}

// Added returns AddedAt as a time.Time
func (e Entry) Added() time.Time {
	return time.UnixMilli(e.AddedAt)
}

// EpisodeCode returns the formatted progress code (e.g., "S01E05") for series
func (e Entry) EpisodeCode() string {
	if e.Kind != KindSeries || e.Progress.IsZero() {
		return ""
	}
	return e.Progress.String()
}

// FormattedRuntime returns the runtime in a human-readable format
func (e Entry) FormattedRuntime() string {
	if e.RuntimeMinutes <= 0 {
		return ""
	}
	h := e.RuntimeMinutes / 60
	mins := e.RuntimeMinutes % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// Candidate is a metadata search result that can be added to the library
type Candidate struct {
	ExternalID     int64
	Title          string
	Kind           Kind
	Year           int
	Synopsis       string
	PosterRef      string
	BackdropRef    string
	ExternalRating float64
}

// Details holds supplementary attributes resolved for a single title.
// The zero value means nothing could be resolved.
type Details struct {
	RuntimeMinutes int
}
