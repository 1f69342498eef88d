package domain

import "fmt"

// Progress tracks the next season/episode to watch for a series.
// Zero fields mean "not set".
type Progress struct {
	Season  int `json:"season,omitempty" validate:"gte=0"`
	Episode int `json:"episode,omitempty" validate:"gte=0"`
}

// IsZero reports whether no progress has been recorded
func (p Progress) IsZero() bool {
	return p.Season == 0 && p.Episode == 0
}

// NextEpisode returns progress advanced by one episode within the same season.
// An unset episode counts as episode 1.
func (p Progress) NextEpisode() Progress {
	ep := p.Episode
	if ep < 1 {
		ep = 1
	}
	p.Episode = ep + 1
	return p
}

// String formats progress as S01E05; unset fields render as 1
func (p Progress) String() string {
	season, episode := p.Season, p.Episode
	if season < 1 {
		season = 1
	}
	if episode < 1 {
		episode = 1
	}
	return fmt.Sprintf("S%02dE%02d", season, episode)
}
