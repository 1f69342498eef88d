package domain

import "strings"

// PersonalRating is the user's verdict on a watched movie
type PersonalRating string

const (
	RatingTerrible  PersonalRating = "Terrible"
	RatingBad       PersonalRating = "Bad"
	RatingAverage   PersonalRating = "Average"
	RatingGood      PersonalRating = "Good"
	RatingExcellent PersonalRating = "Excellent"
)

// PersonalRatings lists the scale from best to worst (display order)
var PersonalRatings = []PersonalRating{
	RatingExcellent,
	RatingGood,
	RatingAverage,
	RatingBad,
	RatingTerrible,
}

// Ordinal maps the rating onto 1 (Terrible) .. 5 (Excellent); 0 when unset
func (r PersonalRating) Ordinal() int {
	switch r {
	case RatingExcellent:
		return 5
	case RatingGood:
		return 4
	case RatingAverage:
		return 3
	case RatingBad:
		return 2
	case RatingTerrible:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is on the scale
func (r PersonalRating) Valid() bool { return r.Ordinal() > 0 }

// ParsePersonalRating matches a rating case-insensitively
func ParsePersonalRating(s string) (PersonalRating, bool) {
	for _, r := range PersonalRatings {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, true
		}
	}
	return "", false
}

// ReleaseSource classifies a movie as a theatrical release or a streaming original
type ReleaseSource string

const (
	ReleaseTheater ReleaseSource = "Theater"
	ReleaseVOD     ReleaseSource = "VOD"
)

// ParseReleaseSource matches a release source case-insensitively
func ParseReleaseSource(s string) (ReleaseSource, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "theater", "theatre", "theatrical":
		return ReleaseTheater, true
	case "vod", "streaming":
		return ReleaseVOD, true
	}
	return "", false
}

// VodProvider names the streaming service a VOD original premiered on
type VodProvider string

const (
	ProviderNetflix   VodProvider = "Netflix"
	ProviderHulu      VodProvider = "Hulu"
	ProviderPrime     VodProvider = "Prime Video"
	ProviderDisney    VodProvider = "Disney+"
	ProviderHBOMax    VodProvider = "HBO Max"
	ProviderAppleTV   VodProvider = "Apple TV+"
	ProviderPeacock   VodProvider = "Peacock"
	ProviderParamount VodProvider = "Paramount+"
	ProviderOther     VodProvider = "Other"
)

// VodProviders lists the known providers in display order
var VodProviders = []VodProvider{
	ProviderNetflix,
	ProviderHulu,
	ProviderPrime,
	ProviderDisney,
	ProviderHBOMax,
	ProviderAppleTV,
	ProviderPeacock,
	ProviderParamount,
	ProviderOther,
}

// ParseVodProvider matches a provider case-insensitively
func ParseVodProvider(s string) (VodProvider, bool) {
	for _, p := range VodProviders {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, true
		}
	}
	return "", false
}
