package tmdb

// Result represents a single /search/multi match
type Result struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	MediaType    string  `json:"media_type"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
}

// Response models the paginated search response
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// MovieDetails is the subset of /movie/{id} the tracker uses
type MovieDetails struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Runtime int    `json:"runtime"`
}

// TVDetails is the subset of /tv/{id} the tracker uses
type TVDetails struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	EpisodeRunTime []int  `json:"episode_run_time"`
}

// errorBody is the TMDB error payload
type errorBody struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}
