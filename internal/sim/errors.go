package sim

import "errors"

var (
	ErrTuningNotFound = errors.New("tuning not found")
	ErrInvalidGrid    = errors.New("invalid sweep grid")
	ErrEpisodeDone    = errors.New("episode already finished")
)
