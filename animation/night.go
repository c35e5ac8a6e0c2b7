package animation

import (
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// NightDim lowers the brightness between sunset and sunrise at the
// configured location.
type NightDim struct {
	Base      float64
	Night     float64
	Latitude  float64
	Longitude float64
	Now       func() time.Time
}

func (s *NightDim) IsNight(now time.Time) bool {
	rise, set := sunrise.SunriseSunset(s.Latitude, s.Longitude, now.Year(), now.Month(), now.Day())
	if rise.IsZero() || set.IsZero() {
		// polar day or night, no transition today
		return false
	}
	return now.Before(rise) || now.After(set)
}

func (s *NightDim) Factor() float64 {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	if s.IsNight(now()) {
		return s.Base * s.Night
	}
	return s.Base
}
