package utils

import (
	"slices"
	"time"
)

// historySize is how many recent grid hashes are kept for cycle detection
const historySize = 5

// Stats for performance monitoring
type Stats struct {
	GenerationsPerSecond float64
	AveragePopulation    float64
	TotalGenerations     int
	StartTime            time.Time
	ActiveCells          int

	history []string
}

func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

func (s *Stats) Update(generation int, population int, duration time.Duration) {
	s.TotalGenerations = generation
	s.ActiveCells = population
	if duration > 0 {
		s.GenerationsPerSecond = 1.0 / duration.Seconds()
	}

	// Simple moving average for population
	if s.AveragePopulation == 0 {
		s.AveragePopulation = float64(population)
	} else {
		s.AveragePopulation = (s.AveragePopulation * 0.9) + (float64(population) * 0.1)
	}
}

// Observe records a grid hash and reports whether it repeats one of the last
// three observed states, i.e. the board is static or cycling with period <= 3.
func (s *Stats) Observe(hash string) bool {
	recent := s.history[max(0, len(s.history)-3):]
	stagnant := slices.Contains(recent, hash)

	s.history = append(s.history, hash)
	if len(s.history) > historySize {
		s.history = s.history[1:]
	}
	return stagnant
}

// ResetHistory forgets observed states, e.g. after the board is replaced
func (s *Stats) ResetHistory() {
	s.history = nil
	s.AveragePopulation = 0
}

// Runtime returns the time elapsed since the stats were created
func (s *Stats) Runtime() time.Duration {
	return time.Since(s.StartTime)
}
