// Package store persists collected submissions and problems. Every store is
// read whole and replaced whole.
package store

import (
	"github.com/oi-archive/boj-collector/plugin/baekjoon"
)

type SubmissionStore interface {
	// ReadSubmissions returns the stored submissions, newest first.
	ReadSubmissions() ([]baekjoon.Submission, error)
	WriteSubmissions([]baekjoon.Submission) error
}

type ProblemStore interface {
	ReadKnownProblems() (map[int]baekjoon.Problem, error)
	WriteKnownProblems(map[int]baekjoon.Problem) error
}

type RosterSource interface {
	ReadCompetitions() ([]baekjoon.Competition, error)
}
