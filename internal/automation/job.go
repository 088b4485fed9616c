// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package automation

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/jellyboxd/internal/credentials"
	"github.com/tomtom215/jellyboxd/internal/models"
)

// ErrElementNotFound is returned by a Session when a required element is missing.
var ErrElementNotFound = errors.New("element not found")

// Outcome is the terminal result of one automation run.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeAlreadyWatched Outcome = "already_watched"
	OutcomeLoginFailed    Outcome = "login_failed"
	OutcomeNotFound       Outcome = "not_found"
	OutcomePageLoadFailed Outcome = "page_load_failed"
	OutcomeMarkFailed     Outcome = "mark_failed"
	OutcomeBrowserFailed  Outcome = "browser_failed"
	OutcomeCircuitOpen    Outcome = "circuit_open"
)

// Succeeded reports whether the title is now marked watched.
func (o Outcome) Succeeded() bool {
	return o == OutcomeSuccess || o == OutcomeAlreadyWatched
}

// siteHealthy reports whether the outcome says the site behaved as
// scripted. A title with no search results is a healthy site, and a failed
// sign-in belongs to one viewer's credentials, so neither counts against the
// breaker shared by every viewer.
func (o Outcome) siteHealthy() bool {
	return o.Succeeded() || o == OutcomeNotFound || o == OutcomeLoginFailed
}

// StepResult is the result of a tolerant step, one whose absence is
// allowed and handled by the caller's fallback policy.
type StepResult int

const (
	Present StepResult = iota
	Absent
	Timeout
)

func (r StepResult) String() string {
	switch r {
	case Present:
		return "present"
	case Absent:
		return "absent"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Step names used in results, logs and metrics.
const (
	StepGate   = "gate"
	StepLaunch = "launch"
	StepLogin  = "login"
	StepSearch = "search"
	StepSelect = "select"
	StepMark   = "mark"
)

// Job is one mark-watched request for a single title and viewer.
type Job struct {
	ID          string
	Viewer      string
	Title       string
	Year        int // 0 when unknown
	Credentials credentials.Credentials
}

// NewJob builds a job for event with a fresh ID.
func NewJob(event models.ProgressEvent, creds credentials.Credentials) Job {
	return Job{
		ID:          uuid.New().String(),
		Viewer:      event.Viewer,
		Title:       event.Title,
		Year:        event.Year,
		Credentials: creds,
	}
}

// Query returns the search text: the title, followed by the year when known
// since the year disambiguates common titles.
func (j Job) Query() string {
	if j.Year > 0 {
		return j.Title + " " + strconv.Itoa(j.Year)
	}
	return j.Title
}

// Result describes how a run ended. Err is set for every failure outcome.
type Result struct {
	JobID    string
	Outcome  Outcome
	Step     string // step that decided the outcome
	Err      error
	Duration time.Duration
	Snapshot string // path of the diagnostic snapshot, if one was captured
}
