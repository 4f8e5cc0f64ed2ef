package bot

import (
	"encoding/json"
	"time"

	"github.com/spigell/fl-bidder/internal/config"
	"github.com/spigell/fl-bidder/internal/store"
)

type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusStopped  Status = "stopped"
	StatusError    Status = "error"
)

// State is a snapshot of a session's counters.
type State struct {
	SessionID        string    `json:"session_id"`
	Name             string    `json:"name,omitempty"`
	Status           Status    `json:"status"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at"`
	Quota            int       `json:"quota"`
	BidsPlaced       int       `json:"bids_placed"`
	ProjectsFound    int       `json:"projects_found"`
	ProjectsFiltered int       `json:"projects_filtered"`
	ProjectsMatched  int       `json:"projects_matched"`
	Processed        int       `json:"processed"`
	Errors           int       `json:"errors"`
	Cycles           int       `json:"cycles"`
}

// State returns a copy of the current counters.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

type sessionConfig struct {
	Quota              int      `json:"quota"`
	PageSize           int      `json:"page_size"`
	SearchOffset       int      `json:"search_offset"`
	MinWaitSeconds     int      `json:"min_wait_seconds"`
	Skills             []int    `json:"skills"`
	Languages          []string `json:"languages"`
	ExcludedCurrencies []string `json:"excluded_currencies"`
	ExcludedCountries  []string `json:"excluded_countries"`
}

func configurationJSON(s config.Settings) json.RawMessage {
	raw, err := json.Marshal(sessionConfig{
		Quota:              s.Quota,
		PageSize:           s.PageSize,
		SearchOffset:       s.SearchOffset,
		MinWaitSeconds:     int(s.MinPostAge / time.Second),
		Skills:             s.Skills,
		Languages:          s.Languages,
		ExcludedCurrencies: s.ExcludedCurrencies,
		ExcludedCountries:  s.ExcludedCountries,
	})
	if err != nil {
		return nil
	}
	return raw
}

func (s State) record(cfg json.RawMessage) store.SessionRecord {
	return store.SessionRecord{
		SessionID:        s.SessionID,
		Name:             s.Name,
		Status:           string(s.Status),
		StartedAt:        s.StartedAt,
		EndedAt:          s.EndedAt,
		ProjectsFound:    s.ProjectsFound,
		ProjectsFiltered: s.ProjectsFiltered,
		BidsPlaced:       s.BidsPlaced,
		Errors:           s.Errors,
		Configuration:    cfg,
	}
}
