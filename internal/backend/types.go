package backend

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dallionking/levelchain/internal/chain"
)

// TimestampLayout matches JavaScript's Date.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t in TimestampLayout, in UTC.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// SubmitPayload is the body of POST /submit. Levels are flattened into the
// top-level object as "level1", "level2", ...
type SubmitPayload struct {
	ProjectID string
	Timestamp string
	Levels    map[int]chain.Level
}

// NewSubmitPayload builds the payload for every visible level carrying data.
func NewSubmitPayload(s chain.State, now time.Time) SubmitPayload {
	levels := make(map[int]chain.Level, len(s.Visible))
	for _, i := range s.Visible {
		if l, ok := s.Level(i); ok {
			levels[i] = l
		}
	}
	return SubmitPayload{
		ProjectID: s.ProjectID,
		Timestamp: Timestamp(now),
		Levels:    levels,
	}
}

func (p SubmitPayload) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Levels)+2)
	out["project_id"] = p.ProjectID
	out["timestamp"] = p.Timestamp
	for i, l := range p.Levels {
		out[chain.Key(i)] = l
	}
	return json.Marshal(out)
}

func (p *SubmitPayload) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = SubmitPayload{Levels: map[int]chain.Level{}}
	for k, v := range raw {
		switch k {
		case "project_id":
			if err := json.Unmarshal(v, &p.ProjectID); err != nil {
				return fmt.Errorf("project_id: %w", err)
			}
		case "timestamp":
			if err := json.Unmarshal(v, &p.Timestamp); err != nil {
				return fmt.Errorf("timestamp: %w", err)
			}
		default:
			i, ok := chain.ParseKey(k)
			if !ok {
				continue
			}
			var l chain.Level
			if err := json.Unmarshal(v, &l); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			p.Levels[i] = l
		}
	}
	return nil
}

// ConvertRequest is the body of POST /convert-to-dbt.
type ConvertRequest struct {
	Timestamp string        `json:"timestamp"`
	Data      SubmitPayload `json:"data"`
}

// Conversion is the dbt rendering of one level.
type Conversion struct {
	DBTFormat string `json:"dbt_format"`
	FilePath  string `json:"dbt_file_path"`
}

type convertResponse struct {
	Comparisons map[string]Conversion `json:"comparisons"`
}

type listResponse struct {
	Status     string   `json:"status"`
	ProjectIDs []string `json:"project_ids"`
	Datasets   []string `json:"datasets"`
	Error      string   `json:"error"`
	Message    string   `json:"message"`
}

type errorResponse struct {
	Message string `json:"message"`
}
