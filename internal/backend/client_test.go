package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dallionking/levelchain/internal/chain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", time.Second, nil)
}

func samplePayload() SubmitPayload {
	return SubmitPayload{
		ProjectID: "kossip-helpers",
		Timestamp: "2024-05-01T10:00:00.000Z",
		Levels: map[int]chain.Level{
			1: {DatasetID: "ds1", ObjectName: "orders", ObjectType: chain.ObjectView, Query: "SELECT 1"},
			2: {DatasetID: "ds2", ObjectName: "orders", ObjectType: chain.ObjectTable, Query: "SELECT * FROM `ds1.orders`"},
		},
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New("", 0, nil)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.http.Timeout)

	assert.Equal(t, "http://x/api", New("http://x/api///", 0, nil).BaseURL())
}

func TestTimestamp(t *testing.T) {
	loc := time.FixedZone("X", 2*60*60)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 7_000_000, loc)
	assert.Equal(t, "2024-05-01T10:00:00.007Z", Timestamp(ts))
}

func TestSubmitPayload_JSONShape(t *testing.T) {
	data, err := json.Marshal(samplePayload())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "kossip-helpers", raw["project_id"])
	assert.Equal(t, "2024-05-01T10:00:00.000Z", raw["timestamp"])
	assert.Contains(t, raw, "level1")
	assert.Contains(t, raw, "level2")
	assert.NotContains(t, raw, "level3")

	l1 := raw["level1"].(map[string]any)
	assert.Equal(t, "VIEW", l1["object_type"])
	assert.Equal(t, "ds1", l1["dataset_id"])

	var back SubmitPayload
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, samplePayload(), back)
}

func TestNewSubmitPayload(t *testing.T) {
	s := chain.NewState("proj")
	s.Levels[1] = chain.Level{DatasetID: "ds", ObjectName: "o", ObjectType: chain.ObjectView, Query: "q"}
	s.Levels[3] = chain.Level{ObjectName: "not visible"}

	p := NewSubmitPayload(s, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Equal(t, "proj", p.ProjectID)
	assert.Equal(t, "2024-01-02T03:04:05.000Z", p.Timestamp)
	assert.Len(t, p.Levels, 1)
	assert.NotContains(t, p.Levels, 3)

	p.Levels[2] = chain.Level{}
	assert.Len(t, s.Levels, 2, "payload must not alias state")
}

func TestSubmit(t *testing.T) {
	var got SubmitPayload
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathSubmit, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"status":"success","message":"Data saved successfully","saved_levels":2}`))
	})

	require.NoError(t, c.Submit(context.Background(), samplePayload()))
	assert.Equal(t, samplePayload(), got)
}

func TestSubmit_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"backend message surfaced verbatim", http.StatusBadRequest, `{"status":"error","message":"Missing project_id in submission"}`, "Missing project_id in submission"},
		{"fallback without message", http.StatusInternalServerError, `oops`, "Failed to submit data"},
		{"fallback on empty message", http.StatusBadGateway, `{"message":""}`, "Failed to submit data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := c.Submit(context.Background(), samplePayload())
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, PathSubmit, apiErr.Endpoint)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestConvert_RekeysByLevel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathConvert, r.URL.Path)
		var req ConvertRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2024-05-01T10:00:01.000Z", req.Timestamp)
		assert.Equal(t, "kossip-helpers", req.Data.ProjectID)
		assert.Len(t, req.Data.Levels, 2)

		_, _ = w.Write([]byte(`{"comparisons":{
			"level1":{"dbt_format":"{{ config(alias='orders') }}\nSELECT 1","dbt_file_path":"models/orders.sql"},
			"level2":{"dbt_format":"SELECT * FROM {{ ref('orders') }}","dbt_file_path":"models/orders_2.sql"},
			"custom_level":{"dbt_format":"x","dbt_file_path":"y"}
		}}`))
	})

	got, err := c.Convert(context.Background(), ConvertRequest{
		Timestamp: "2024-05-01T10:00:01.000Z",
		Data:      samplePayload(),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "models/orders.sql", got[1].FilePath)
	assert.Contains(t, got[2].DBTFormat, "ref('orders')")
}

func TestConvert_Error(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.Convert(context.Background(), ConvertRequest{Data: samplePayload()})
	assert.EqualError(t, err, "Failed to convert to dbt")
}

func TestDatasets(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, PathDatasets, r.URL.Path)
			_, _ = w.Write([]byte(`{"status":"success","datasets":["ds1","ds2"]}`))
		})
		got, err := c.Datasets(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"ds1", "ds2"}, got)
	})

	t.Run("status other than success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"error","error":"sheet unavailable"}`))
		})
		_, err := c.Datasets(context.Background())
		assert.ErrorIs(t, err, ErrBadStatus)
		assert.ErrorContains(t, err, "sheet unavailable")
	})

	t.Run("transport failure", func(t *testing.T) {
		c := New("http://127.0.0.1:1", 200*time.Millisecond, nil)
		_, err := c.Datasets(context.Background())
		assert.Error(t, err)
	})
}

func TestProjectIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathProjectIDs, r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","project_ids":["kossip-helpers","kossip-helpers-dev"]}`))
	})
	got, err := c.ProjectIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"kossip-helpers", "kossip-helpers-dev"}, got)
}
