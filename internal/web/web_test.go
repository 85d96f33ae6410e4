package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodycal/internal/config"
	"custodycal/internal/custody"
	"custodycal/internal/metrics"
	"custodycal/internal/model"
)

var generated = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

// sampleResult: Mom Monday 00:00 to Thursday 00:00, Dad the rest, weeks 1-10
// of 2025.
func sampleResult(t *testing.T) *custody.Result {
	t.Helper()
	cycle, err := custody.NewCycle("school", []model.CustodyWindow{
		{Custodian: "Mom", Position: 1, Index: 1, StartDay: time.Monday, EndDay: time.Thursday},
		{Custodian: "Dad", Position: 1, Index: 2, StartDay: time.Thursday, EndDay: time.Monday},
	})
	require.NoError(t, err)
	weeks := make(map[int]string)
	for w := 1; w <= 10; w++ {
		weeks[w] = "school"
	}
	a, err := custody.NewAssignment(2025, 2025, weeks)
	require.NoError(t, err)
	e, err := custody.NewEngine(a, []*custody.Cycle{cycle}, nil)
	require.NoError(t, err)
	res, err := e.Compute(custody.Options{Location: time.UTC, KeepDays: true})
	require.NoError(t, err)
	return res
}

func newTestServer(t *testing.T, cfg *config.Config, withResult bool) (*Server, *httptest.Server) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := NewServer(cfg, metrics.NewRecorder().Handler())
	if withResult {
		s.SetResult(sampleResult(t), generated)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, nil, false)
	resp, body := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)
}

func TestNoResultYet(t *testing.T) {
	s, ts := newTestServer(t, nil, false)

	for _, path := range []string{"/api/summary", "/api/days", "/calendar.ics", "/audit.csv"} {
		resp, body := get(t, ts.URL+path)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, path)
		assert.Contains(t, body, "no schedule computed yet", path)
	}

	s.SetError(errors.New("bad csv"), generated)
	resp, body := get(t, ts.URL+"/api/summary")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "bad csv")
}

func TestSummary(t *testing.T) {
	s, ts := newTestServer(t, nil, true)

	resp, body := get(t, ts.URL+"/api/summary")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	var got summaryResponse
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, 2025, got.StartYear)
	assert.Equal(t, []string{"Dad", "Mom"}, got.Custodians)
	assert.Equal(t, "UTC", got.TimeZone)
	assert.Len(t, got.Months, 12)
	assert.Positive(t, got.Events)
	require.True(t, got.Overall.Percent["Mom"].IsPresent())
	// Jan 1 is a Wednesday: 28 Mom days and 40 Dad days, plus Dec 29-31
	// (ISO week 1 of 2026) for Mom.
	assert.InDelta(t, 43.66, got.Overall.Percent["Mom"].MustGet(), 0.01)
	assert.Empty(t, got.LastError)

	// A failed refresh keeps the old result and reports the failure.
	s.SetError(errors.New("schedule map: week 5 twice"), generated.Add(time.Hour))
	_, body = get(t, ts.URL+"/api/summary")
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "schedule map: week 5 twice", got.LastError)
	require.NotNil(t, got.LastErrorAt)
	assert.Len(t, got.Months, 12)

	s.SetResult(sampleResult(t), generated)
	got = summaryResponse{}
	_, body = get(t, ts.URL+"/api/summary")
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Empty(t, got.LastError)
}

func TestDays(t *testing.T) {
	_, ts := newTestServer(t, nil, true)

	resp, body := get(t, ts.URL+"/api/days?year=2025&month=3")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got daysResponse
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, 2025, got.Year)
	assert.Equal(t, 3, got.Month)
	require.Len(t, got.Days, 31)
	// March 3 2025 is a Monday in ISO week 10.
	assert.Equal(t, "2025-03-03", got.Days[2].Date)
	assert.Equal(t, 10, got.Days[2].ISOWeek)
	require.Len(t, got.Days[2].Bars, 1)
	assert.Equal(t, "Mom", got.Days[2].Bars[0].Custodian)
	// Week 11 is unassigned.
	assert.Equal(t, "2025-03-10", got.Days[9].Date)
	assert.Empty(t, got.Days[9].Bars)

	_, body = get(t, ts.URL+"/api/days")
	got = daysResponse{}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Len(t, got.Days, 365)
}

func TestDays_BadQuery(t *testing.T) {
	_, ts := newTestServer(t, nil, true)
	for _, q := range []string{"year=abc", "year=2025&month=13", "month=2", "year=-1"} {
		resp, _ := get(t, ts.URL+"/api/days?"+q)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestCalendarAndAudit(t *testing.T) {
	_, ts := newTestServer(t, nil, true)

	resp, body := get(t, ts.URL+"/calendar.ics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/calendar"))
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "X-WR-CALNAME:Custody Calendar")
	assert.Contains(t, body, "SUMMARY:Mom")

	resp, body = get(t, ts.URL+"/audit.csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "custody_calculation_audit.csv")
	assert.Contains(t, body, "OVERALL SUMMARY (2025 - 2025)")
}

func TestMetricsRoute(t *testing.T) {
	_, ts := newTestServer(t, nil, false)
	resp, body := get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "custodycal_runs_total")

	plain := httptest.NewServer(NewServer(config.DefaultConfig(), nil).Handler())
	defer plain.Close()
	resp, _ = get(t, plain.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "parent", Password: "s3cret"}
	_, ts := newTestServer(t, cfg, true)

	resp, _ := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/api/summary")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Basic")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/summary", nil)
	require.NoError(t, err)
	req.SetBasicAuth("parent", "wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req.SetBasicAuth("parent", "s3cret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBasicAuth_EmptyCredentialsDisable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "parent"}
	_, ts := newTestServer(t, cfg, true)

	resp, _ := get(t, ts.URL+"/api/summary")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
