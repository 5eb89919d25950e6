// Command plan_compare replays the same timetable generation request against
// a running instance and diffs the resulting assignments. With a fixed seed
// the two proposals must assign identical (cohort, subject, teacher, room,
// day, period) tuples; any drift points at nondeterministic planner input.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"time"
)

type generateRequest struct {
	CohortIDs       []string       `json:"cohortIds"`
	Overrides       map[string]any `json:"overrides,omitempty"`
	IgnoreCommitted bool           `json:"ignoreCommitted"`
}

type sessionView struct {
	CohortID    string `json:"cohortId"`
	SubjectCode string `json:"subjectCode"`
	TeacherID   string `json:"teacherId"`
	RoomID      string `json:"roomId"`
	Day         string `json:"day"`
	Period      int    `json:"period"`
	PeriodSpan  int    `json:"periodSpan"`
}

type runResponse struct {
	Data struct {
		RunID    string        `json:"runId"`
		Score    float64       `json:"score"`
		Sessions []sessionView `json:"sessions"`
	} `json:"data"`
}

func main() {
	var (
		base    string
		reqPath string
		seed    int64
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&reqPath, "request", "", "Path to a JSON generate request (required)")
	flag.Int64Var(&seed, "seed", 1, "Seed forced onto both runs")
	flag.DurationVar(&timeout, "timeout", 60*time.Second, "HTTP client timeout")
	flag.Parse()

	if reqPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	payload, err := loadRequest(reqPath, seed)
	if err != nil {
		log.Fatalf("failed to load request: %v", err)
	}

	client := &http.Client{Timeout: timeout}

	first, err := generate(client, base, payload)
	if err != nil {
		log.Fatalf("first run failed: %v", err)
	}
	second, err := generate(client, base, payload)
	if err != nil {
		log.Fatalf("second run failed: %v", err)
	}

	fmt.Printf("run 1: %s score=%.1f sessions=%d\n", first.Data.RunID, first.Data.Score, len(first.Data.Sessions))
	fmt.Printf("run 2: %s score=%.1f sessions=%d\n", second.Data.RunID, second.Data.Score, len(second.Data.Sessions))

	diffs := diff(first.Data.Sessions, second.Data.Sessions)
	if len(diffs) == 0 {
		fmt.Println("assignments identical")
		return
	}
	for _, d := range diffs {
		fmt.Println(d)
	}
	os.Exit(1)
}

func loadRequest(path string, seed int64) (generateRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return generateRequest{}, err
	}
	var req generateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return generateRequest{}, err
	}
	if req.Overrides == nil {
		req.Overrides = map[string]any{}
	}
	req.Overrides["seed"] = seed
	return req, nil
}

func generate(client *http.Client, base string, req generateRequest) (*runResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := client.Post(base+"/planning-runs", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, payload)
	}
	var run runResponse
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func key(s sessionView) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%d|%d", s.CohortID, s.SubjectCode, s.TeacherID, s.RoomID, s.Day, s.Period, s.PeriodSpan)
}

func diff(a, b []sessionView) []string {
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[key(s)]++
	}
	var diffs []string
	for _, s := range b {
		k := key(s)
		if seen[k] > 0 {
			seen[k]--
			if seen[k] == 0 {
				delete(seen, k)
			}
			continue
		}
		diffs = append(diffs, "only in run 2: "+k)
	}
	for k, n := range seen {
		for i := 0; i < n; i++ {
			diffs = append(diffs, "only in run 1: "+k)
		}
	}
	sort.Strings(diffs)
	return diffs
}
