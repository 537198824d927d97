package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	// answers shorter than this skip the detector entirely
	MinGateWords = 20
	// detected-AI probability (percent) above which a submission is refused
	AIThreshold = 50.0
)

// Result is the probability triplet returned by the detection service,
// normalized to percentages.
type Result struct {
	AIProbability    float64 `json:"class_probability_ai"`
	HumanProbability float64 `json:"class_probability_human"`
	Mixed            float64 `json:"mixed"`
}

// Blocked reports whether the result crosses the hard gate.
func (r Result) Blocked() bool {
	return r.AIProbability > AIThreshold
}

// Client checks submitted long-form text for AI-generated content.
type Client interface {
	Check(ctx context.Context, text string, studentID, questionID uint) (Result, error)
}

// Default is the client the review controller consults; tests swap it out.
var Default Client = NewHTTPClient()

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		baseURL: os.Getenv("DETECTOR_URL"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) Check(ctx context.Context, text string, studentID, questionID uint) (Result, error) {
	base := c.baseURL
	if base == "" {
		base = os.Getenv("DETECTOR_URL")
	}

	q := url.Values{}
	q.Set("text", text)
	q.Set("students_id", fmt.Sprintf("%d", studentID))
	q.Set("question_id", fmt.Sprintf("%d", questionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/plagiarism_checker?"+q.Encode(), nil)
	if err != nil {
		return Result{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("detector returned status %d", resp.StatusCode)
	}

	var raw Result
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Result{}, err
	}
	return Normalize(raw), nil
}

// Normalize maps the service's ambiguous units to percentages. The upstream
// sometimes reports fractions (0-1) and sometimes percentages (0-100); values
// at or below 1 are treated as fractions.
func Normalize(r Result) Result {
	return Result{
		AIProbability:    normalizeProbability(r.AIProbability),
		HumanProbability: normalizeProbability(r.HumanProbability),
		Mixed:            normalizeProbability(r.Mixed),
	}
}

func normalizeProbability(v float64) float64 {
	if v <= 1 {
		return v * 100
	}
	return v
}
