package safety

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LookupResult is the interaction oracle's answer for one candidate drug.
// The oracle tolerates fewer than two known drugs by answering
// hasConflict=false with an "insufficient data" detail rather than erroring.
type LookupResult struct {
	HasConflict bool   `json:"hasConflict"`
	Details     string `json:"details"`
	Source      string `json:"source"`
}

// Oracle is the external drug-interaction lookup collaborator.
type Oracle interface {
	Lookup(ctx context.Context, candidateDrug string, knownDrugs []string) (LookupResult, error)
}

// HTTPOracle queries an interaction lookup service over HTTP.
type HTTPOracle struct {
	baseURL string
	client  *http.Client
}

// NewHTTPOracle creates an oracle client for the given base URL. The timeout
// bounds each individual lookup.
func NewHTTPOracle(baseURL string, timeout time.Duration) *HTTPOracle {
	return &HTTPOracle{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type lookupRequest struct {
	CandidateDrug string   `json:"candidateDrug"`
	KnownDrugs    []string `json:"knownDrugs"`
}

// Lookup asks the oracle whether candidateDrug conflicts with any of
// knownDrugs.
func (o *HTTPOracle) Lookup(ctx context.Context, candidateDrug string, knownDrugs []string) (LookupResult, error) {
	body, err := json.Marshal(lookupRequest{CandidateDrug: candidateDrug, KnownDrugs: knownDrugs})
	if err != nil {
		return LookupResult{}, fmt.Errorf("safety.HTTPOracle.Lookup: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/interactions", bytes.NewReader(body))
	if err != nil {
		return LookupResult{}, fmt.Errorf("safety.HTTPOracle.Lookup: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return LookupResult{}, fmt.Errorf("safety.HTTPOracle.Lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return LookupResult{}, fmt.Errorf("safety.HTTPOracle.Lookup: unexpected status %d", resp.StatusCode)
	}

	var result LookupResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return LookupResult{}, fmt.Errorf("safety.HTTPOracle.Lookup: decode: %w", err)
	}

	return result, nil
}
