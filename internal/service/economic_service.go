package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/polrydian/polrydian-api/internal/transfer"
)

var fredSeriesPattern = regexp.MustCompile(`^[A-Z0-9_]{1,30}$`)

const (
	defaultObservationLimit = 24
	maxObservationLimit     = 1000
)

type EconomicService interface {
	Observations(ctx context.Context, seriesID string, limit int) (*transfer.EconomicSeries, error)
}

type economicService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewEconomicService(apiKey, baseURL string, httpClient *http.Client) EconomicService {
	return &economicService{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Observations returns the newest observations of a FRED series. Missing
// values, which FRED reports as ".", come back as nil.
func (s *economicService) Observations(ctx context.Context, seriesID string, limit int) (*transfer.EconomicSeries, error) {
	seriesID = strings.ToUpper(strings.TrimSpace(seriesID))
	if err := validation.Validate(seriesID, validation.Required, validation.Match(fredSeriesPattern)); err != nil {
		return nil, fmt.Errorf("%w: series: %v", ErrInvalidRequest, err)
	}

	if limit <= 0 {
		limit = defaultObservationLimit
	}
	if limit > maxObservationLimit {
		limit = maxObservationLimit
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", s.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/series/observations?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}

	if resp.StatusCode != http.StatusOK {
		var fredErr transfer.FredErrorResponse
		_ = json.Unmarshal(body, &fredErr)
		// FRED answers 400 for unknown series.
		if resp.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, fredErr.ErrorMessage)
		}
		return nil, fmt.Errorf("%w: FRED HTTP %d: %s", ErrUpstreamFetch, resp.StatusCode, fredErr.ErrorMessage)
	}

	var result transfer.FredObservationsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}

	series := &transfer.EconomicSeries{
		SeriesID:     seriesID,
		Units:        result.Units,
		Observations: make([]transfer.EconomicPoint, 0, len(result.Observations)),
	}
	for _, o := range result.Observations {
		point := transfer.EconomicPoint{Date: o.Date}
		if v, err := strconv.ParseFloat(o.Value, 64); err == nil {
			point.Value = &v
		}
		series.Observations = append(series.Observations, point)
	}
	return series, nil
}
