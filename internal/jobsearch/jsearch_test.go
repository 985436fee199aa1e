package jobsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

const jsearchPayload = `{
	"status": "OK",
	"data": [
		{
			"job_title": "Backend Engineer",
			"employer_name": "Acme",
			"job_city": "Berlin",
			"job_country": "DE",
			"job_apply_link": "https://acme.example/jobs/1",
			"job_description": "Build services in Go.",
			"job_min_salary": 70000,
			"job_max_salary": 90000,
			"job_salary_currency": "EUR",
			"job_salary_period": "YEAR",
			"job_employment_type": "Full-time",
			"job_required_experience": {"required_experience_in_months": 36}
		},
		{
			"job_title": "Platform Engineer",
			"employer_name": "",
			"job_city": "",
			"job_country": "",
			"job_apply_link": "https://jobs.example/2",
			"job_description": "Run the platform.",
			"job_min_salary": null,
			"job_max_salary": null,
			"job_required_experience": {}
		}
	]
}`

func newTestJSearch(t *testing.T, handler http.HandlerFunc) (*JSearch, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewJSearch("test-key", &JSearchParams{Country: "de"}, zap.NewNop())
	client.APIURL = server.URL
	client.HTTPClient = server.Client()

	return client, server
}

func TestJSearchResolveJobs(t *testing.T) {
	var gotQuery, gotKey, gotHost string
	client, _ := newTestJSearch(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotKey = r.Header.Get("x-rapidapi-key")
		gotHost = r.Header.Get("x-rapidapi-host")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(jsearchPayload))
	})

	listings := client.ResolveJobs(context.Background(), []string{"Backend Engineer", "SRE"})

	if gotQuery != "Backend Engineer OR SRE" {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
	if gotKey != "test-key" {
		t.Fatalf("unexpected api key header: %q", gotKey)
	}
	if gotHost != jsearchHost {
		t.Fatalf("unexpected host header: %q", gotHost)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}

	first := listings[0]
	if first.Location != "Berlin, DE" {
		t.Fatalf("unexpected location: %q", first.Location)
	}
	if first.SalaryRange != "70000 - 90000 EUR per year" {
		t.Fatalf("unexpected salary range: %q", first.SalaryRange)
	}
	if first.RequiredExperience != "3+ years" {
		t.Fatalf("unexpected required experience: %q", first.RequiredExperience)
	}
	if first.MatchPercentage < 75 || first.MatchPercentage > 95 {
		t.Fatalf("expected synthesized match in [75,95], got %v", first.MatchPercentage)
	}

	second := listings[1]
	if second.Company != NotSpecified || second.Location != NotSpecified {
		t.Fatalf("expected fallbacks for missing fields: %+v", second)
	}
	if second.SalaryRange != NotSpecified || second.RequiredExperience != NotSpecified {
		t.Fatalf("expected salary and experience fallbacks: %+v", second)
	}
}

func TestJSearchEmptyTitlesShortCircuit(t *testing.T) {
	calls := 0
	client, _ := newTestJSearch(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(jsearchPayload))
	})

	if listings := client.ResolveJobs(context.Background(), nil); listings != nil {
		t.Fatalf("expected nil listings, got %+v", listings)
	}
	if calls != 0 {
		t.Fatalf("expected no requests, got %d", calls)
	}
}

func TestJSearchBadStatusReturnsEmpty(t *testing.T) {
	client, _ := newTestJSearch(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	if listings := client.ResolveJobs(context.Background(), []string{"A"}); len(listings) != 0 {
		t.Fatalf("expected empty result, got %+v", listings)
	}
}

func TestJSearchMalformedBodyReturnsEmpty(t *testing.T) {
	client, _ := newTestJSearch(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	})

	if listings := client.ResolveJobs(context.Background(), []string{"A"}); len(listings) != 0 {
		t.Fatalf("expected empty result, got %+v", listings)
	}
}

func TestFormatSalary(t *testing.T) {
	cases := []struct {
		min, max float64
		currency string
		period   string
		expect   string
	}{
		{0, 0, "", "", NotSpecified},
		{60000, 80000, "USD", "YEAR", "60000 - 80000 USD per year"},
		{50, 0, "", "HOUR", "from 50 USD per hour"},
		{0, 120000, "EUR", "", "up to 120000 EUR per year"},
	}
	for _, tc := range cases {
		if got := formatSalary(tc.min, tc.max, tc.currency, tc.period); got != tc.expect {
			t.Fatalf("formatSalary(%v, %v, %q, %q) = %q, expected %q",
				tc.min, tc.max, tc.currency, tc.period, got, tc.expect)
		}
	}
}
