package itests

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type queryInfo struct {
	FiltersApplied int    `json:"filters_applied"`
	SortBy         string `json:"sort_by"`
	SortDirection  string `json:"sort_direction"`
}

type envelope struct {
	Data           []map[string]any `json:"data"`
	Total          int              `json:"total"`
	PerPage        int              `json:"per_page"`
	CurrentPage    int              `json:"current_page"`
	LastPage       int              `json:"last_page"`
	From           *int             `json:"from"`
	To             *int             `json:"to"`
	Path           string           `json:"path"`
	FirstPageURL   string           `json:"first_page_url"`
	LastPageURL    string           `json:"last_page_url"`
	NextPageURL    *string          `json:"next_page_url"`
	PrevPageURL    *string          `json:"prev_page_url"`
	CurrentPageURL string           `json:"current_page_url"`
	QueryInfo      queryInfo        `json:"query_info"`
}

func getJSON(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(testBaseURL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("decode %s: %v\nbody: %s", path, err, body)
		}
	}
	return resp.StatusCode
}

func getEnvelope(t *testing.T, path string) envelope {
	t.Helper()
	var env envelope
	if code := getJSON(t, path, &env); code != http.StatusOK {
		t.Fatalf("GET %s: status %d", path, code)
	}
	return env
}

func TestList_Pagination(t *testing.T) {
	env := getEnvelope(t, "/plants?page=2&limit=10")

	if env.Total != 25 || env.PerPage != 10 || env.CurrentPage != 2 || env.LastPage != 3 {
		t.Fatalf("pagination meta wrong: total=%d per_page=%d current=%d last=%d",
			env.Total, env.PerPage, env.CurrentPage, env.LastPage)
	}
	if env.From == nil || *env.From != 11 || env.To == nil || *env.To != 20 {
		t.Fatalf("from/to wrong: %v %v", env.From, env.To)
	}
	if len(env.Data) != 10 {
		t.Fatalf("len(data) = %d, want 10", len(env.Data))
	}
	if env.NextPageURL == nil || !strings.Contains(*env.NextPageURL, "page=3") {
		t.Fatalf("next_page_url wrong: %v", env.NextPageURL)
	}
	if env.PrevPageURL == nil || !strings.Contains(*env.PrevPageURL, "page=1") {
		t.Fatalf("prev_page_url wrong: %v", env.PrevPageURL)
	}
	if !strings.Contains(env.FirstPageURL, "page=1") || !strings.Contains(env.LastPageURL, "page=3") {
		t.Fatalf("first/last URLs wrong: %s / %s", env.FirstPageURL, env.LastPageURL)
	}
	if !strings.Contains(env.CurrentPageURL, "limit=10") {
		t.Fatalf("current_page_url must keep limit: %s", env.CurrentPageURL)
	}
	if !strings.HasSuffix(env.Path, "/api/plants") {
		t.Fatalf("path wrong: %s", env.Path)
	}
}

func TestList_LastPartialPage(t *testing.T) {
	env := getEnvelope(t, "/plants?page=3&limit=10")

	if len(env.Data) != 5 {
		t.Fatalf("len(data) = %d, want 5", len(env.Data))
	}
	if env.To == nil || *env.To != 25 {
		t.Fatalf("to = %v, want 25", env.To)
	}
	if env.NextPageURL != nil {
		t.Fatalf("next_page_url must be null on last page, got %v", *env.NextPageURL)
	}
}

func TestList_SortDescending(t *testing.T) {
	env := getEnvelope(t, "/plants?sort=-price&limit=100")

	if len(env.Data) != 25 {
		t.Fatalf("len(data) = %d, want 25", len(env.Data))
	}
	if env.QueryInfo.SortBy != "price" || env.QueryInfo.SortDirection != "desc" {
		t.Fatalf("query_info sort wrong: %+v", env.QueryInfo)
	}
	prev := env.Data[0]["price"].(float64)
	for _, doc := range env.Data[1:] {
		cur := doc["price"].(float64)
		if cur >= prev {
			t.Fatalf("prices not strictly descending: %v then %v", prev, cur)
		}
		prev = cur
	}
}

func TestList_SortDisallowedFallsBack(t *testing.T) {
	env := getEnvelope(t, "/plants?sort=-secret")

	if env.QueryInfo.SortBy != "created_at" || env.QueryInfo.SortDirection != "desc" {
		t.Fatalf("disallowed sort must fall back to default field: %+v", env.QueryInfo)
	}
	if env.Total != 25 {
		t.Fatalf("total = %d, want 25", env.Total)
	}
}

func TestList_DateRange(t *testing.T) {
	env := getEnvelope(t, "/plants?date_from=2024-01-05&date_to=2024-01-10&limit=100")

	if env.Total != 6 {
		t.Fatalf("total = %d, want 6 (days 5..10 inclusive)", env.Total)
	}
	for _, doc := range env.Data {
		name := doc["name"].(string)
		if name != "fern-05" && name != "fern-06" && name != "fern-07" &&
			name != "fern-08" && name != "fern-09" && name != "fern-10" {
			t.Fatalf("unexpected doc in range: %q", name)
		}
	}
}

func TestList_DateInvalidIs400(t *testing.T) {
	if code := getJSON(t, "/plants?date_from=not-a-date", nil); code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
}

func TestList_StatusFilter(t *testing.T) {
	env := getEnvelope(t, "/plants?filter[status]=inactive&limit=100")
	if env.Total != 5 {
		t.Fatalf("inactive total = %d, want 5", env.Total)
	}
	for _, doc := range env.Data {
		if doc["status"] != "inactive" {
			t.Fatalf("doc leaked through status filter: %v", doc["status"])
		}
	}

	both := getEnvelope(t, "/plants?filter[status]=active,inactive&limit=100")
	if both.Total != 25 {
		t.Fatalf("comma list total = %d, want 25", both.Total)
	}
	if both.QueryInfo.FiltersApplied != 1 {
		t.Fatalf("filters_applied = %d, want 1", both.QueryInfo.FiltersApplied)
	}
}

func TestList_SubstringEscapesRegexMeta(t *testing.T) {
	env := getEnvelope(t, "/plants?filter[name]=a.b*c")
	if env.Total != 1 {
		t.Fatalf("total = %d, want exactly the literal match", env.Total)
	}
	if env.Data[0]["name"] != "a.b*c fern" {
		t.Fatalf("wrong doc matched: %v", env.Data[0]["name"])
	}

	// "a.b" must match only the literal dot, never "axbc"
	dot := getEnvelope(t, "/plants?filter[name]=a.b")
	if dot.Total != 1 || dot.Data[0]["name"] != "a.b*c fern" {
		t.Fatalf("dot must not act as a wildcard: total=%d", dot.Total)
	}
}

func TestList_SearchAcrossFields(t *testing.T) {
	env := getEnvelope(t, "/plants?search=orchid&limit=100")
	if env.Total != 3 {
		t.Fatalf("total = %d, want 3 (name + description hits)", env.Total)
	}
}

func TestList_UnknownFilterFieldDropped(t *testing.T) {
	env := getEnvelope(t, "/plants?filter[secret]=x")
	if env.Total != 25 {
		t.Fatalf("total = %d, want 25 (filter silently dropped)", env.Total)
	}
	if env.QueryInfo.FiltersApplied != 0 {
		t.Fatalf("filters_applied = %d, want 0", env.QueryInfo.FiltersApplied)
	}
}

func TestList_CategoryResolvesAndPopulates(t *testing.T) {
	env := getEnvelope(t, "/plants?category=suculentas&limit=100")
	if env.Total != 8 {
		t.Fatalf("total = %d, want 8", env.Total)
	}
	for _, doc := range env.Data {
		cat, ok := doc["category"].(map[string]any)
		if !ok {
			t.Fatalf("category not populated: %v", doc["category"])
		}
		if cat["name"] != "Suculentas" {
			t.Fatalf("wrong category populated: %v", cat["name"])
		}
	}
}

func TestList_CategoryDiacriticInsensitive(t *testing.T) {
	env := getEnvelope(t, "/plants?category=arvores&limit=100")
	if env.Total != 9 {
		t.Fatalf("total = %d, want 9 (Árvores matched without diacritics)", env.Total)
	}
}

func TestList_CategoryUnknownSkipsFilter(t *testing.T) {
	env := getEnvelope(t, "/plants?category=does-not-exist&limit=100")
	if env.Total != 25 {
		t.Fatalf("total = %d, want 25 (unknown category skipped)", env.Total)
	}
	if env.QueryInfo.FiltersApplied != 0 {
		t.Fatalf("filters_applied = %d, want 0", env.QueryInfo.FiltersApplied)
	}
}

func TestList_NavigationURLsPreserveParams(t *testing.T) {
	env := getEnvelope(t, "/plants?filter[status]=active&sort=-price&limit=5&page=2")

	for _, u := range []string{env.FirstPageURL, env.LastPageURL, *env.NextPageURL, *env.PrevPageURL} {
		if !strings.Contains(u, "filter%5Bstatus%5D=active") {
			t.Fatalf("filter param lost from %s", u)
		}
		if !strings.Contains(u, "sort=-price") || !strings.Contains(u, "limit=5") {
			t.Fatalf("sort/limit lost from %s", u)
		}
	}
}

func TestList_UnknownResourceIs404(t *testing.T) {
	if code := getJSON(t, "/rockets", nil); code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", code)
	}
}

func TestList_MethodNotAllowed(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, testBaseURL+"/plants", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}
