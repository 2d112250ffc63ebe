package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/lehigh-university-libraries/ttsmontage/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog answers search queries from a per-rarity table of JSON bodies;
// rarities missing from the table answer 404
type fakeCatalog struct {
	mu      sync.Mutex
	bodies  map[string]string
	queries []string
	agents  []string
}

func (f *fakeCatalog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.queries = append(f.queries, r.URL.Query().Get("q"))
	f.agents = append(f.agents, r.Header.Get("User-Agent"))
	f.mu.Unlock()

	key := r.URL.Query().Get("page")
	if key == "" {
		q := r.URL.Query().Get("q")
		key = q[strings.LastIndex(q, "r:")+2:]
	}

	body, ok := f.bodies[key]
	if !ok {
		http.Error(w, `{"object":"error","code":"not_found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func newTestClient(t *testing.T, f *fakeCatalog) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", WithRateLimit(0), WithUserAgent("ttsmontage-test"))
}

func TestFetchCardsBySet(t *testing.T) {
	f := &fakeCatalog{bodies: map[string]string{
		"common": `{"data":[
			{"name":"Tamiyo, Inquisitive Sage","image_uris":{"large":"https://img/tamiyo.jpg"}},
			{"name":"Bloodthirsty Adversary","image_uris":{"large":"https://img/adversary.jpg","normal":"x"}}
		]}`,
		"rare": `{"data":[
			{"name":"Delver of Secrets // Insectile Aberration","card_faces":[
				{"image_uris":{"large":"https://img/delver-front.jpg"}},
				{"image_uris":{"large":"https://img/delver-back.jpg"}}
			]},
			{"name":"No Art","image_uris":{"small":"https://img/small.jpg"}}
		]}`,
	}}
	client := newTestClient(t, f)

	set, err := client.FetchCardsBySet(context.Background(), "mid")
	require.NoError(t, err)

	assert.Equal(t, []string{"common", "rare"}, set.GroupNames())
	assert.NotContains(t, set.Groups, "uncommon")
	assert.NotContains(t, set.Groups, "mythic")
	assert.Equal(t, 2, set.Skipped())

	require.Len(t, set.Groups["common"], 2)
	assert.Equal(t, models.CardRecord{
		Name: "Tamiyo, Inquisitive Sage", Rarity: "common", SetCode: "mid", ImageURL: "https://img/tamiyo.jpg",
	}, set.Groups["common"][0])

	require.Len(t, set.Groups["rare"], 1)
	assert.Equal(t, "https://img/delver-front.jpg", set.Groups["rare"][0].ImageURL)

	require.Len(t, set.Tiers, 4)
	assert.Equal(t, models.OutcomeSuccess, set.Tiers[0].Outcome)
	assert.Equal(t, models.OutcomeSkipped, set.Tiers[1].Outcome)
	assert.Equal(t, http.StatusNotFound, set.Tiers[1].Status)
	assert.Equal(t, 1, set.Tiers[2].Dropped)

	assert.Equal(t, []string{
		"set:mid is:booster r:common",
		"set:mid is:booster r:uncommon",
		"set:mid is:booster r:rare",
		"set:mid is:booster r:mythic",
	}, f.queries)
	assert.Equal(t, "ttsmontage-test", f.agents[0])
}

func TestFetchCardsBySetFollowsPages(t *testing.T) {
	f := &fakeCatalog{bodies: map[string]string{}}
	client := newTestClient(t, f)

	f.bodies["common"] = fmt.Sprintf(`{"data":[{"name":"A","image_uris":{"large":"a"}}],"has_more":true,"next_page":"%s/cards/search?page=2"}`, client.BaseURL)
	f.bodies["2"] = `{"data":[{"name":"B","image_uris":{"large":"b"}}],"has_more":false}`

	set, err := client.FetchCardsBySet(context.Background(), "dsk")
	require.NoError(t, err)

	require.Len(t, set.Groups["common"], 2)
	assert.Equal(t, "B", set.Groups["common"][1].Name)
	assert.Equal(t, 2, set.Tiers[0].Cards)
}

func TestFetchCardsBySetFailingFollowUpPageIsFailed(t *testing.T) {
	f := &fakeCatalog{bodies: map[string]string{}}
	client := newTestClient(t, f)

	// page 2 is not in the table, so the catalog answers 404 for it
	f.bodies["common"] = fmt.Sprintf(`{"data":[{"name":"A","image_uris":{"large":"a"}}],"has_more":true,"next_page":"%s/cards/search?page=2"}`, client.BaseURL)

	set, err := client.FetchCardsBySet(context.Background(), "dsk")
	require.NoError(t, err)

	assert.NotContains(t, set.Groups, "common")
	tier := set.Tiers[0]
	assert.Equal(t, "common", tier.Rarity)
	assert.Equal(t, models.OutcomeFailed, tier.Outcome)
	assert.Equal(t, http.StatusNotFound, tier.Status)
	require.Error(t, tier.Err)
	assert.Contains(t, tier.Err.Error(), "page 2")

	// tiers whose first page is absent are still skipped
	assert.Equal(t, models.OutcomeSkipped, set.Tiers[1].Outcome)
}

func TestFetchCardsBySetMalformedTierIsFailed(t *testing.T) {
	f := &fakeCatalog{bodies: map[string]string{
		"common": `{"data":[`,
		"mythic": `{"data":[]}`,
	}}
	client := newTestClient(t, f)

	set, err := client.FetchCardsBySet(context.Background(), "dsk")
	require.NoError(t, err)

	assert.Equal(t, []string{"mythic"}, set.GroupNames())
	assert.Equal(t, models.OutcomeFailed, set.Tiers[0].Outcome)
	assert.Error(t, set.Tiers[0].Err)
	assert.Empty(t, set.Groups["mythic"])
}

func TestFetchCardsBySetAllTiersMissing(t *testing.T) {
	client := newTestClient(t, &fakeCatalog{bodies: map[string]string{}})

	set, err := client.FetchCardsBySet(context.Background(), "zzz")
	require.NoError(t, err)

	assert.Empty(t, set.Groups)
	assert.Equal(t, len(Rarities), set.Skipped())
}

func TestFetchCardsBySetCancelled(t *testing.T) {
	client := newTestClient(t, &fakeCatalog{bodies: map[string]string{}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchCardsBySet(ctx, "dsk")
	assert.ErrorIs(t, err, context.Canceled)
}
