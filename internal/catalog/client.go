package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/ttsmontage/internal/models"
	"golang.org/x/time/rate"
)

// Rarities are the booster tiers queried for every set, in report order
var Rarities = []string{"common", "uncommon", "rare", "mythic"}

// maxPages bounds how many has_more pages one tier may follow
const maxPages = 20

// Client queries a Scryfall-compatible card catalog
type Client struct {
	BaseURL    string
	UserAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit paces requests to perSecond; zero or less disables pacing
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.UserAgent = ua }
}

// NewClient creates a new catalog client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: "ttsmontage",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TierResult records how the query for one rarity tier went
type TierResult struct {
	Rarity  string         `yaml:"rarity"`
	Outcome models.Outcome `yaml:"outcome"`
	Status  int            `yaml:"status,omitempty"`
	Cards   int            `yaml:"cards"`
	Dropped int            `yaml:"dropped,omitempty"` // entries without a large image
	Err     error          `yaml:"-"`
}

// SetCards is the result of querying every tier of a set
type SetCards struct {
	SetCode string
	Groups  map[string][]models.CardRecord
	Tiers   []TierResult
}

// Skipped counts the tiers that are absent from Groups
func (s *SetCards) Skipped() int {
	n := 0
	for _, t := range s.Tiers {
		if t.Outcome != models.OutcomeSuccess {
			n++
		}
	}
	return n
}

// GroupNames returns the tiers present in Groups in tier order
func (s *SetCards) GroupNames() []string {
	names := make([]string, 0, len(s.Groups))
	for _, t := range s.Tiers {
		if _, ok := s.Groups[t.Rarity]; ok {
			names = append(names, t.Rarity)
		}
	}
	return names
}

// searchResponse is the subset of the catalog's list object we use
type searchResponse struct {
	Data     []cardObject `json:"data"`
	HasMore  bool         `json:"has_more"`
	NextPage string       `json:"next_page"`
}

type cardObject struct {
	Name      string            `json:"name"`
	Rarity    string            `json:"rarity"`
	ImageURIs map[string]string `json:"image_uris"`
	CardFaces []struct {
		ImageURIs map[string]string `json:"image_uris"`
	} `json:"card_faces"`
}

// largeImage returns the large image of the card, falling back to the first
// face for double-faced cards
func (c cardObject) largeImage() string {
	if u := c.ImageURIs["large"]; u != "" {
		return u
	}
	for _, face := range c.CardFaces {
		if u := face.ImageURIs["large"]; u != "" {
			return u
		}
	}
	return ""
}

// statusError marks a non-success catalog response
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("catalog returned status %d", e.status)
}

// FetchCardsBySet queries every rarity tier of setCode for booster cards.
// Tiers that respond with a non-success status or fail to decode are left out
// of the result and reported in Tiers. Only context cancellation is returned
// as an error.
func (c *Client) FetchCardsBySet(ctx context.Context, setCode string) (*SetCards, error) {
	result := &SetCards{
		SetCode: setCode,
		Groups:  make(map[string][]models.CardRecord),
		Tiers:   make([]TierResult, 0, len(Rarities)),
	}

	for _, rarity := range Rarities {
		records, tier := c.fetchTier(ctx, setCode, rarity)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch tier.Outcome {
		case models.OutcomeSuccess:
			result.Groups[rarity] = records
			slog.Info("Fetched rarity tier", "set", setCode, "rarity", rarity, "cards", len(records))
		case models.OutcomeSkipped:
			slog.Warn("Catalog has no data for rarity tier", "set", setCode, "rarity", rarity, "status", tier.Status)
		default:
			slog.Warn("Failed to fetch rarity tier", "set", setCode, "rarity", rarity, "error", tier.Err)
		}
		result.Tiers = append(result.Tiers, tier)
	}

	return result, nil
}

func (c *Client) fetchTier(ctx context.Context, setCode, rarity string) ([]models.CardRecord, TierResult) {
	tier := TierResult{Rarity: rarity}

	query := url.Values{}
	query.Set("q", fmt.Sprintf("set:%s is:booster r:%s", setCode, rarity))
	pageURL := fmt.Sprintf("%s/cards/search?%s", c.BaseURL, query.Encode())

	var records []models.CardRecord
	for page := 1; pageURL != ""; page++ {
		if page > maxPages {
			tier.Outcome = models.OutcomeFailed
			tier.Err = fmt.Errorf("rarity %s exceeded %d result pages", rarity, maxPages)
			return nil, tier
		}

		resp, err := c.search(ctx, pageURL)
		if err != nil {
			var se *statusError
			switch {
			case errors.As(err, &se) && page == 1:
				tier.Outcome = models.OutcomeSkipped
				tier.Status = se.status
			case errors.As(err, &se):
				// the tier exists but is incomplete
				tier.Outcome = models.OutcomeFailed
				tier.Status = se.status
				tier.Err = fmt.Errorf("failed to fetch page %d of rarity %s: %w", page, rarity, err)
			default:
				tier.Outcome = models.OutcomeFailed
				tier.Err = err
			}
			return nil, tier
		}

		for _, card := range resp.Data {
			image := card.largeImage()
			if image == "" {
				slog.Debug("Card has no large image", "set", setCode, "name", card.Name)
				tier.Dropped++
				continue
			}
			records = append(records, models.CardRecord{
				Name:     card.Name,
				Rarity:   rarity,
				SetCode:  setCode,
				ImageURL: image,
			})
		}

		pageURL = ""
		if resp.HasMore {
			pageURL = resp.NextPage
		}
	}

	tier.Outcome = models.OutcomeSuccess
	tier.Status = http.StatusOK
	tier.Cards = len(records)
	return records, tier
}

// search performs one page request against the search endpoint
func (c *Client) search(ctx context.Context, pageURL string) (*searchResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{status: resp.StatusCode}
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	return &result, nil
}
