package apifootball

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aiprotips/tipsbot/internal/pkg/metrics"
	"github.com/aiprotips/tipsbot/internal/pkg/models"
)

// Client is an API-Football v3 client scoped to one reference bookmaker.
type Client struct {
	baseURL     string
	apiKey      string
	timezone    string
	bookmakerID int
	httpClient  *http.Client
}

// NewClient creates an API-Football client. All odds calls are restricted
// to the given bookmaker; timestamps come back in the given timezone.
func NewClient(baseURL, apiKey, timezone string, bookmakerID int, timeout time.Duration) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if timeout == 0 {
		timeout = 25 * time.Second
	}
	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		timezone:    timezone,
		bookmakerID: bookmakerID,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*envelope, error) {
	if params.Get("timezone") == "" {
		params.Set("timezone", c.timezone)
	}

	u := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-apisports-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	metrics.APIRequests.Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.APIErrors.Inc()
		return nil, fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.APIErrors.Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d from %s: %s", resp.StatusCode, path, string(body))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		metrics.APIErrors.Inc()
		return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return &env, nil
}

// getPaged walks the paging cursor and concatenates the raw response items.
func (c *Client) getPaged(ctx context.Context, path string, base url.Values) ([]json.RawMessage, error) {
	var out []json.RawMessage
	page := 1
	for {
		params := url.Values{}
		for k, vs := range base {
			for _, v := range vs {
				params.Add(k, v)
			}
		}
		params.Set("page", strconv.Itoa(page))

		env, err := c.get(ctx, path, params)
		if err != nil {
			return nil, err
		}

		var items []json.RawMessage
		if len(env.Response) > 0 {
			if err := json.Unmarshal(env.Response, &items); err != nil {
				return nil, fmt.Errorf("failed to decode %s page %d: %w", path, page, err)
			}
		}
		out = append(out, items...)

		cur, tot := env.Paging.Current, env.Paging.Total
		if cur == 0 {
			cur = page
		}
		if tot == 0 {
			tot = page
		}
		if cur >= tot {
			return out, nil
		}
		page++
	}
}

// EntriesByDate returns one entry per fixture of the date, with prices
// from the reference bookmaker reduced to the canonical market set.
// Falls back to fixture-by-fixture odds when the bulk odds endpoint is
// empty for the date.
func (c *Client) EntriesByDate(ctx context.Context, date string) ([]models.OddsEntry, error) {
	params := url.Values{}
	params.Set("date", date)
	params.Set("bookmaker", strconv.Itoa(c.bookmakerID))
	raw, err := c.getPaged(ctx, "/odds", params)
	if err != nil {
		return nil, fmt.Errorf("odds by date %s: %w", date, err)
	}

	fixtures, err := c.fixturesByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	index := make(map[int64]fixtureItem, len(fixtures))
	for _, fx := range fixtures {
		index[fx.Fixture.ID] = fx
	}

	var entries []models.OddsEntry
	for _, msg := range raw {
		var item oddsItem
		if err := json.Unmarshal(msg, &item); err != nil {
			continue
		}
		if len(item.Bookmakers) == 0 {
			continue
		}
		markets := parseMarketBlock(item.Bookmakers[0].Bets)
		if len(markets) == 0 {
			continue
		}
		fx, ok := index[item.Fixture.ID]
		if !ok {
			continue
		}
		entries = append(entries, entryFromFixture(fx, markets))
	}
	if len(entries) > 0 {
		return entries, nil
	}

	// Bulk odds empty for the date: ask per fixture instead.
	for _, fx := range fixtures {
		markets, err := c.MarketsForFixture(ctx, fx.Fixture.ID)
		if err != nil || len(markets) == 0 {
			continue
		}
		entries = append(entries, entryFromFixture(fx, markets))
	}
	return entries, nil
}

func entryFromFixture(fx fixtureItem, markets map[models.Market]float64) models.OddsEntry {
	kickoff, _ := time.Parse(time.RFC3339, fx.Fixture.Date)
	return models.OddsEntry{
		FixtureID: fx.Fixture.ID,
		Country:   fx.League.Country,
		League:    fx.League.Name,
		Home:      fx.Teams.Home.Name,
		Away:      fx.Teams.Away.Name,
		Kickoff:   kickoff,
		Markets:   markets,
	}
}

func (c *Client) fixturesByDate(ctx context.Context, date string) ([]fixtureItem, error) {
	params := url.Values{}
	params.Set("date", date)
	raw, err := c.getPaged(ctx, "/fixtures", params)
	if err != nil {
		return nil, fmt.Errorf("fixtures by date %s: %w", date, err)
	}
	out := make([]fixtureItem, 0, len(raw))
	for _, msg := range raw {
		var fx fixtureItem
		if err := json.Unmarshal(msg, &fx); err != nil {
			continue
		}
		out = append(out, fx)
	}
	return out, nil
}

// FixturesByDate returns lightweight state for every fixture of a date.
func (c *Client) FixturesByDate(ctx context.Context, date string) ([]models.FixtureState, error) {
	fixtures, err := c.fixturesByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make([]models.FixtureState, 0, len(fixtures))
	for _, fx := range fixtures {
		out = append(out, stateFromFixture(fx))
	}
	return out, nil
}

// MarketsForFixture returns the reference bookmaker's canonical markets
// for one fixture.
func (c *Client) MarketsForFixture(ctx context.Context, fixtureID int64) (map[models.Market]float64, error) {
	params := url.Values{}
	params.Set("fixture", strconv.FormatInt(fixtureID, 10))
	params.Set("bookmaker", strconv.Itoa(c.bookmakerID))
	env, err := c.get(ctx, "/odds", params)
	if err != nil {
		return nil, fmt.Errorf("odds for fixture %d: %w", fixtureID, err)
	}
	var items []oddsItem
	if len(env.Response) > 0 {
		if err := json.Unmarshal(env.Response, &items); err != nil {
			return nil, fmt.Errorf("failed to decode odds for fixture %d: %w", fixtureID, err)
		}
	}
	for _, item := range items {
		if len(item.Bookmakers) > 0 {
			return parseMarketBlock(item.Bookmakers[0].Bets), nil
		}
	}
	return nil, nil
}

// FixtureState fetches the current state of one fixture.
func (c *Client) FixtureState(ctx context.Context, fixtureID int64) (models.FixtureState, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(fixtureID, 10))
	env, err := c.get(ctx, "/fixtures", params)
	if err != nil {
		return models.FixtureState{}, fmt.Errorf("fixture %d: %w", fixtureID, err)
	}
	var items []fixtureItem
	if len(env.Response) > 0 {
		if err := json.Unmarshal(env.Response, &items); err != nil {
			return models.FixtureState{}, fmt.Errorf("failed to decode fixture %d: %w", fixtureID, err)
		}
	}
	if len(items) == 0 {
		return models.FixtureState{}, fmt.Errorf("fixture %d not found", fixtureID)
	}
	return stateFromFixture(items[0]), nil
}

// LiveFixtures returns every fixture currently in play.
func (c *Client) LiveFixtures(ctx context.Context) ([]models.FixtureState, error) {
	params := url.Values{}
	params.Set("live", "all")
	env, err := c.get(ctx, "/fixtures", params)
	if err != nil {
		return nil, fmt.Errorf("live fixtures: %w", err)
	}
	var items []fixtureItem
	if len(env.Response) > 0 {
		if err := json.Unmarshal(env.Response, &items); err != nil {
			return nil, fmt.Errorf("failed to decode live fixtures: %w", err)
		}
	}
	out := make([]models.FixtureState, 0, len(items))
	for _, fx := range items {
		out = append(out, stateFromFixture(fx))
	}
	return out, nil
}

func stateFromFixture(fx fixtureItem) models.FixtureState {
	st := models.FixtureState{
		FixtureID: fx.Fixture.ID,
		Status:    fx.Fixture.Status.Short,
		Home:      fx.Teams.Home.Name,
		Away:      fx.Teams.Away.Name,
	}
	if fx.Fixture.Status.Elapsed != nil {
		st.Minute = *fx.Fixture.Status.Elapsed
	}
	if fx.Goals.Home != nil {
		st.GoalsHome = *fx.Goals.Home
	}
	if fx.Goals.Away != nil {
		st.GoalsAway = *fx.Goals.Away
	}
	return st
}

// FixtureMeta returns team and competition ids for a fixture.
func (c *Client) FixtureMeta(ctx context.Context, fixtureID int64) (models.FixtureMeta, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(fixtureID, 10))
	env, err := c.get(ctx, "/fixtures", params)
	if err != nil {
		return models.FixtureMeta{}, fmt.Errorf("fixture meta %d: %w", fixtureID, err)
	}
	var items []fixtureItem
	if len(env.Response) > 0 {
		if err := json.Unmarshal(env.Response, &items); err != nil {
			return models.FixtureMeta{}, fmt.Errorf("failed to decode fixture meta %d: %w", fixtureID, err)
		}
	}
	if len(items) == 0 {
		return models.FixtureMeta{}, fmt.Errorf("fixture %d not found", fixtureID)
	}
	fx := items[0]
	return models.FixtureMeta{
		FixtureID:  fx.Fixture.ID,
		LeagueID:   fx.League.ID,
		Season:     fx.League.Season,
		HomeTeamID: fx.Teams.Home.ID,
		AwayTeamID: fx.Teams.Away.ID,
	}, nil
}

// TeamLastResults returns a team's most recent finished matches.
func (c *Client) TeamLastResults(ctx context.Context, teamID int64, last int) ([]models.FinishedMatch, error) {
	params := url.Values{}
	params.Set("team", strconv.FormatInt(teamID, 10))
	params.Set("last", strconv.Itoa(last))
	env, err := c.get(ctx, "/fixtures", params)
	if err != nil {
		return nil, fmt.Errorf("last results for team %d: %w", teamID, err)
	}
	var items []fixtureItem
	if len(env.Response) > 0 {
		if err := json.Unmarshal(env.Response, &items); err != nil {
			return nil, fmt.Errorf("failed to decode last results for team %d: %w", teamID, err)
		}
	}
	var out []models.FinishedMatch
	for _, fx := range items {
		st := stateFromFixture(fx)
		if !st.Finished() {
			continue
		}
		out = append(out, models.FinishedMatch{
			HomeTeamID: fx.Teams.Home.ID,
			AwayTeamID: fx.Teams.Away.ID,
			GoalsHome:  st.GoalsHome,
			GoalsAway:  st.GoalsAway,
		})
	}
	return out, nil
}

// HasRedCard reports whether a red card was shown in the fixture so far.
func (c *Client) HasRedCard(ctx context.Context, fixtureID int64) (bool, error) {
	params := url.Values{}
	params.Set("fixture", strconv.FormatInt(fixtureID, 10))
	env, err := c.get(ctx, "/fixtures/events", params)
	if err != nil {
		return false, fmt.Errorf("events for fixture %d: %w", fixtureID, err)
	}
	var items []eventItem
	if len(env.Response) > 0 {
		if err := json.Unmarshal(env.Response, &items); err != nil {
			return false, fmt.Errorf("failed to decode events for fixture %d: %w", fixtureID, err)
		}
	}
	for _, ev := range items {
		if strings.EqualFold(ev.Type, "card") && strings.Contains(strings.ToLower(ev.Detail), "red") {
			return true, nil
		}
	}
	return false, nil
}
