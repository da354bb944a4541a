package gw2api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zweiadr/gw2advisor/cache"
	"github.com/zweiadr/gw2advisor/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// timeout-ish statuses the API emits under load; these are retried.
func isRetryableStatus(status int) bool {
	return status == http.StatusBadGateway ||
		status == http.StatusGatewayTimeout ||
		status == http.StatusRequestTimeout
}

// Client talks to the GW2 HTTP API on behalf of one account key.
//
// Responses are memoized in the session cache handed in by the caller, so a
// reload with a fresh cache sees fresh data while repeated lookups inside
// one load stay cheap. All methods honor context cancellation, which is how
// a user abort propagates.
type Client struct {
	key     string
	keyHash string

	base     string
	schema   string
	http     *http.Client
	limiter  *rate.Limiter
	cache    cache.Cache
	cacheTTL time.Duration

	retryAttempts int
	retryWait     time.Duration
	batchSize     int

	logger *zap.Logger
}

// NewClient creates a Client. The cache should be scoped to one load
// session; pass a fresh one to force refetching.
func NewClient(cfg config.GW2Config, key string, c cache.Cache, logger *zap.Logger) *Client {
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 200
	}
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 10
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return &Client{
		key:           key,
		keyHash:       fmt.Sprintf("%08x", h.Sum32()),
		base:          strings.TrimRight(cfg.BaseURL, "/"),
		schema:        cfg.SchemaVersion,
		http:          &http.Client{Timeout: cfg.Timeout},
		limiter:       rate.NewLimiter(rate.Limit(rps), burst),
		cache:         c,
		cacheTTL:      cfg.CacheTTL,
		retryAttempts: attempts,
		retryWait:     cfg.RetryWait,
		batchSize:     batch,
		logger:        logger,
	}
}

// Key returns the API key this client was created with.
func (c *Client) Key() string { return c.key }

// Validate checks the token and its permissions. It must be called before
// any account data is fetched.
func (c *Client) Validate(ctx context.Context) error {
	var ti tokenInfo
	if err := c.get(ctx, "/v2/tokeninfo", nil, true, &ti); err != nil {
		var ite *InvalidTokenError
		if errors.As(err, &ite) || errors.Is(err, ErrTimeout) {
			return err
		}
		return &InvalidTokenError{Key: c.key}
	}
	if len(ti.Permissions) == 0 {
		return &InvalidTokenError{Key: c.key}
	}
	for _, required := range RequiredPermissions {
		found := false
		for _, p := range ti.Permissions {
			if p == required {
				found = true
				break
			}
		}
		if !found {
			return &MissingPermissionError{Permission: required, Key: c.key}
		}
	}
	return nil
}

// AccountName returns the display name of the account.
func (c *Client) AccountName(ctx context.Context) (string, error) {
	var acct accountInfo
	if err := c.get(ctx, "/v2/account", nil, true, &acct); err != nil {
		return "", err
	}
	if acct.Name == "" {
		return "?", nil
	}
	return acct.Name, nil
}

// Characters returns the character names of the account.
func (c *Client) Characters(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.get(ctx, "/v2/characters", nil, true, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// CharacterInventory returns the bag contents of one character.
func (c *Client) CharacterInventory(ctx context.Context, name string) (*CharacterInventory, error) {
	var inv CharacterInventory
	path := "/v2/characters/" + url.PathEscape(name) + "/inventory"
	if err := c.get(ctx, path, nil, true, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// MaterialStorage returns every material storage entry, including zero counts.
func (c *Client) MaterialStorage(ctx context.Context) ([]ItemStack, error) {
	var materials []ItemStack
	if err := c.get(ctx, "/v2/account/materials", nil, true, &materials); err != nil {
		return nil, err
	}
	return materials, nil
}

// Bank returns the account bank; empty slots are nil.
func (c *Client) Bank(ctx context.Context) ([]*ItemStack, error) {
	var slots []*ItemStack
	if err := c.get(ctx, "/v2/account/bank", nil, true, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// SharedSlots returns the shared inventory slots; empty slots are nil.
func (c *Client) SharedSlots(ctx context.Context) ([]*ItemStack, error) {
	var slots []*ItemStack
	if err := c.get(ctx, "/v2/account/inventory", nil, true, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// ItemInfo fetches static metadata for the given ids, batched. Ids the API
// does not know are simply absent from the result.
func (c *Client) ItemInfo(ctx context.Context, ids []int) ([]ItemInfo, error) {
	infos := make([]ItemInfo, 0, len(ids))
	for _, chunk := range batches(ids, c.batchSize) {
		q := url.Values{"ids": {joinIDs(chunk)}}
		var page []ItemInfo
		if err := c.get(ctx, "/v2/items", q, false, &page); err != nil {
			return nil, err
		}
		infos = append(infos, page...)
	}
	return infos, nil
}

// ItemPrices fetches trading post prices for the given ids, batched.
// Non-tradeable ids are absent from the result.
func (c *Client) ItemPrices(ctx context.Context, ids []int) ([]Price, error) {
	prices := make([]Price, 0, len(ids))
	for _, chunk := range batches(ids, c.batchSize) {
		q := url.Values{"ids": {joinIDs(chunk)}}
		var page []Price
		if err := c.get(ctx, "/v2/commerce/prices", q, false, &page); err != nil {
			return nil, err
		}
		prices = append(prices, page...)
	}
	return prices, nil
}

// ItemPrice fetches the trading post price of one item.
func (c *Client) ItemPrice(ctx context.Context, id int) (*Price, error) {
	var price Price
	path := "/v2/commerce/prices/" + strconv.Itoa(id)
	if err := c.get(ctx, path, nil, false, &price); err != nil {
		return nil, err
	}
	return &price, nil
}

// Recipes fetches the full recipe list: first the id index, then each page
// of recipe details under the pinned schema version.
func (c *Client) Recipes(ctx context.Context) ([]Recipe, error) {
	var ids []int
	if err := c.get(ctx, "/v2/recipes", nil, false, &ids); err != nil {
		return nil, err
	}
	recipes := make([]Recipe, 0, len(ids))
	for _, chunk := range batches(ids, c.batchSize) {
		q := url.Values{"v": {c.schema}, "ids": {joinIDs(chunk)}}
		var page []Recipe
		if err := c.get(ctx, "/v2/recipes", q, false, &page); err != nil {
			return nil, err
		}
		recipes = append(recipes, page...)
	}
	return recipes, nil
}

// get performs one API call with rate limiting, bounded retry on gateway
// timeouts, and session-cache memoization of the raw body.
func (c *Client) get(ctx context.Context, path string, query url.Values, authed bool, out interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	cacheKey := "gw2:" + c.keyHash + ":" + path + "?" + query.Encode()
	if c.cache != nil {
		if body, err := c.cache.Get(ctx, cacheKey); err == nil {
			return json.Unmarshal([]byte(body), out)
		}
	}

	if authed {
		query.Set("access_token", c.key)
	}
	reqURL := c.base + path
	if enc := query.Encode(); enc != "" {
		reqURL += "?" + enc
	}

	body, err := c.fetch(ctx, reqURL, path)
	if err != nil {
		return err
	}
	if c.cache != nil {
		_ = c.cache.Set(ctx, cacheKey, string(body), c.cacheTTL)
	}
	return json.Unmarshal(body, out)
}

func (c *Client) fetch(ctx context.Context, reqURL, path string) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case isRetryableStatus(resp.StatusCode):
			c.logger.Warn("timeout calling api",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt))
			if attempt >= c.retryAttempts {
				return nil, ErrTimeout
			}
			select {
			case <-time.After(c.retryWait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, &InvalidTokenError{Key: c.key}
		case resp.StatusCode == http.StatusNotFound:
			// Bulk endpoints 404 when none of the requested ids exist.
			// Treat as an empty result, the caller degrades to no data.
			return []byte("null"), nil
		case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent:
			return nil, fmt.Errorf("gw2api: %s returned status %d", path, resp.StatusCode)
		}
		if readErr != nil {
			return nil, readErr
		}
		return body, nil
	}
}

func batches(ids []int, size int) [][]int {
	if len(ids) == 0 {
		return nil
	}
	out := make([][]int, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
