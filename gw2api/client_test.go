package gw2api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zweiadr/gw2advisor/cache"
	"github.com/zweiadr/gw2advisor/config"
	"go.uber.org/zap"
)

const testKey = "0123456789ABCDEF-FAKE-KEY"

func testClient(t *testing.T, srv *httptest.Server, c cache.Cache) *Client {
	t.Helper()
	cfg := config.GW2Config{
		BaseURL:       srv.URL,
		SchemaVersion: "2022-03-09T02:00:00.000Z",
		Timeout:       5 * time.Second,
		RetryAttempts: 3,
		RetryWait:     time.Millisecond,
		RateLimitRPS:  1000,
		RateBurst:     1000,
		BatchSize:     2,
		CacheTTL:      time.Minute,
	}
	return NewClient(cfg, testKey, c, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestValidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/tokeninfo", r.URL.Path)
		require.Equal(t, testKey, r.URL.Query().Get("access_token"))
		writeJSON(w, map[string]interface{}{
			"id":          "token-id",
			"name":        "advisor",
			"permissions": []string{"account", "characters", "inventories", "wallet"},
		})
	}))
	defer srv.Close()

	require.NoError(t, testClient(t, srv, nil).Validate(context.Background()))
}

func TestValidateMissingPermission(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"permissions": []string{"account", "characters"},
		})
	}))
	defer srv.Close()

	err := testClient(t, srv, nil).Validate(context.Background())
	var mpe *MissingPermissionError
	require.ErrorAs(t, err, &mpe)
	assert.Equal(t, "inventories", mpe.Permission)
	assert.NotContains(t, err.Error(), testKey)
}

func TestValidateRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := testClient(t, srv, nil).Validate(context.Background())
	var ite *InvalidTokenError
	require.ErrorAs(t, err, &ite)
	assert.NotContains(t, err.Error(), testKey)
}

func TestRetryThenSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]string{"name": "alice.1234"})
	}))
	defer srv.Close()

	name, err := testClient(t, srv, nil).AccountName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice.1234", name)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetryExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	_, err := testClient(t, srv, nil).AccountName(context.Background())
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAccountNameFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{})
	}))
	defer srv.Close()

	name, err := testClient(t, srv, nil).AccountName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "?", name)
}

func TestCharacterInventoryEscapesName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/characters/Sad%20Mesmer/inventory", r.URL.EscapedPath())
		writeJSON(w, map[string]interface{}{"bags": []interface{}{nil}})
	}))
	defer srv.Close()

	inv, err := testClient(t, srv, nil).CharacterInventory(context.Background(), "Sad Mesmer")
	require.NoError(t, err)
	require.Len(t, inv.Bags, 1)
	assert.Nil(t, inv.Bags[0])
}

func TestItemInfoBatching(t *testing.T) {
	var batches []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/items", r.URL.Path)
		ids := r.URL.Query().Get("ids")
		batches = append(batches, ids)
		var page []ItemInfo
		for _, part := range strings.Split(ids, ",") {
			var id int
			fmt.Sscanf(part, "%d", &id)
			page = append(page, ItemInfo{ID: id})
		}
		writeJSON(w, page)
	}))
	defer srv.Close()

	infos, err := testClient(t, srv, nil).ItemInfo(context.Background(), []int{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Len(t, infos, 5)
	assert.Equal(t, []string{"1,2", "3,4", "5"}, batches)
}

func TestItemPricesNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	prices, err := testClient(t, srv, nil).ItemPrices(context.Background(), []int{1, 2})
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestItemPriceNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	price, err := testClient(t, srv, nil).ItemPrice(context.Background(), 19721)
	require.NoError(t, err)
	assert.Zero(t, price.Sells.UnitPrice)
}

func TestRecipesTwoPhase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/recipes", r.URL.Path)
		ids := r.URL.Query().Get("ids")
		if ids == "" {
			writeJSON(w, []int{10, 11, 12})
			return
		}
		require.NotEmpty(t, r.URL.Query().Get("v"))
		var page []Recipe
		for _, part := range strings.Split(ids, ",") {
			var id int
			fmt.Sscanf(part, "%d", &id)
			page = append(page, Recipe{ID: id, Type: "Refinement"})
		}
		writeJSON(w, page)
	}))
	defer srv.Close()

	recipes, err := testClient(t, srv, nil).Recipes(context.Background())
	require.NoError(t, err)
	require.Len(t, recipes, 3)
	assert.Equal(t, 10, recipes[0].ID)
}

func TestSessionCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, map[string]string{"name": "alice.1234"})
	}))
	defer srv.Close()

	c, err := cache.NewCache(cache.Config{})
	require.NoError(t, err)

	client := testClient(t, srv, c)
	for i := 0; i < 3; i++ {
		name, err := client.AccountName(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "alice.1234", name)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []string{})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(t, srv, nil).Characters(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(t, srv, nil).Characters(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestRedactKey(t *testing.T) {
	assert.Equal(t, "01234567…", redactKey(testKey))
	assert.Equal(t, "***", redactKey("short"))
}
