package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cuerpofit_backend/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const restCountriesSample = `[
	{"name":{"common":"Chile"},"cca2":"CL","idd":{"root":"+5","suffixes":["6"]}},
	{"name":{"common":"Argentina"},"cca2":"AR","idd":{"root":"+5","suffixes":["4"]}},
	{"name":{"common":"Kiribati"},"cca2":"KI","idd":{"root":"+6","suffixes":["86"]}},
	{"name":{"common":"Dup"},"cca2":"DP","idd":{"root":"+5","suffixes":["4"]}},
	{"name":{"common":""},"cca2":"XX","idd":{"root":"","suffixes":[]}}
]`

func TestCountriesNormalizedAndSorted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(restCountriesSample))
	}))
	defer srv.Close()

	svc := NewCountryService(config.CountriesConfig{Endpoint: srv.URL}, nil)
	countries := svc.Countries(context.Background())
	require.Len(t, countries, 4)
	assert.Equal(t, "Argentina", countries[0].Label)
	assert.Equal(t, "Chile", countries[1].Label)
}

func TestCallingCodesDeduplicated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(restCountriesSample))
	}))
	defer srv.Close()

	svc := NewCountryService(config.CountriesConfig{Endpoint: srv.URL}, nil)
	codes := svc.CallingCodes(context.Background())

	values := make(map[string]int)
	for _, code := range codes {
		values[code.Value]++
	}
	// "+54" appears for both Argentina and Dup but is emitted once.
	assert.Equal(t, 1, values["+54"])
	assert.Equal(t, 1, values["+56"])
	assert.Equal(t, 1, values["+686"])
}

func TestCountriesFallbackOnUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := NewCountryService(config.CountriesConfig{Endpoint: srv.URL}, nil)
	ctx := context.Background()

	countries := svc.Countries(ctx)
	require.NotEmpty(t, countries)
	assert.Equal(t, "Argentina", countries[0].Label)
	assert.Equal(t, "Otros", countries[len(countries)-1].Label)

	codes := svc.CallingCodes(ctx)
	require.NotEmpty(t, codes)
	assert.Equal(t, "+54", codes[0].Value)
}

func TestCountriesFallbackOnEmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	svc := NewCountryService(config.CountriesConfig{Endpoint: srv.URL}, nil)
	countries := svc.Countries(context.Background())
	assert.Equal(t, len(fallbackCountries), len(countries))
}

func TestCountriesServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(restCountriesSample))
	}))
	defer srv.Close()

	svc := NewCountryService(config.CountriesConfig{Endpoint: srv.URL}, rdb)
	ctx := context.Background()

	first := svc.Countries(ctx)
	second := svc.Countries(ctx)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// Cache expiry triggers a refetch.
	mr.FastForward(25 * time.Hour)
	svc.Countries(ctx)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
