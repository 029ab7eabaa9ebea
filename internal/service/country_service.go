package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"cuerpofit_backend/internal/config"
	"cuerpofit_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SelectOption is one entry of the country / calling-code pickers.
type SelectOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

var fallbackCountries = []string{
	"Argentina", "Bolivia", "Brasil", "Chile", "Colombia", "Costa Rica",
	"Cuba", "Ecuador", "El Salvador", "Guatemala", "Honduras", "México",
	"Nicaragua", "Panamá", "Paraguay", "Perú", "Puerto Rico",
	"República Dominicana", "Uruguay", "Venezuela", "España", "Otros",
}

var fallbackCallingCodes = []SelectOption{
	{Label: "+54 (Argentina)", Value: "+54"},
	{Label: "+591 (Bolivia)", Value: "+591"},
	{Label: "+55 (Brasil)", Value: "+55"},
	{Label: "+56 (Chile)", Value: "+56"},
	{Label: "+57 (Colombia)", Value: "+57"},
	{Label: "+506 (Costa Rica)", Value: "+506"},
	{Label: "+53 (Cuba)", Value: "+53"},
	{Label: "+593 (Ecuador)", Value: "+593"},
	{Label: "+503 (El Salvador)", Value: "+503"},
	{Label: "+502 (Guatemala)", Value: "+502"},
	{Label: "+504 (Honduras)", Value: "+504"},
	{Label: "+52 (México)", Value: "+52"},
	{Label: "+505 (Nicaragua)", Value: "+505"},
	{Label: "+507 (Panamá)", Value: "+507"},
	{Label: "+595 (Paraguay)", Value: "+595"},
	{Label: "+51 (Perú)", Value: "+51"},
	{Label: "+1787 (Puerto Rico)", Value: "+1787"},
	{Label: "+1809 (República Dominicana)", Value: "+1809"},
	{Label: "+598 (Uruguay)", Value: "+598"},
	{Label: "+58 (Venezuela)", Value: "+58"},
	{Label: "+34 (España)", Value: "+34"},
	{Label: "Otros", Value: "Otros"},
}

const (
	countriesCacheKey    = "countries:v1"
	callingCodesCacheKey = "callingCodes:v1"
)

// CountryService serves the country and calling-code option lists with
// a read-through Redis cache over the REST Countries API. Any upstream
// or cache failure degrades to the static Latin-America list.
type CountryService struct {
	cfg    config.CountriesConfig
	client *http.Client
	rdb    *redis.Client
}

func NewCountryService(cfg config.CountriesConfig, rdb *redis.Client) *CountryService {
	return &CountryService{
		cfg:    cfg,
		client: &http.Client{Timeout: 20 * time.Second},
		rdb:    rdb,
	}
}

func (s *CountryService) Countries(ctx context.Context) []SelectOption {
	countries, _ := s.load(ctx)
	return countries
}

func (s *CountryService) CallingCodes(ctx context.Context) []SelectOption {
	_, codes := s.load(ctx)
	return codes
}

func (s *CountryService) load(ctx context.Context) ([]SelectOption, []SelectOption) {
	countries := s.cached(ctx, countriesCacheKey)
	codes := s.cached(ctx, callingCodesCacheKey)
	if len(countries) > 0 && len(codes) > 0 {
		return countries, codes
	}

	fetched, err := s.fetch(ctx)
	if err != nil {
		logger.Log.Warn("country list fetch failed, serving fallback", zap.Error(err))
		return fallbackCountryOptions(), fallbackCallingCodes
	}

	countries = normalizeCountries(fetched)
	codes = normalizeCallingCodes(fetched)
	if len(countries) == 0 || len(codes) == 0 {
		return fallbackCountryOptions(), fallbackCallingCodes
	}

	s.store(ctx, countriesCacheKey, countries)
	s.store(ctx, callingCodesCacheKey, codes)
	return countries, codes
}

type restCountry struct {
	Name struct {
		Common   string `json:"common"`
		Official string `json:"official"`
	} `json:"name"`
	CCA2 string `json:"cca2"`
	CCA3 string `json:"cca3"`
	IDD  struct {
		Root     string   `json:"root"`
		Suffixes []string `json:"suffixes"`
	} `json:"idd"`
}

func (s *CountryService) fetch(ctx context.Context) ([]restCountry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.Endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rest countries responded %d", resp.StatusCode)
	}
	var parsed []restCountry
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func normalizeCountries(payload []restCountry) []SelectOption {
	options := make([]SelectOption, 0, len(payload))
	for _, country := range payload {
		label := strings.TrimSpace(country.Name.Common)
		if label == "" {
			continue
		}
		options = append(options, SelectOption{Label: label, Value: label})
	}
	sort.Slice(options, func(i, j int) bool {
		return strings.ToLower(options[i].Label) < strings.ToLower(options[j].Label)
	})
	return options
}

func normalizeCallingCodes(payload []restCountry) []SelectOption {
	seen := make(map[string]bool)
	var options []SelectOption
	for _, country := range payload {
		root := strings.TrimSpace(country.IDD.Root)
		if root == "" {
			continue
		}
		name := country.Name.Common
		if name == "" {
			name = country.CCA2
		}
		if name == "" {
			name = country.CCA3
		}
		if name == "" {
			name = "País"
		}
		suffixes := country.IDD.Suffixes
		if len(suffixes) == 0 {
			suffixes = []string{""}
		}
		for _, suffix := range suffixes {
			dial := strings.ReplaceAll(root+strings.TrimSpace(suffix), " ", "")
			if dial == "" {
				continue
			}
			if !strings.HasPrefix(dial, "+") {
				dial = "+" + dial
			}
			if seen[dial] {
				continue
			}
			seen[dial] = true
			options = append(options, SelectOption{
				Label: fmt.Sprintf("%s (%s)", dial, name),
				Value: dial,
			})
		}
	}
	sort.Slice(options, func(i, j int) bool {
		return options[i].Label < options[j].Label
	})
	return options
}

func fallbackCountryOptions() []SelectOption {
	options := make([]SelectOption, len(fallbackCountries))
	for i, country := range fallbackCountries {
		options[i] = SelectOption{Label: country, Value: country}
	}
	return options
}

func (s *CountryService) cached(ctx context.Context, key string) []SelectOption {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var options []SelectOption
	if err := json.Unmarshal(raw, &options); err != nil {
		s.rdb.Del(ctx, key)
		return nil
	}
	return options
}

func (s *CountryService) store(ctx context.Context, key string, options []SelectOption) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return
	}
	ttl := s.cfg.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if err := s.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		logger.Log.Debug("could not cache country options", zap.Error(err))
	}
}
