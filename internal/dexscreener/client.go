package dexscreener

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"dexscreener-alert-bot/internal/types"
)

const (
	defaultBaseURL = "https://api.dexscreener.com/latest"
	requestTimeout = 15 * time.Second
	maxSearchHits  = 20
)

// ErrNotFound means DexScreener knows no trading pair for the given address.
// A token with zero listed liquidity falls in this bucket too.
var ErrNotFound = errors.New("token not found on dexscreener")

// Client queries the DexScreener public API and caches quotes per token
// address for a short TTL so many alerts on one token cost one upstream call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *quoteCache
}

func NewClient(cacheTTL time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    defaultBaseURL,
		cache:      newQuoteCache(cacheTTL),
	}
}

type tokenData struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type pairData struct {
	ChainID     string    `json:"chainId"`
	DexID       string    `json:"dexId"`
	PairAddress string    `json:"pairAddress"`
	BaseToken   tokenData `json:"baseToken"`
	PriceUSD    string    `json:"priceUsd"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
}

type pairsResponse struct {
	Pairs []pairData `json:"pairs"`
}

// Quote returns the current market snapshot for a token contract address.
// Cached quotes are served without touching the network. On a miss the token
// endpoint is tried first and the pair with the highest USD liquidity wins
// (first seen on an exact tie); if the address yields no pairs there, a pair
// search with the same string is attempted before giving up with ErrNotFound.
// Transport and decode failures are returned without poisoning the cache.
func (c *Client) Quote(ctx context.Context, address string) (*types.TokenQuote, error) {
	key := strings.ToLower(strings.TrimSpace(address))
	if key == "" {
		return nil, ErrNotFound
	}

	if quote, ok := c.cache.get(key); ok {
		return quote, nil
	}

	pairs, err := c.fetchPairs(ctx, "/dex/tokens/"+url.PathEscape(key))
	if err != nil {
		return nil, err
	}

	var best *pairData
	if len(pairs) > 0 {
		best = bestByLiquidity(pairs)
	} else {
		// Tokens and pair identifiers share one input channel; retry the
		// same string as a pair search before declaring the address unknown.
		pairs, err = c.fetchPairs(ctx, "/dex/pairs/search?q="+url.QueryEscape(key))
		if err != nil {
			return nil, err
		}
		if len(pairs) == 0 {
			return nil, ErrNotFound
		}
		best = &pairs[0]
	}

	quote := best.toQuote(key)
	c.cache.set(key, quote)
	return quote, nil
}

// Search looks tokens up by name or symbol, deduplicated by base token
// address, capped at 20 hits. Results bypass the cache: a search response
// covers many tokens and none of them was asked for by address.
func (c *Client) Search(ctx context.Context, query string) ([]types.TokenQuote, error) {
	pairs, err := c.fetchPairs(ctx, "/dex/search?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var results []types.TokenQuote
	for _, pair := range pairs {
		addr := strings.ToLower(pair.BaseToken.Address)
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		results = append(results, *pair.toQuote(addr))
		if len(results) >= maxSearchHits {
			break
		}
	}
	return results, nil
}

func (c *Client) fetchPairs(ctx context.Context, path string) ([]pairData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not build dexscreener request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "dexscreener request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("dexscreener returned status %d for %s", resp.StatusCode, path)
	}

	var decoded pairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "could not decode dexscreener response")
	}

	return decoded.Pairs, nil
}

func bestByLiquidity(pairs []pairData) *pairData {
	best := &pairs[0]
	for i := range pairs[1:] {
		if pairs[i+1].Liquidity.USD > best.Liquidity.USD {
			best = &pairs[i+1]
		}
	}
	return best
}

func (p *pairData) toQuote(requestedAddress string) *types.TokenQuote {
	price, err := strconv.ParseFloat(p.PriceUSD, 64)
	if err != nil {
		log.Debugf("unparseable priceUsd %q for pair %s", p.PriceUSD, p.PairAddress)
		price = 0
	}

	address := strings.ToLower(p.BaseToken.Address)
	if address == "" {
		address = requestedAddress
	}

	return &types.TokenQuote{
		TokenAddress:   address,
		Name:           p.BaseToken.Name,
		Symbol:         p.BaseToken.Symbol,
		Chain:          p.ChainID,
		Dex:            p.DexID,
		PairAddress:    p.PairAddress,
		PriceUSD:       price,
		LiquidityUSD:   p.Liquidity.USD,
		Volume24hUSD:   p.Volume.H24,
		PriceChange24h: p.PriceChange.H24,
		FetchedAt:      time.Now(),
	}
}
