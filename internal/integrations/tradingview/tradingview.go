package tradingview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/muniwatch/debt-service/internal/models"
)

// browserUA is required: the quote page blocks requests without a
// browser-identifying User-Agent.
const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// yieldPattern pulls the last-price field out of the embedded quote data.
// The page structure drifts; failure to match is a soft error, not a crash.
var yieldPattern = regexp.MustCompile(`"(?:last_price|lp|close)"\s*:\s*"?([0-9]+(?:\.[0-9]+)?)"?`)

// ErrNoYield is returned when the page no longer contains a recognizable
// yield figure.
var ErrNoYield = errors.New("tradingview: no yield found in page")

// Client scrapes a public quote page for the benchmark bond yield. Least
// trusted source; last in the live chain.
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new scrape client for the given quote page URL.
func NewClient(url string, timeout time.Duration, log *logrus.Logger) *Client {
	return &Client{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Name identifies this source in the resolution chain.
func (c *Client) Name() string { return "tradingview" }

// Fetch downloads the quote page and extracts the yield.
func (c *Client) Fetch(ctx context.Context) (models.Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return models.Observation{}, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept", "text/html")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Observation{}, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Observation{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Observation{}, fmt.Errorf("failed to read response: %v", err)
	}

	match := yieldPattern.FindSubmatch(body)
	if match == nil {
		return models.Observation{}, ErrNoYield
	}

	value, err := strconv.ParseFloat(string(match[1]), 64)
	if err != nil {
		return models.Observation{}, fmt.Errorf("failed to parse yield %q: %v", match[1], err)
	}

	c.log.Debugf("Scraped yield %v from %s", value, c.url)
	return models.Observation{Value: value, ObservedAt: time.Now()}, nil
}
