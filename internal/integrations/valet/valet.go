package valet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/muniwatch/debt-service/internal/models"
)

// Client fetches the long-term benchmark bond yield from the Bank of Canada
// Valet observations API (XML).
type Client struct {
	url    string
	series string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new Valet client. url is the observations endpoint
// base; series is the Valet series name for the benchmark yield.
func NewClient(url, series string, timeout time.Duration, log *logrus.Logger) *Client {
	return &Client{
		url:    url,
		series: series,
		client: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Name identifies this source in the resolution chain.
func (c *Client) Name() string { return "valet" }

// Fetch retrieves the most recent observation for the configured series.
func (c *Client) Fetch(ctx context.Context) (models.Observation, error) {
	body, err := c.sendRequest(ctx)
	if err != nil {
		return models.Observation{}, err
	}
	return c.parseXMLResponse(body)
}

// sendRequest requests the latest observation in XML form.
func (c *Client) sendRequest(ctx context.Context) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/xml?recent=1", c.url, c.series)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	// Log the raw XML response for debugging
	c.log.Debugf("Valet XML response: %s", string(body))

	return body, nil
}

// parseXMLResponse extracts the newest yield observation from the XML body.
func (c *Client) parseXMLResponse(rawBody []byte) (models.Observation, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return models.Observation{}, fmt.Errorf("failed to parse XML: %v", err)
	}

	obsElements := doc.FindElements("//observations/o")
	if len(obsElements) == 0 {
		return models.Observation{}, fmt.Errorf("no observations found in XML")
	}

	// Observations are chronological; the last one is the most recent.
	latest := obsElements[len(obsElements)-1]
	valueElement := latest.FindElement("./v")
	if valueElement == nil {
		return models.Observation{}, fmt.Errorf("value element not found in XML")
	}

	var value float64
	if _, err := fmt.Sscanf(valueElement.Text(), "%f", &value); err != nil {
		return models.Observation{}, fmt.Errorf("failed to parse yield: %v", err)
	}

	observedAt := time.Now()
	if d := latest.SelectAttrValue("d", ""); d != "" {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			observedAt = t
		}
	}

	return models.Observation{Value: value, ObservedAt: observedAt}, nil
}
