package statcan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/muniwatch/debt-service/internal/models"
)

// Client fetches the benchmark bond yield from the Statistics Canada Web
// Data Service. This is the official statistics API and sits first in the
// resolution chain.
type Client struct {
	url      string
	vectorID int
	client   *http.Client
	log      *logrus.Logger
}

// NewClient initializes a new WDS client. url is the
// getDataFromVectorsAndLatestNPeriods endpoint; vectorID selects the
// benchmark yield series.
func NewClient(url string, vectorID int, timeout time.Duration, log *logrus.Logger) *Client {
	return &Client{
		url:      url,
		vectorID: vectorID,
		client: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Name identifies this source in the resolution chain.
func (c *Client) Name() string { return "statcan" }

// Fetch requests the latest period for the configured vector.
func (c *Client) Fetch(ctx context.Context) (models.Observation, error) {
	payload, err := json.Marshal([]map[string]int{
		{"vectorId": c.vectorID, "latestN": 1},
	})
	if err != nil {
		return models.Observation{}, fmt.Errorf("failed to build request body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return models.Observation{}, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Observation{}, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Observation{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var raw []struct {
		Status string `json:"status"`
		Object struct {
			VectorDataPoint []struct {
				RefPer string  `json:"refPer"`
				Value  float64 `json:"value"`
			} `json:"vectorDataPoint"`
		} `json:"object"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.Observation{}, fmt.Errorf("failed to decode response: %v", err)
	}

	if len(raw) == 0 || raw[0].Status != "SUCCESS" {
		return models.Observation{}, fmt.Errorf("WDS returned no successful result")
	}
	points := raw[0].Object.VectorDataPoint
	if len(points) == 0 {
		return models.Observation{}, fmt.Errorf("no data points for vector %d", c.vectorID)
	}

	latest := points[len(points)-1]
	c.log.Debugf("StatCan vector %d latest point: %s = %v", c.vectorID, latest.RefPer, latest.Value)

	observedAt := time.Now()
	if t, err := time.Parse("2006-01-02", latest.RefPer); err == nil {
		observedAt = t
	}

	return models.Observation{Value: latest.Value, ObservedAt: observedAt}, nil
}
