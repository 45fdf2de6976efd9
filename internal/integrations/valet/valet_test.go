package valet

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

const observationsXML = `<?xml version="1.0" encoding="UTF-8"?>
<observations>
	<o d="2026-08-27"><v s="BD.CDN.LONG.DQ.YLD">3.52</v></o>
	<o d="2026-08-28"><v s="BD.CDN.LONG.DQ.YLD">3.55</v></o>
</observations>`

func TestFetchParsesLatestObservation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/BD.CDN.LONG.DQ.YLD/xml", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("recent"))
		w.Write([]byte(observationsXML))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "BD.CDN.LONG.DQ.YLD", 2*time.Second, testLogger())
	obs, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.55, obs.Value)
	assert.Equal(t, "2026-08-28", obs.ObservedAt.Format("2006-01-02"))
}

func TestFetchRejectsEmptyDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<observations></observations>`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "BD.CDN.LONG.DQ.YLD", 2*time.Second, testLogger())
	_, err := c.Fetch(context.Background())
	assert.ErrorContains(t, err, "no observations")
}

func TestFetchRejectsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "BD.CDN.LONG.DQ.YLD", 2*time.Second, testLogger())
	_, err := c.Fetch(context.Background())
	assert.ErrorContains(t, err, "unexpected status code: 503")
}

func TestFetchRejectsMalformedXML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"xml"`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "BD.CDN.LONG.DQ.YLD", 2*time.Second, testLogger())
	_, err := c.Fetch(context.Background())
	assert.Error(t, err)
}
