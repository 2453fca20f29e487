/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanReadableSize(t *testing.T) {
	tests := map[int]string{
		0:         "0 B",
		999:       "999 B",
		1000:      "1.0 kB",
		1536:      "1.5 kB",
		2_500_000: "2.5 MB",
	}

	for n, want := range tests {
		assert.Equal(t, want, humanReadableSize(n))
	}
}

func TestProfileRoutes(t *testing.T) {
	cfg := testConfig()
	srv := newTestServer(t, cfg)
	assert.Equal(t, http.StatusNotFound, call(t, http.MethodGet, srv.URL+"/pprof/cmdline", nil, nil))

	cfg = testConfig()
	cfg.profile = true
	srv = newTestServer(t, cfg)
	assert.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.URL+"/pprof/cmdline", nil, nil))
	assert.Equal(t, http.StatusOK, call(t, http.MethodGet, srv.URL+"/pprof/goroutine?debug=1", nil, nil))
}
