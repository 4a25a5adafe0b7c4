package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobintel/jobintel-cli/internal/model"
)

func TestProbeDomain(t *testing.T) {
	var probed []string
	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = append(probed, "gh"+r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer gh.Close()

	lv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = append(probed, "lv"+r.URL.Path)
		if r.URL.Path == "/acmecom" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer lv.Close()

	d := New(&fakeGreenhouse{}, &fakeLever{}, WithBoardBases(gh.URL, lv.URL))

	found, err := d.ProbeDomain(context.Background(), "https://Acme.com/", "Acme")
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, "Acme", found.CompanyName)
	assert.Equal(t, "acme.com", found.Domain)
	assert.Equal(t, model.SourceLever, found.ATS)
	assert.Equal(t, "acmecom", found.Identifier)
	assert.Equal(t, lv.URL+"/acmecom", found.CareersURL)
	assert.Equal(t, model.MethodSubdomainProbe, found.Method)
	assert.InDelta(t, 0.85, found.Confidence, 1e-9)

	// Greenhouse slugs were tried first, in candidate order.
	assert.Equal(t, []string{"gh/acmecom", "gh/acme", "lv/acmecom"}, probed)
}

func TestProbeDomain_NothingFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d := New(&fakeGreenhouse{}, &fakeLever{}, WithBoardBases(srv.URL, srv.URL))

	found, err := d.ProbeDomain(context.Background(), "ghost.example", "Ghost")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestProbeDomain_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d := New(&fakeGreenhouse{}, &fakeLever{}, WithBoardBases(srv.URL, srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.ProbeDomain(ctx, "acme.com", "Acme")
	require.Error(t, err)
}

func TestCleanDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "example.com"},
		{"https://example.com/", "example.com"},
		{"http://Example.COM", "example.com"},
		{"  example.com  ", "example.com"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanDomain(tt.in), "cleanDomain(%q)", tt.in)
	}
}

func TestTitleize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acme", "Acme"},
		{"acme-co", "Acme Co"},
		{"acme_labs", "Acme Labs"},
		{"acme-ai-2", "Acme Ai 2"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, titleize(tt.in), "titleize(%q)", tt.in)
	}
}
