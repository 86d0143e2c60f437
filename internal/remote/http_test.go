package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sourceplane/tmplstudio/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	raw, _ := json.Marshal(data)
	fmt.Fprintf(w, `{"status":"SUCCESS","data":%s}`, raw)
}

func TestHTTPClientListVersions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/templates/deploy/versions", r.URL.Path)
		assert.Equal(t, "acc", r.URL.Query().Get("accountIdentifier"))
		assert.Equal(t, "org", r.URL.Query().Get("orgIdentifier"))
		assert.Equal(t, "feature", r.URL.Query().Get("branch"))
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))

		writeEnvelope(w, http.StatusOK, []model.VersionSummary{
			{VersionLabel: "v1", StableTemplate: true, CreatedAt: 1},
			{VersionLabel: "v2", CreatedAt: 2},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL+"/", "secret", 5*time.Second)
	versions, err := client.ListVersions(context.Background(), Query{
		AccountID:          "acc",
		OrgID:              "org",
		TemplateIdentifier: "deploy",
		Branch:             "feature",
	})
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "v1", model.StableVersion(versions))
}

func TestHTTPClientGetYAML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/templates/deploy", r.URL.Path)
		assert.Equal(t, "v2", r.URL.Query().Get("versionLabel"))
		assert.Equal(t, "true", r.URL.Query().Get("loadFromCache"))

		writeEnvelope(w, http.StatusOK, YAMLResponse{
			YAML:         "version: 1\nkind: template\n",
			Name:         "Deploy",
			Identifier:   "deploy",
			VersionLabel: "v2",
			Tags:         map[string]string{"a": "b"},
			GitDetails:   &model.GitDetails{Branch: "main"},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", time.Second)
	resp, err := client.GetYAML(context.Background(), Query{AccountID: "acc", TemplateIdentifier: "deploy", LoadFromCache: true}, "v2")
	require.NoError(t, err)

	assert.Equal(t, "Deploy", resp.Metadata().Name)
	assert.Equal(t, "v2", resp.Metadata().VersionLabel)
	assert.Equal(t, "main", resp.GitDetails.Branch)
}

func TestHTTPClientErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		recoverable bool
	}{
		{"bad request", http.StatusBadRequest, `{"status":"ERROR","code":"INVALID_REQUEST","message":"bad"}`, true},
		{"scm error", http.StatusInternalServerError, `{"status":"ERROR","code":"SCM_UNEXPECTED_ERROR","message":"scm"}`, true},
		{"hint", http.StatusOK, `{"status":"ERROR","code":"HINT","message":"check the yaml"}`, true},
		{"server error", http.StatusInternalServerError, `{"status":"ERROR","code":"UNEXPECTED","message":"boom"}`, false},
		{"plain text", http.StatusBadGateway, `upstream unavailable`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := NewHTTPClient(server.URL, "", time.Second)
			_, err := client.GetYAML(context.Background(), Query{AccountID: "acc", TemplateIdentifier: "deploy"}, "")
			require.Error(t, err)

			var remoteErr *Error
			require.ErrorAs(t, err, &remoteErr)
			assert.Equal(t, tt.status, remoteErr.Status)
			assert.NotEmpty(t, remoteErr.Message)
			assert.Equal(t, tt.recoverable, IsRecoverable(err))
		})
	}
}

func TestHTTPClientHonorsCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewHTTPClient(server.URL, "", 5*time.Second)
	_, err := client.ListVersions(ctx, Query{AccountID: "acc", TemplateIdentifier: "deploy"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRecoverableIgnoresOtherErrors(t *testing.T) {
	assert.False(t, IsRecoverable(fmt.Errorf("plain")))
	assert.False(t, IsRecoverable(nil))
	assert.True(t, IsRecoverable(fmt.Errorf("wrapped: %w", &Error{Status: 400})))
}
