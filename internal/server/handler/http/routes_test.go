package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atinyakov/AnimalFacts/internal/config"
	"github.com/atinyakov/AnimalFacts/internal/metrics"
	"github.com/atinyakov/AnimalFacts/internal/models"
	"github.com/atinyakov/AnimalFacts/internal/repository"
	"github.com/atinyakov/AnimalFacts/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, flagging bool) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()

	data, err := json.Marshal([]models.Fact{{ID: 1, Content: "Cats have five toes on their front paws."}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(models.Cat.FilePath(dir), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, repository.FlagsFileName), []byte("[]"), 0o644))

	cfg := config.Default()
	cfg.FactsDir = dir
	cfg.AnimalFactTypes = models.Animals
	cfg.FlaggingEnabled = flagging
	cfg.Flaggers = []models.Flagger{{Location: "website", Key: "flag_key"}}
	cfg.Admins = []models.Admin{{Name: "Root", Key: "root_key", Permissions: models.Perms{
		ViewFacts: true, AddFact: true, DeleteFact: true, ViewFlags: true, AddFlag: true, DeleteFlag: true,
	}}}

	facts, err := repository.LoadFactStore(dir, cfg.AnimalFactTypes, zap.NewNop())
	require.NoError(t, err)
	flags, err := repository.LoadFlagStore(dir, cfg.FlaggingEnabled, zap.NewNop())
	require.NoError(t, err)

	m := metrics.New()
	svc := service.NewService(cfg, facts, flags, nil, m, zap.NewNop())
	router := NewRouter(
		&FactHandler{FactService: svc},
		&AdminHandler{FactService: svc},
		svc.FlaggingEnabled(),
		m.Handler(),
		zap.NewNop(),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, dir
}

func postJSON(t *testing.T, url, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestRouter_PublicRoutes(t *testing.T) {
	srv, _ := newTestServer(t, true)

	resp, err := http.Get(srv.URL + "/cat/fact")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fact models.Fact
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fact))
	assert.Equal(t, uint64(1), fact.ID)

	resp2, err := http.Get(srv.URL + "/dog/fact")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp2.StatusCode)

	resp3, err := http.Get(srv.URL + "/fish/fact")
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)

	resp4, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp4.Body.Close()
	body, err := io.ReadAll(resp4.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `api_request_count{animal="Cat"} 1`)
	assert.Contains(t, string(body), `fact_count{animal="Cat"} 1`)
}

func TestRouter_AdminFactLifecycle(t *testing.T) {
	srv, dir := newTestServer(t, true)

	resp, body := postJSON(t, srv.URL+"/admin/fact/add",
		`{"key":"root_key","animal_type":"Dog","fact_content":"Dogs have wet noses."}`)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	assert.JSONEq(t, `{"code":501,"message":"The requested feature is not currently loaded!"}`, body)

	resp, body = postJSON(t, srv.URL+"/admin/fact/add",
		`{"key":"root_key","animal_type":"Cat","fact_content":"Cats can rotate their ears 180 degrees."}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Response
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.Equal(t, "Cat fact added", created.Message)
	require.NotNil(t, created.ID)

	onDisk, err := os.ReadFile(models.Cat.FilePath(dir))
	require.NoError(t, err)
	assert.Contains(t, string(onDisk), "Cats can rotate their ears 180 degrees.")

	resp, body = postJSON(t, srv.URL+"/admin/fact/list", `{"key":"root_key","animal_type":"Cat"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []models.Fact
	require.NoError(t, json.Unmarshal([]byte(body), &listed))
	assert.Equal(t, []models.Fact{
		{ID: 1, Content: "Cats have five toes on their front paws."},
		{ID: *created.ID, Content: "Cats can rotate their ears 180 degrees."},
	}, listed)

	resp, body = postJSON(t, srv.URL+"/admin/fact/delete", `{"key":"root_key","animal_type":"Cat","fact_id":1}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body)

	resp, body = postJSON(t, srv.URL+"/admin/fact/delete", `{"key":"root_key","animal_type":"Cat","fact_id":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"code":404,"message":"The requested ID doesn't exist"}`, body)

	resp, body = postJSON(t, srv.URL+"/admin/fact/add", `{"key":"wrong","animal_type":"Cat","fact_content":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"code":401,"message":"Invalid authorization"}`, body)
}

func TestRouter_Flagging(t *testing.T) {
	srv, _ := newTestServer(t, true)

	resp, body := postJSON(t, srv.URL+"/flag", `{"key":"flag_key","fact_type":"Cat","fact_id":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Response
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.Equal(t, "Flag set", created.Message)
	require.NotNil(t, created.ID)

	resp, body = postJSON(t, srv.URL+"/admin/flag/list", `{"key":"root_key"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var flags []models.FactFlag
	require.NoError(t, json.Unmarshal([]byte(body), &flags))
	require.Len(t, flags, 1)
	assert.Equal(t, "website", flags[0].Flagger)
	assert.Nil(t, flags[0].Reason)

	resp, _ = postJSON(t, srv.URL+"/admin/flag/delete", `{"key":"root_key","flag_id":`+jsonUint(*created.ID)+`}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRouter_FlaggingDisabled(t *testing.T) {
	srv, _ := newTestServer(t, false)

	for _, path := range []string{"/flag", "/admin/flag/list", "/admin/flag/add", "/admin/flag/delete"} {
		resp, body := postJSON(t, srv.URL+path, `not even json`)
		assert.Equal(t, http.StatusNotImplemented, resp.StatusCode, path)
		assert.JSONEq(t, `{"code":501,"message":"The requested feature is not currently loaded!"}`, body, path)
	}
}

func TestRouter_RejectsNonJSONContentType(t *testing.T) {
	srv, _ := newTestServer(t, true)

	resp, err := http.Post(srv.URL+"/admin/fact/list", "text/plain", strings.NewReader(`{"key":"root_key"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, true)

	resp, err := http.Get(srv.URL + "/admin/fact/list")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func jsonUint(v uint64) string {
	data, _ := json.Marshal(v)
	return string(data)
}
