package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controlenotas/notas-api/internal/domain/analyze"
	"github.com/controlenotas/notas-api/internal/domain/export"
	"github.com/controlenotas/notas-api/internal/domain/extract"
	"github.com/controlenotas/notas-api/internal/domain/records"
	"github.com/controlenotas/notas-api/internal/domain/report"
	"github.com/controlenotas/notas-api/internal/domain/search"
	"github.com/controlenotas/notas-api/internal/server"
	"github.com/controlenotas/notas-api/pkg/config"
	"github.com/controlenotas/notas-api/pkg/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSecond = 100
	cfg.Server.RateLimitBurst = 200
	cfg.Server.MetricsEnabled = false

	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	store, err := records.NewStore(t.TempDir())
	require.NoError(t, err)
	index, err := search.NewProductIndex()
	require.NoError(t, err)

	engine := extract.NewEngine(nil)
	analyzeSvc := analyze.NewService(engine, files, store, index, nil)
	exportSvc := export.NewService(nil)
	reportSvc := report.NewService("", "notas@example.com", nil)

	srv := server.NewServer(cfg, nil, files, store, analyzeSvc, exportSvc, reportSvc, index)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func uploadCSV(t *testing.T, ts *httptest.Server, name, content string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

const sampleCSV = "Fornecedor;CNPJ;Vencimento;Descrição;Valor Total Item\n" +
	"ACME LTDA;12.345.678/0001-90;10/01/2025;Parafuso Sextavado;100,00\n"

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadListRenameDelete(t *testing.T) {
	ts := newTestServer(t)
	uploadCSV(t, ts, "compras.csv", sampleCSV)

	resp, err := http.Get(ts.URL + "/api/files")
	require.NoError(t, err)
	var listing struct {
		Files []struct {
			Name string `json:"name"`
		} `json:"files"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	resp.Body.Close()
	require.Len(t, listing.Files, 1)
	assert.Equal(t, "compras.csv", listing.Files[0].Name)

	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/api/files/compras.csv",
		strings.NewReader(`{"name":"janeiro.csv"}`))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/api/files/janeiro.csv", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAnalyzeAndReadBack(t *testing.T) {
	ts := newTestServer(t)
	uploadCSV(t, ts, "compras.csv", sampleCSV)

	resp, err := http.Post(ts.URL+"/api/analyze", "application/json", nil)
	require.NoError(t, err)
	var result struct {
		Mode string `json:"mode"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "local", result.Mode)

	resp, err = http.Get(ts.URL + "/api/invoices")
	require.NoError(t, err)
	var invoices struct {
		Invoices []struct {
			SupplierName string `json:"supplier_name"`
		} `json:"invoices"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&invoices))
	resp.Body.Close()
	require.Len(t, invoices.Invoices, 1)
	assert.Equal(t, "ACME LTDA", invoices.Invoices[0].SupplierName)

	resp, err = http.Get(ts.URL + "/api/products/search?q=parafuso")
	require.NoError(t, err)
	var hits struct {
		Hits []json.RawMessage `json:"hits"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hits))
	resp.Body.Close()
	assert.NotEmpty(t, hits.Hits)
}

func TestExportEndpoints(t *testing.T) {
	ts := newTestServer(t)
	uploadCSV(t, ts, "compras.csv", sampleCSV)

	resp, err := http.Post(ts.URL+"/api/analyze", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/export/invoices.csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")

	resp2, err := http.Get(ts.URL + "/api/export/xlsx")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Contains(t, resp2.Header.Get("Content-Disposition"), "notas.xlsx")
}

func TestReportWithoutKeyIsSimulated(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/report", "application/json",
		strings.NewReader(`{"email":"dono@example.com"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var outcome struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&outcome))
	assert.Equal(t, "demo", outcome.Status)
}

func TestUserRegistration(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/user", "application/json",
		strings.NewReader(`{"email":"dono@example.com"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var first struct {
		OK   bool `json:"ok"`
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&first))
	resp.Body.Close()
	assert.True(t, first.OK)
	assert.Equal(t, "dono@example.com", first.User.Email)

	resp, err = http.Post(ts.URL+"/api/user", "application/json",
		strings.NewReader(`{"email":"dono@example.com"}`))
	require.NoError(t, err)
	var second struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&second))
	resp.Body.Close()
	assert.Equal(t, first.User.ID, second.User.ID, "upsert, not duplicate")

	resp, err = http.Post(ts.URL+"/api/user", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchRequiresQuery(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/products/search")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.RateLimitPerSecond = 1
	cfg.Server.RateLimitBurst = 2

	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	store, err := records.NewStore(t.TempDir())
	require.NoError(t, err)
	index, err := search.NewProductIndex()
	require.NoError(t, err)

	srv := server.NewServer(cfg, nil, files, store,
		analyze.NewService(extract.NewEngine(nil), files, store, index, nil),
		export.NewService(nil), report.NewService("", "", nil), index)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	limited := false
	for i := 0; i < 10; i++ {
		resp, err := http.Get(fmt.Sprintf("%s/healthz", ts.URL))
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "burst exhaustion must answer 429")
}
