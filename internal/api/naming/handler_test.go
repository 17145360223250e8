package naming_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwards/ciassoc/internal/api"
	apinaming "github.com/johnwards/ciassoc/internal/api/naming"
	"github.com/johnwards/ciassoc/internal/domain"
	"github.com/johnwards/ciassoc/internal/dps"
	"github.com/johnwards/ciassoc/internal/server"
	"github.com/johnwards/ciassoc/internal/testhelpers"
)

func doRequest(t *testing.T, method, target string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, target, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestLookupSeededHome(t *testing.T) {
	ts := testhelpers.NewTestServer(t, server.Options{})

	resp := doRequest(t, http.MethodGet, ts.URL+"/naming/v1/bindings/"+dps.RemoteLookupName, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var b domain.Binding
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&b))
	assert.Equal(t, dps.RemoteLookupName, b.Name)
	assert.Equal(t, dps.HomeInterface, b.Interface)
	assert.Equal(t, "/dps/v1", b.Endpoint)
}

func TestLookupUnbound(t *testing.T) {
	ts := testhelpers.NewTestServer(t, server.Options{})

	resp := doRequest(t, http.MethodGet, ts.URL+"/naming/v1/bindings/queue/Missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var e api.Error
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Equal(t, api.CategoryNameNotBound, e.Category)
	assert.NotEmpty(t, e.CorrelationID)
}

func TestBindListUnbind(t *testing.T) {
	ts := testhelpers.NewTestServer(t, server.Options{})
	target := ts.URL + "/naming/v1/bindings/alarms/AlarmHome"

	resp := doRequest(t, http.MethodPut, target, apinaming.BindInput{Interface: "alarms.Home", Endpoint: "http://elsewhere:9000/alarms"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/naming/v1/bindings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list api.CollectionResponse[domain.Binding]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	names := make([]string, 0, len(list.Results))
	for _, b := range list.Results {
		names = append(names, b.Name)
	}
	assert.ElementsMatch(t, []string{"alarms/AlarmHome", dps.RemoteLookupName}, names)

	resp = doRequest(t, http.MethodDelete, target, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodDelete, target, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBindValidation(t *testing.T) {
	ts := testhelpers.NewTestServer(t, server.Options{})

	resp := doRequest(t, http.MethodPut, ts.URL+"/naming/v1/bindings/x", apinaming.BindInput{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var e api.Error
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Len(t, e.Errors, 2)
}
