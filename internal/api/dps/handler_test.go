package dps_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwards/ciassoc/internal/api"
	"github.com/johnwards/ciassoc/internal/domain"
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
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func openSession(t *testing.T, ts *testhelpers.TestServer) string {
	t.Helper()
	resp := doRequest(t, http.MethodPost, ts.URL+"/dps/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[domain.SessionCreated](t, resp)
	require.NotEmpty(t, created.SessionID)
	return created.SessionID
}

func createMo(t *testing.T, ts *testhelpers.TestServer, bucket domain.Bucket, in domain.CreateManagedObjectInput) *domain.ManagedObject {
	t.Helper()
	mo, err := ts.Store.Objects.Create(context.Background(), bucket, in)
	require.NoError(t, err)
	return mo
}

func moURL(ts *testhelpers.TestServer, sid, fdn, bucket string) string {
	q := url.Values{}
	q.Set("fdn", fdn)
	if bucket != "" {
		q.Set("bucket", bucket)
	}
	return ts.URL + "/dps/v1/sessions/" + sid + "/mo?" + q.Encode()
}

func TestGetMo(t *testing.T) {
	ts := testhelpers.NewTestServer(t, server.Options{})
	eai := createMo(t, ts, domain.LiveBucket, domain.CreateManagedObjectInput{FDN: "EntityAddressInfo=1"})
	ci := createMo(t, ts, domain.LiveBucket, domain.CreateManagedObjectInput{
		FDN: "X=1,Y=1,Z=1", Name: "ciName", EntityAddressInfoID: &eai.PoID,
	})
	sid := openSession(t, ts)

	resp := doRequest(t, http.MethodGet, moURL(ts, sid, "X=1,Y=1,Z=1", ""), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[domain.ManagedObject](t, resp)
	assert.Equal(t, ci.PoID, got.PoID)
	require.NotNil(t, got.EntityAddressInfoID)
	assert.Equal(t, eai.PoID, *got.EntityAddressInfoID)
}

func TestGetMoNotFound(t *testing.T) {
	ts := testhelpers.NewTestServer(t, server.Options{})
	createMo(t, ts, domain.SnapshotBucket("nightly"), domain.CreateManagedObjectInput{FDN: "X=1"})
	sid := openSession(t, ts)

	// Present only in the snapshot.
	resp := doRequest(t, http.MethodGet, moURL(ts, sid, "X=1", ""), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, api.CategoryObjectNotFound, decode[api.Error](t, resp).Category)

	resp = doRequest(t, http.MethodGet, moURL(ts, sid, "X=1", "nightly"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, moURL(ts, sid, "X=1", "live"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetMoRequiresFDN(t *testing.T) {
	ts := testhelpers.NewTestServer(t, server.Options{})
	sid := openSession(t, ts)

	resp := doRequest(t, http.MethodGet, ts.URL+"/dps/v1/sessions/"+sid+"/mo", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, api.CategoryValidationError, decode[api.Error](t, resp).Category)
}

func TestUnknownAndClosedSessions(t *testing.T) {
	ts := testhelpers.NewTestServer(t, server.Options{})

	resp := doRequest(t, http.MethodGet, moURL(ts, "nope", "X=1", ""), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, api.CategorySessionNotFound, decode[api.Error](t, resp).Category)

	sid := openSession(t, ts)
	resp = doRequest(t, http.MethodDelete, ts.URL+"/dps/v1/sessions/"+sid, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodPut, ts.URL+"/dps/v1/sessions/"+sid+"/associations",
		domain.AddAssociationInput{FromPoID: 1, ToPoID: 2, EndpointName: "ciRef"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, api.CategorySessionNotFound, decode[api.Error](t, resp).Category)

	resp = doRequest(t, http.MethodDelete, ts.URL+"/dps/v1/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddAssociation(t *testing.T) {
	ts := testhelpers.NewTestServer(t, server.Options{})
	eai := createMo(t, ts, domain.LiveBucket, domain.CreateManagedObjectInput{FDN: "EntityAddressInfo=1"})
	ci := createMo(t, ts, domain.LiveBucket, domain.CreateManagedObjectInput{FDN: "X=1,Y=1,Z=1"})
	sid := openSession(t, ts)
	in := domain.AddAssociationInput{FromPoID: eai.PoID, ToPoID: ci.PoID, EndpointName: "ciRef"}

	resp := doRequest(t, http.MethodPut, ts.URL+"/dps/v1/sessions/"+sid+"/associations", in)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[domain.Association](t, resp)
	assert.Equal(t, eai.PoID, got.FromPoID)
	assert.Equal(t, ci.PoID, got.ToPoID)
	assert.Equal(t, "ciRef", got.EndpointName)

	// Idempotent.
	resp = doRequest(t, http.MethodPut, ts.URL+"/dps/v1/sessions/"+sid+"/associations", in)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/dps/v1/mos/"+strconv.FormatInt(eai.PoID, 10)+"/associations", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[api.CollectionResponse[domain.Association]](t, resp)
	require.Len(t, list.Results, 1)
	assert.Equal(t, ci.PoID, list.Results[0].ToPoID)
}

func TestAddAssociationValidation(t *testing.T) {
	ts := testhelpers.NewTestServer(t, server.Options{})
	sid := openSession(t, ts)
	target := ts.URL + "/dps/v1/sessions/" + sid + "/associations"

	resp := doRequest(t, http.MethodPut, target, domain.AddAssociationInput{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Len(t, decode[api.Error](t, resp).Errors, 3)

	resp = doRequest(t, http.MethodPut, target, domain.AddAssociationInput{FromPoID: 40, ToPoID: 41, EndpointName: "ciRef"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, api.CategoryObjectNotFound, decode[api.Error](t, resp).Category)
}

func TestListAssociationsBadID(t *testing.T) {
	ts := testhelpers.NewTestServer(t, server.Options{})
	resp := doRequest(t, http.MethodGet, ts.URL+"/dps/v1/mos/abc/associations", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
