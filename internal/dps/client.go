package dps

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/johnwards/ciassoc/internal/domain"
	"github.com/johnwards/ciassoc/internal/remote"
)

type httpHome struct {
	base   string
	client *remote.Client
}

// Create opens a session on the DPS.
func (h *httpHome) Create(ctx context.Context) (Service, error) {
	var resp domain.SessionCreated
	if err := h.client.DoJSON(ctx, http.MethodPost, h.base+"/sessions", nil, &resp); err != nil {
		return nil, fmt.Errorf("create DPS session: %w", err)
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("create DPS session: empty session id")
	}
	return &httpService{
		sessionURL: h.base + "/sessions/" + url.PathEscape(resp.SessionID),
		id:         resp.SessionID,
		client:     h.client,
	}, nil
}

type httpService struct {
	sessionURL string
	id         string
	client     *remote.Client
}

func bucketQuery(q url.Values, bucket domain.Bucket) {
	if name, ok := bucket.Snapshot(); ok {
		q.Set("bucket", name)
	}
}

// GetMo fetches the managed object at fdn.
func (s *httpService) GetMo(ctx context.Context, bucket domain.Bucket, fdn string) (*domain.ManagedObject, error) {
	q := url.Values{}
	q.Set("fdn", fdn)
	bucketQuery(q, bucket)

	var mo domain.ManagedObject
	err := s.client.DoJSON(ctx, http.MethodGet, s.sessionURL+"/mo?"+q.Encode(), nil, &mo)
	if err != nil {
		if remote.IsStatus(err, http.StatusNotFound, remote.CategoryObjectNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get managed object %q: %w", fdn, err)
	}
	return &mo, nil
}

// AddAssociation creates an association between two persisted objects.
func (s *httpService) AddAssociation(ctx context.Context, bucket domain.Bucket, fromID, toID int64, endpoint string) error {
	q := url.Values{}
	bucketQuery(q, bucket)
	target := s.sessionURL + "/associations"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	body := domain.AddAssociationInput{FromPoID: fromID, ToPoID: toID, EndpointName: endpoint}
	if err := s.client.DoJSON(ctx, http.MethodPut, target, body, nil); err != nil {
		return fmt.Errorf("add association %d-%s->%d: %w", fromID, endpoint, toID, err)
	}
	return nil
}

// SessionID returns the id of the DPS session.
func (s *httpService) SessionID() string { return s.id }
