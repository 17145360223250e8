package domain

// ManagedObject is a persisted object identified by its fully distinguished
// name (FDN).
type ManagedObject struct {
	PoID      int64  `json:"poId"`
	Namespace string `json:"namespace"`
	Type      string `json:"type"`
	Version   string `json:"version"`
	FDN       string `json:"fdn"`
	Name      string `json:"name"`
	// EntityAddressInfoID points at the related entity address info object.
	// It is nil when the object has no such relation.
	EntityAddressInfoID *int64 `json:"entityAddressInfoId,omitempty"`
	CreatedAt           string `json:"createdAt,omitempty"`
}

// CreateManagedObjectInput holds the data needed to persist a managed object.
type CreateManagedObjectInput struct {
	Namespace           string `json:"namespace" yaml:"namespace"`
	Type                string `json:"type" yaml:"type"`
	Version             string `json:"version" yaml:"version"`
	FDN                 string `json:"fdn" yaml:"fdn"`
	Name                string `json:"name" yaml:"name"`
	EntityAddressInfoID *int64 `json:"entityAddressInfoId,omitempty" yaml:"entityAddressInfoId,omitempty"`
}

// Association is a directed, named relationship between two managed objects.
type Association struct {
	FromPoID     int64  `json:"fromPoId"`
	ToPoID       int64  `json:"toPoId"`
	EndpointName string `json:"endpointName"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// AddAssociationInput is the body of an association creation request.
type AddAssociationInput struct {
	FromPoID     int64  `json:"fromPoId"`
	ToPoID       int64  `json:"toPoId"`
	EndpointName string `json:"endpointName"`
}
