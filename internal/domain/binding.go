package domain

// Binding maps a registration name in the naming registry to the interface
// the bound object implements and the endpoint it is served from.
type Binding struct {
	Name      string `json:"name"`
	Interface string `json:"interface"`
	// Endpoint is either an absolute URL or a path relative to the registry
	// that served the binding.
	Endpoint  string `json:"endpoint"`
	CreatedAt string `json:"createdAt,omitempty"`
}
