package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/johnwards/ciassoc/internal/domain"
	"github.com/johnwards/ciassoc/internal/store"
)

// Fixture is a YAML document of managed objects to load.
type Fixture struct {
	ManagedObjects []FixtureObject `yaml:"managedObjects"`
}

// FixtureObject is one managed object in a Fixture. The entity address info
// may be given as a persisted id or as the FDN of an object listed earlier in
// the same bucket.
type FixtureObject struct {
	domain.CreateManagedObjectInput `yaml:",inline"`

	Bucket               string `yaml:"bucket,omitempty"`
	EntityAddressInfoFDN string `yaml:"entityAddressInfoFdn,omitempty"`
}

// LoadFixture reads a Fixture from path.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(raw)
}

// ParseFixture decodes a Fixture from YAML.
func ParseFixture(raw []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("unmarshal fixture: %w", err)
	}
	return &fx, nil
}

// Objects creates the fixture's managed objects in order. Objects whose FDN
// already exists in their bucket are kept as they are, which makes loading
// the same fixture twice a no-op.
func Objects(ctx context.Context, objects store.ManagedObjectStore, fx *Fixture) ([]*domain.ManagedObject, error) {
	log := zerolog.Ctx(ctx)
	out := make([]*domain.ManagedObject, 0, len(fx.ManagedObjects))
	for i, fo := range fx.ManagedObjects {
		bucket := domain.ParseBucket(fo.Bucket)
		input := fo.CreateManagedObjectInput

		if fo.EntityAddressInfoFDN != "" {
			if input.EntityAddressInfoID != nil {
				return nil, fmt.Errorf("managed object %d (%s): entityAddressInfoId and entityAddressInfoFdn are exclusive", i, input.FDN)
			}
			eai, err := objects.GetByFDN(ctx, bucket, fo.EntityAddressInfoFDN)
			if err != nil {
				return nil, fmt.Errorf("managed object %d (%s): resolve entity address info: %w", i, input.FDN, err)
			}
			input.EntityAddressInfoID = &eai.PoID
		}

		mo, err := objects.Create(ctx, bucket, input)
		if errors.Is(err, store.ErrConflict) {
			mo, err = objects.GetByFDN(ctx, bucket, input.FDN)
		}
		if err != nil {
			return nil, fmt.Errorf("managed object %d (%s): %w", i, input.FDN, err)
		}
		log.Debug().Str("fdn", mo.FDN).Int64("poId", mo.PoID).Str("bucket", bucket.String()).Msg("seeded managed object")
		out = append(out, mo)
	}
	return out, nil
}

// LoadObjects loads the fixture at path into objects.
func LoadObjects(ctx context.Context, objects store.ManagedObjectStore, path string) ([]*domain.ManagedObject, error) {
	fx, err := LoadFixture(path)
	if err != nil {
		return nil, err
	}
	return Objects(ctx, objects, fx)
}
