package registry

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"namereg/internal/codec"
	"namereg/internal/directory"
	"namereg/internal/keys"
	"namereg/internal/nameconfig"
	"namereg/internal/records"
)

// Registry performs name operations for a single registrant. It holds no
// locks; callers that share an instance across goroutines must serialize
// access themselves.
type Registry struct {
	config  ConfigStore
	records records.Getter
	logger  *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New initializes config and returns a registry reading records from getter.
func New(config ConfigStore, getter records.Getter, opts ...Option) (*Registry, error) {
	r := &Registry{
		config:  config,
		records: getter,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := config.Initialize(); err != nil {
		return nil, err
	}
	return r, nil
}

// Registration describes a name to claim.
type Registration struct {
	Name      string
	Messaging keys.MessagingKeyPair
	Services  map[string]directory.Location
	// Owners may sign later versions. Empty means the signer alone.
	Owners []ed25519.PublicKey
}

// Register claims reg.Name and returns the version 0 record for the caller to
// publish. The record is built first and the name saved locally after it, so
// a failure to publish leaves the name reserved for Reissue.
func (r *Registry) Register(ctx context.Context, reg Registration, signer ed25519.PrivateKey, enc keys.EncryptionContext) (records.Record, error) {
	entries, err := r.config.Load()
	if err != nil {
		return records.Record{}, err
	}
	if _, ok := nameconfig.Find(entries, reg.Name); ok {
		return records.Record{}, fmt.Errorf("%w: %s", ErrNameAlreadyRegistered, reg.Name)
	}

	rec, err := initialRecord(reg, signer, enc)
	if err != nil {
		return records.Record{}, err
	}

	entries = append(entries, nameconfig.Entry{Name: reg.Name, Messaging: reg.Messaging})
	if err := r.config.Save(entries); err != nil {
		return records.Record{}, err
	}

	r.logger.Debug("registered name",
		zap.String("name", reg.Name),
		zap.String("address", rec.Address),
		zap.Int("services", len(reg.Services)))
	return rec, nil
}

// Reissue rebuilds the version 0 record of a name registered locally whose
// record was never published. Publishing it over a live record fails with
// records.ErrRecordExists.
func (r *Registry) Reissue(ctx context.Context, name string, owners []ed25519.PublicKey, signer ed25519.PrivateKey, enc keys.EncryptionContext) (records.Record, error) {
	entries, err := r.config.Load()
	if err != nil {
		return records.Record{}, err
	}
	entry, ok := nameconfig.Find(entries, name)
	if !ok {
		return records.Record{}, fmt.Errorf("%w: %s", ErrNameRecordNotFound, name)
	}
	return initialRecord(Registration{Name: name, Messaging: entry.Messaging, Owners: owners}, signer, enc)
}

// Forget removes a locally registered name without touching its record.
func (r *Registry) Forget(ctx context.Context, name string) error {
	entries, err := r.config.Load()
	if err != nil {
		return err
	}
	entries, ok := nameconfig.Remove(entries, name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNameRecordNotFound, name)
	}
	return r.config.Save(entries)
}

func initialRecord(reg Registration, signer ed25519.PrivateKey, enc keys.EncryptionContext) (records.Record, error) {
	services := make(map[string]directory.Location, len(reg.Services))
	for name, loc := range reg.Services {
		services[name] = loc
	}
	payload, err := codec.Marshal(NameRecord{
		Name:         reg.Name,
		MessagingKey: reg.Messaging.Public,
		Services:     services,
	})
	if err != nil {
		return records.Record{}, err
	}

	owners := reg.Owners
	if len(owners) == 0 && len(signer) == ed25519.PrivateKeySize {
		owners = []ed25519.PublicKey{signer.Public().(ed25519.PublicKey)}
	}

	address, err := records.NameAddress(RecordTag, reg.Name)
	if err != nil {
		return records.Record{}, err
	}
	return records.New(RecordTag, address, 0, payload, owners, nil, signer, enc)
}

// Delete forgets name locally and returns the tombstone that replaces its record.
func (r *Registry) Delete(ctx context.Context, name string, signer ed25519.PrivateKey) (records.Record, error) {
	entries, err := r.config.Load()
	if err != nil {
		return records.Record{}, err
	}
	entries, ok := nameconfig.Remove(entries, name)
	if !ok {
		return records.Record{}, fmt.Errorf("%w: %s", ErrNameRecordNotFound, name)
	}

	current, err := r.fetch(ctx, name)
	if err != nil {
		return records.Record{}, err
	}

	rec, err := records.Successor(current, nil, signer, keys.NoEncryption)
	if err != nil {
		return records.Record{}, err
	}

	if err := r.config.Save(entries); err != nil {
		return records.Record{}, err
	}

	r.logger.Debug("deleted name", zap.String("name", name), zap.Uint64("version", rec.Version))
	return rec, nil
}

// AddService adds service to name and returns the next version of its record.
func (r *Registry) AddService(ctx context.Context, name, service string, loc directory.Location, signer ed25519.PrivateKey, enc keys.EncryptionContext) (records.Record, error) {
	return r.mutateServices(ctx, name, signer, enc, func(services map[string]directory.Location) error {
		if _, ok := services[service]; ok {
			return fmt.Errorf("%w: %s", ErrServiceAlreadyExists, service)
		}
		services[service] = loc
		return nil
	})
}

// RemoveService removes service from name and returns the next version of its record.
func (r *Registry) RemoveService(ctx context.Context, name, service string, signer ed25519.PrivateKey, enc keys.EncryptionContext) (records.Record, error) {
	return r.mutateServices(ctx, name, signer, enc, func(services map[string]directory.Location) error {
		if _, ok := services[service]; !ok {
			return fmt.Errorf("%w: %s", ErrServiceNotFound, service)
		}
		delete(services, service)
		return nil
	})
}

func (r *Registry) mutateServices(ctx context.Context, name string, signer ed25519.PrivateKey, enc keys.EncryptionContext, mutate func(map[string]directory.Location) error) (records.Record, error) {
	entries, err := r.config.Load()
	if err != nil {
		return records.Record{}, err
	}
	if _, ok := nameconfig.Find(entries, name); !ok {
		return records.Record{}, fmt.Errorf("%w: %s", ErrNameRecordNotFound, name)
	}

	current, err := r.fetch(ctx, name)
	if err != nil {
		return records.Record{}, err
	}
	nr, err := decode(current, enc)
	if err != nil {
		return records.Record{}, err
	}
	if nr.Services == nil {
		nr.Services = make(map[string]directory.Location)
	}
	if err := mutate(nr.Services); err != nil {
		return records.Record{}, err
	}

	payload, err := codec.Marshal(nr)
	if err != nil {
		return records.Record{}, err
	}
	rec, err := records.Successor(current, payload, signer, enc)
	if err != nil {
		return records.Record{}, err
	}

	r.logger.Debug("updated services",
		zap.String("name", name),
		zap.Uint64("version", rec.Version),
		zap.Int("services", len(nr.Services)))
	return rec, nil
}

// RegisteredNames returns the names owned locally, in the order they were registered.
func (r *Registry) RegisteredNames(ctx context.Context) ([]string, error) {
	entries, err := r.config.Load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

// Services returns the sorted service names of name.
func (r *Registry) Services(ctx context.Context, name string, enc keys.EncryptionContext) ([]string, error) {
	nr, err := r.lookup(ctx, name, enc)
	if err != nil {
		return nil, err
	}
	services := make([]string, 0, len(nr.Services))
	for service := range nr.Services {
		services = append(services, service)
	}
	sort.Strings(services)
	return services, nil
}

// ServiceLocation returns where service of name is stored.
func (r *Registry) ServiceLocation(ctx context.Context, name, service string, enc keys.EncryptionContext) (directory.Location, error) {
	nr, err := r.lookup(ctx, name, enc)
	if err != nil {
		return directory.Location{}, err
	}
	loc, ok := nr.Services[service]
	if !ok {
		return directory.Location{}, fmt.Errorf("%w: %s", ErrServiceNotFound, service)
	}
	return loc, nil
}

// MessagingKeys returns the messaging keypair of a locally owned name.
func (r *Registry) MessagingKeys(ctx context.Context, name string) (keys.MessagingKeyPair, error) {
	entries, err := r.config.Load()
	if err != nil {
		return keys.MessagingKeyPair{}, err
	}
	entry, ok := nameconfig.Find(entries, name)
	if !ok {
		return keys.MessagingKeyPair{}, fmt.Errorf("%w: %s", ErrNameRecordNotFound, name)
	}
	return entry.Messaging, nil
}

// Lookup fetches and decodes the public record of name.
func (r *Registry) Lookup(ctx context.Context, name string, enc keys.EncryptionContext) (NameRecord, error) {
	return r.lookup(ctx, name, enc)
}

func (r *Registry) lookup(ctx context.Context, name string, enc keys.EncryptionContext) (NameRecord, error) {
	rec, err := r.fetch(ctx, name)
	if err != nil {
		return NameRecord{}, err
	}
	return decode(rec, enc)
}

// fetch gets the current record of name from the record store.
func (r *Registry) fetch(ctx context.Context, name string) (records.Record, error) {
	address, err := records.NameAddress(RecordTag, name)
	if err != nil {
		return records.Record{}, err
	}
	rec, err := r.records.Get(ctx, address, RecordTag)
	if errors.Is(err, records.ErrRecordNotFound) {
		return records.Record{}, fmt.Errorf("%w: %s: %w", ErrNameRecordNotFound, name, err)
	}
	if err != nil {
		return records.Record{}, fmt.Errorf("failed to fetch record for %s: %w", name, err)
	}
	if rec.Tag != RecordTag {
		return records.Record{}, fmt.Errorf("%w: %d", ErrUnexpectedRecordType, rec.Tag)
	}
	return rec, nil
}

func decode(rec records.Record, enc keys.EncryptionContext) (NameRecord, error) {
	payload, err := rec.Open(enc)
	if err != nil {
		return NameRecord{}, err
	}
	var nr NameRecord
	if err := codec.Unmarshal(payload, &nr); err != nil {
		return NameRecord{}, fmt.Errorf("failed to decode name record: %w", err)
	}
	return nr, nil
}
