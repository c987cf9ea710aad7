// Package browser resolves locators to files in the home directory of a
// registered service.
package browser

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"namereg/internal/directory"
	"namereg/internal/keys"
	"namereg/internal/locator"
	"namereg/internal/registry"
)

// HomePage is the file served when none is named.
const HomePage = "index.html"

// ErrHomePageNotFound is returned when the requested file is missing from the service directory.
var ErrHomePageNotFound = errors.New("could not find home page")

// Resolver looks up service locations of names.
type Resolver interface {
	ServiceLocation(ctx context.Context, name, service string, enc keys.EncryptionContext) (directory.Location, error)
}

var _ Resolver = (*registry.Registry)(nil)

// Browser fetches pages by locator.
type Browser struct {
	parser   *locator.Parser
	resolver Resolver
	dirs     *directory.Store
	enc      keys.EncryptionContext
	logger   *zap.Logger
	homePage string
}

// Option configures a Browser.
type Option func(*Browser)

func WithParser(p *locator.Parser) Option {
	return func(b *Browser) { b.parser = p }
}

func WithEncryption(enc keys.EncryptionContext) Option {
	return func(b *Browser) { b.enc = enc }
}

func WithHomePage(name string) Option {
	return func(b *Browser) { b.homePage = name }
}

func WithLogger(logger *zap.Logger) Option {
	return func(b *Browser) { b.logger = logger }
}

func New(resolver Resolver, dirs *directory.Store, opts ...Option) *Browser {
	b := &Browser{
		parser:   locator.NewParser(locator.DefaultScheme, locator.DefaultService),
		resolver: resolver,
		dirs:     dirs,
		enc:      keys.NoEncryption,
		logger:   zap.NewNop(),
		homePage: HomePage,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open returns the content of file in the service named by loc. An empty
// file means the home page.
func (b *Browser) Open(ctx context.Context, loc, file string) ([]byte, error) {
	service, name, err := b.parser.Parse(loc)
	if err != nil {
		return nil, err
	}
	if file == "" {
		file = b.homePage
	}

	dir, err := b.resolver.ServiceLocation(ctx, name, service, b.enc)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("resolved service",
		zap.String("name", name),
		zap.String("service", service),
		zap.String("location", dir.String()))

	data, err := b.dirs.ReadFile(ctx, dir, file)
	if errors.Is(err, directory.ErrFileNotFound) {
		return nil, fmt.Errorf("%w: %s in %s.%s", ErrHomePageNotFound, file, service, name)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
