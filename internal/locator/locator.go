// Package locator parses user-facing locators of the form
// scheme:[service.]label.tld into a service and a name.
package locator

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	DefaultScheme  = "safe"
	DefaultService = "www"
)

// ErrMalformedLocator is returned when a locator matches neither form.
var ErrMalformedLocator = errors.New("malformed locator")

// Parser parses locators for one scheme.
type Parser struct {
	withService    *regexp.Regexp
	withoutService *regexp.Regexp
	defaultService string
}

// NewParser returns a parser for scheme that resolves bare names to defaultService.
func NewParser(scheme, defaultService string) *Parser {
	prefix := regexp.QuoteMeta(scheme) + ":"
	return &Parser{
		withService:    regexp.MustCompile(prefix + `([^.]+?)\.([^.]+?\.[^.]+)$`),
		withoutService: regexp.MustCompile(prefix + `([^.]+?\.[^.]+)$`),
		defaultService: defaultService,
	}
}

// Parse splits locator into its service and name. The service-qualified form
// is tried first.
func (p *Parser) Parse(locator string) (service, name string, err error) {
	if m := p.withService.FindStringSubmatch(locator); m != nil {
		return m[1], m[2], nil
	}
	if m := p.withoutService.FindStringSubmatch(locator); m != nil {
		return p.defaultService, m[1], nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrMalformedLocator, locator)
}

// DefaultService returns the service used for bare names.
func (p *Parser) DefaultService() string {
	return p.defaultService
}

var defaultParser = NewParser(DefaultScheme, DefaultService)

// Parse parses locator with the safe scheme and the www default service.
func Parse(locator string) (service, name string, err error) {
	return defaultParser.Parse(locator)
}
