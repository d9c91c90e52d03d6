package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/catalog.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// HostPolicy names the trusted artifact domains. A release's main artifact
// must live on SourceHost; dependency and documentation URLs may live on any
// of the three.
type HostPolicy struct {
	SourceHost   string
	MirrorHost   string
	RegistryHost string
}

// Trusted reports whether host is one of the allow-listed domains.
func (p HostPolicy) Trusted(host string) bool {
	switch host {
	case p.SourceHost, p.MirrorHost, p.RegistryHost:
		return host != ""
	}
	return false
}

// ValidationError reports malformed or untrusted catalog content. Object names
// the containing model node and Field the offending field.
type ValidationError struct {
	Object string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Object == "" {
		return fmt.Sprintf("invalid catalog document: field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s: field %q: %s", e.Object, e.Field, e.Reason)
}

// ParseError reports a document that could not be decoded as JSON at all.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "malformed catalog document: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// Wire-format document types. Unknown fields are ignored.
type catalogDoc struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Extensions  []extensionDoc `json:"extensions"`
}

type extensionDoc struct {
	Name     string       `json:"name"`
	Author   string       `json:"author"`
	Homepage string       `json:"homepage"`
	Starred  bool         `json:"starred"`
	Releases []releaseDoc `json:"releases"`
}

type releaseDoc struct {
	Name                   string      `json:"name"`
	MainURL                string      `json:"mainUrl"`
	RequiredDependencyURLs []string    `json:"requiredDependencyUrls"`
	OptionalDependencyURLs []string    `json:"optionalDependencyUrls"`
	JavadocsURLs           []string    `json:"javadocsUrls"`
	Versions               versionsDoc `json:"versions"`
}

type versionsDoc struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// Parse decodes and validates a catalog document. It returns a *ParseError
// for undecodable JSON, a *ValidationError for a document that decodes but
// violates a model invariant, or the fully validated catalog.
func Parse(data []byte, policy HostPolicy) (*Catalog, error) {
	if err := validateStructure(data); err != nil {
		return nil, err
	}

	var doc catalogDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	cat := &Catalog{
		Name:        doc.Name,
		Description: doc.Description,
		Extensions:  make([]Extension, 0, len(doc.Extensions)),
	}

	for _, extDoc := range doc.Extensions {
		ext, err := buildExtension(extDoc, policy)
		if err != nil {
			return nil, err
		}
		cat.Extensions = append(cat.Extensions, ext)
	}

	return cat, nil
}

// getSchema compiles the embedded JSON schema once and returns it.
func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("catalog.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("catalog.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// validateStructure checks the raw document against the embedded schema and
// converts the first reported issue into a ValidationError naming the field.
func validateStructure(data []byte) error {
	schema, err := getSchema()
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &ParseError{Err: err}
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil
	}

	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("unexpected validation error type: %w", err)
	}

	if issue := firstIssue(validationErr); issue != nil {
		return issue
	}
	return &ValidationError{Field: "document", Reason: validationErr.Error()}
}

// firstIssue walks the validation error tree and returns the first leaf error
// with a concrete instance location.
func firstIssue(ve *jsonschema.ValidationError) *ValidationError {
	if len(ve.Causes) == 0 {
		keyword := ""
		if ve.ErrorKind != nil {
			kwPath := ve.ErrorKind.KeywordPath()
			if len(kwPath) > 0 {
				keyword = kwPath[len(kwPath)-1]
			}
		}
		// Skip generic container errors that aren't informative.
		if keyword == "oneOf" || keyword == "allOf" || keyword == "$ref" || keyword == "" {
			return nil
		}

		field := "/" + strings.Join(ve.InstanceLocation, "/")
		if len(ve.InstanceLocation) == 0 {
			field = "document"
		}
		msg := ""
		if ve.ErrorKind != nil {
			msg = ve.ErrorKind.LocalizedString(printer)
		}
		return &ValidationError{Field: field, Reason: msg}
	}

	for _, cause := range ve.Causes {
		if issue := firstIssue(cause); issue != nil {
			return issue
		}
	}
	return nil
}

func buildExtension(doc extensionDoc, policy HostPolicy) (Extension, error) {
	ext := Extension{
		Name:     doc.Name,
		Author:   doc.Author,
		Homepage: doc.Homepage,
		Starred:  doc.Starred,
		Releases: make([]Release, 0, len(doc.Releases)),
	}

	for _, relDoc := range doc.Releases {
		rel, err := buildRelease(doc.Name, relDoc, policy)
		if err != nil {
			return Extension{}, err
		}
		ext.Releases = append(ext.Releases, rel)
	}

	return ext, nil
}

func buildRelease(extName string, doc releaseDoc, policy HostPolicy) (Release, error) {
	object := fmt.Sprintf("release %q of extension %q", doc.Name, extName)

	host, err := hostOf(doc.MainURL)
	if err != nil {
		return Release{}, &ValidationError{Object: object, Field: "mainUrl", Reason: err.Error()}
	}
	if host != policy.SourceHost {
		return Release{}, &ValidationError{
			Object: object,
			Field:  "mainUrl",
			Reason: fmt.Sprintf("host %q is not the designated source host %q", host, policy.SourceHost),
		}
	}

	for field, urls := range map[string][]string{
		"requiredDependencyUrls": doc.RequiredDependencyURLs,
		"optionalDependencyUrls": doc.OptionalDependencyURLs,
		"javadocsUrls":           doc.JavadocsURLs,
	} {
		for _, raw := range urls {
			host, err := hostOf(raw)
			if err != nil {
				return Release{}, &ValidationError{Object: object, Field: field, Reason: err.Error()}
			}
			if !policy.Trusted(host) {
				return Release{}, &ValidationError{
					Object: object,
					Field:  field,
					Reason: fmt.Sprintf("host %q is not a trusted artifact host", host),
				}
			}
		}
	}

	vr, verr := buildVersionRange(object, doc.Versions)
	if verr != nil {
		return Release{}, verr
	}

	return Release{
		Name:                   doc.Name,
		MainURL:                doc.MainURL,
		RequiredDependencyURLs: emptyIfNil(doc.RequiredDependencyURLs),
		OptionalDependencyURLs: emptyIfNil(doc.OptionalDependencyURLs),
		DocumentationURLs:      emptyIfNil(doc.JavadocsURLs),
		Compatibility:          vr,
	}, nil
}

func buildVersionRange(object string, doc versionsDoc) (VersionRange, error) {
	min, err := parseVersion(doc.Min)
	if err != nil {
		return VersionRange{}, &ValidationError{
			Object: object,
			Field:  "versions.min",
			Reason: fmt.Sprintf("unparseable version %q: %v", doc.Min, err),
		}
	}

	vr := VersionRange{Min: doc.Min, min: min}
	if doc.Max == "" {
		return vr, nil
	}

	max, err := parseVersion(doc.Max)
	if err != nil {
		return VersionRange{}, &ValidationError{
			Object: object,
			Field:  "versions.max",
			Reason: fmt.Sprintf("unparseable version %q: %v", doc.Max, err),
		}
	}
	if max.LessThan(min) {
		return VersionRange{}, &ValidationError{
			Object: object,
			Field:  "versions",
			Reason: fmt.Sprintf("min %q is greater than max %q", doc.Min, doc.Max),
		}
	}

	vr.Max = doc.Max
	vr.max = max
	return vr, nil
}

func hostOf(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("unparseable URL %q", raw)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL %q has no host", raw)
	}
	return parsed.Hostname(), nil
}

// emptyIfNil normalizes an absent list to an empty one, never nil.
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
