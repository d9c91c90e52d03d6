// Package catalog defines the catalog model, its construction-time validation,
// and the HTTP fetcher that retrieves catalog documents.
//
// Catalog, Extension, Release, and VersionRange form an immutable value graph:
// Parse either yields a fully valid catalog or a typed error, so an invalid
// catalog is never observable. Fetched catalogs are shared read-only.
package catalog

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Catalog is a named, described collection of extensions fetched from a URI.
type Catalog struct {
	Name        string
	Description string
	Extensions  []Extension
}

// Extension is an installable add-on, identified by name within a catalog,
// offered across one or more releases.
type Extension struct {
	Name     string
	Author   string
	Homepage string
	Starred  bool
	Releases []Release
}

// Release is one installable version of an extension: its artifact URLs and
// the host-version range it is compatible with.
type Release struct {
	Name                   string
	MainURL                string
	RequiredDependencyURLs []string
	OptionalDependencyURLs []string
	DocumentationURLs      []string
	Compatibility          VersionRange
}

// ArtifactURLs returns the URLs that must be fetched to install this release:
// the main artifact, the required dependencies, and, when includeOptional is
// set, the optional dependencies.
func (r Release) ArtifactURLs(includeOptional bool) []string {
	urls := make([]string, 0, 1+len(r.RequiredDependencyURLs)+len(r.OptionalDependencyURLs))
	urls = append(urls, r.MainURL)
	urls = append(urls, r.RequiredDependencyURLs...)
	if includeOptional {
		urls = append(urls, r.OptionalDependencyURLs...)
	}
	return urls
}

// VersionRange is a host-version compatibility window. Max is optional; an
// empty Max means open-ended.
type VersionRange struct {
	Min string
	Max string

	min *semver.Version
	max *semver.Version
}

// Contains reports whether hostVersion falls inside the range. An unparseable
// host version is treated as out of range.
func (vr VersionRange) Contains(hostVersion string) bool {
	v, err := parseVersion(hostVersion)
	if err != nil || vr.min == nil {
		return false
	}
	if v.LessThan(vr.min) {
		return false
	}
	if vr.max != nil && v.GreaterThan(vr.max) {
		return false
	}
	return true
}

// Open reports whether the range has no upper bound.
func (vr VersionRange) Open() bool {
	return vr.Max == ""
}

// FindExtension returns the extension with the given name, if present.
func (c *Catalog) FindExtension(name string) (Extension, bool) {
	for _, ext := range c.Extensions {
		if ext.Name == name {
			return ext, true
		}
	}
	return Extension{}, false
}

// parseVersion strips a leading "v" and parses the version string.
func parseVersion(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(version, "v"))
}

// CompareVersions compares two version strings under the host application's
// version ordering. Returns -1, 0, or 1.
func CompareVersions(a, b string) (int, error) {
	av, err := parseVersion(a)
	if err != nil {
		return 0, err
	}
	bv, err := parseVersion(b)
	if err != nil {
		return 0, err
	}
	return av.Compare(bv), nil
}
