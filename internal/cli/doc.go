// Package cli defines the cobra command tree for the addonkit binary.
package cli
