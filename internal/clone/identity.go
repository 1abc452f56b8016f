package clone

import "strings"

// BaseNamespace returns the part of identifier before its first ':'.
// An identifier without a namespace is its own base.
func BaseNamespace(identifier string) string {
	if idx := strings.IndexByte(identifier, ':'); idx >= 0 {
		return identifier[:idx]
	}
	return identifier
}

// DeriveNamespace returns the namespace every copy of src is created under.
// An empty suffix falls back to DefaultSuffix.
func DeriveNamespace(src SourceReference, mode NamespaceMode, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	if mode.Kind == NamespaceCustom {
		return mode.Name + suffix
	}
	return BaseNamespace(src.Identifier) + suffix
}
