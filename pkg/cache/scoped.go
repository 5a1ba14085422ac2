package cache

// ScopedKeyer wraps a Keyer with a prefix so several callers can share one
// backend without seeing each other's entries. The HTTP server scopes its
// keys this way apart from the CLI's:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(chartHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(chartHash, opts)
}

// PreviewKey generates a prefixed preview key.
func (k *ScopedKeyer) PreviewKey(layoutHash string, opts PreviewKeyOpts) string {
	return k.prefix + k.inner.PreviewKey(layoutHash, opts)
}
