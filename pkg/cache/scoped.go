package cache

// ScopedKeyer prefixes every key of an inner Keyer. The pipeline scopes
// keys by build version so that outcomes of different solver builds never
// mix, and the HTTP API adds its own scope on shared backends.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v1.2.0:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner selects the
// default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// OutcomeKey generates a prefixed outcome key.
func (k *ScopedKeyer) OutcomeKey(instanceHash string, opts OutcomeKeyOpts) string {
	return k.prefix + k.inner.OutcomeKey(instanceHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(outcomeHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(outcomeHash, opts)
}
