package cache

import "fmt"

// OutcomeKeyOpts holds every solve option that can change an outcome.
type OutcomeKeyOpts struct {
	Strategy string `json:"strategy"`
	Domain   string `json:"domain,omitempty"`
	Symmetry bool   `json:"symmetry"`
	MagW     int    `json:"mag_w,omitempty"`
}

// ArtifactKeyOpts holds every render option that can change an artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Style  string `json:"style,omitempty"`
	Scale  int    `json:"scale,omitempty"`
	Labels bool   `json:"labels"`
	Grid   bool   `json:"grid"`
	Color  bool   `json:"color,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// OutcomeKey keys a solve of the instance with the given fingerprint hash.
	OutcomeKey(instanceHash string, opts OutcomeKeyOpts) string
	// ArtifactKey keys a rendering of the outcome with the given hash.
	ArtifactKey(outcomeHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces keys of the form kind:sha256(parts).
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// OutcomeKey implements Keyer.
func (DefaultKeyer) OutcomeKey(instanceHash string, opts OutcomeKeyOpts) string {
	return hashKey("outcome", instanceHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(outcomeHash string, opts ArtifactKeyOpts) string {
	return hashKey(fmt.Sprintf("artifact:%s", opts.Format), outcomeHash, opts)
}
