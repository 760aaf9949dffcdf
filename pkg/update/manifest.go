package update

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Manifest is the remote release list.
type Manifest struct {
	Metadata Metadata  `json:"metadata"`
	Versions []Release `json:"versions"`
}

// Metadata describes the manifest itself.
type Metadata struct {
	LastUpdated string `json:"lastUpdated"`

	// SorryURL is opened when the chosen release has no update URL.
	SorryURL string `json:"sorryUrl,omitempty"`
}

// Release is one entry of the manifest.
type Release struct {
	VersionNumber string `json:"versionNumber"`
	Push          string `json:"push"`
	Description   string `json:"description"`
	UpdateURL     string `json:"updateUrl,omitempty"`
}

// Candidate is a parsed Release.
type Candidate struct {
	Version     *semver.Version
	Push        bool
	Description string
	UpdateURL   string
}

// ParseManifest decodes a manifest body. Structural problems are reported
// as ErrManifestMalformed.
func ParseManifest(data []byte) (*Manifest, error) {
	var raw struct {
		Metadata *Metadata `json:"metadata"`
		Versions []Release `json:"versions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestMalformed, err)
	}
	if raw.Metadata == nil {
		return nil, fmt.Errorf("%w: missing metadata", ErrManifestMalformed)
	}
	if raw.Versions == nil {
		return nil, fmt.Errorf("%w: missing versions", ErrManifestMalformed)
	}
	return &Manifest{Metadata: *raw.Metadata, Versions: raw.Versions}, nil
}

// Parse converts a Release into a Candidate.
func (r Release) Parse() (Candidate, error) {
	v, err := semver.NewVersion(strings.TrimSpace(r.VersionNumber))
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: version %q: %v", ErrManifestMalformed, r.VersionNumber, err)
	}
	push, err := parsePush(r.Push)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{
		Version:     v,
		Push:        push,
		Description: r.Description,
		UpdateURL:   r.UpdateURL,
	}, nil
}

func parsePush(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false", "":
		return false, nil
	default:
		return false, fmt.Errorf("%w: push flag %q", ErrManifestMalformed, s)
	}
}
