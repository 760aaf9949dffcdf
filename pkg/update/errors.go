package update

import "errors"

var (
	// ErrTransportTimeout is returned when the manifest request timed out.
	ErrTransportTimeout = errors.New("update: manifest request timed out")

	// ErrTransport is returned for any other request failure.
	ErrTransport = errors.New("update: manifest request failed")

	// ErrManifestMalformed is returned when the manifest cannot be decoded.
	ErrManifestMalformed = errors.New("update: malformed manifest")
)
