package model

import (
	"bytes"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
)

// ManifestAssetName is the release asset that declares the component layout
const ManifestAssetName = "manifest.json"

// Manifest lists the installable components of a release. Component order
// follows the key order of the manifest JSON so progress output matches
// what the release author wrote.
type Manifest struct {
	Components []ComponentSpec
}

// ComponentSpec declares one installable component and its payload files
type ComponentSpec struct {
	Name  string
	Files []FileRef
}

// FileRef references a release asset by exact file name
type FileRef struct {
	Filename string `json:"filename"`
}

// ParseManifest parses manifest JSON while preserving the declaration
// order of components. encoding/json maps would lose the order, so the
// components object is walked token by token.
func ParseManifest(data []byte) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse manifest JSON")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, goerr.New("manifest root must be a JSON object")
	}

	var manifest Manifest
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read manifest key")
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, goerr.New("unexpected token in manifest object")
		}

		if key != "components" {
			// Unknown top-level keys are tolerated for forward compatibility
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, goerr.Wrap(err, "failed to skip manifest value", goerr.V("key", key))
			}
			continue
		}

		if err := parseComponents(dec, &manifest); err != nil {
			return nil, err
		}
	}

	return &manifest, nil
}

// parseComponents walks the "components" object preserving key order
func parseComponents(dec *json.Decoder, manifest *Manifest) error {
	tok, err := dec.Token()
	if err != nil {
		return goerr.Wrap(err, "failed to read components object")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return goerr.New("manifest components must be a JSON object")
	}

	for dec.More() {
		nameTok, err := dec.Token()
		if err != nil {
			return goerr.Wrap(err, "failed to read component name")
		}
		name, ok := nameTok.(string)
		if !ok {
			return goerr.New("unexpected token in components object")
		}

		var body struct {
			Files []FileRef `json:"files"`
		}
		if err := dec.Decode(&body); err != nil {
			return goerr.Wrap(err, "failed to parse component entry", goerr.V("component", name))
		}

		manifest.Components = append(manifest.Components, ComponentSpec{
			Name:  name,
			Files: body.Files,
		})
	}

	// Consume the closing brace of the components object
	if _, err := dec.Token(); err != nil {
		return goerr.Wrap(err, "failed to close components object")
	}
	return nil
}
