package model

// Asset represents a single downloadable file attached to a release
type Asset struct {
	ID   int64  // API handle used for authenticated downloads
	Name string // Exact file name as published
	Size int64  // Size in bytes as reported by the release index
	URL  string // Browser download URL, kept for diagnostics only
}

// ReleaseDescriptor represents the published release being installed.
// It is fetched once per run and treated as read-only afterwards.
type ReleaseDescriptor struct {
	Tag    string  // Release tag name, e.g. "v2.4.0"
	Assets []Asset // Assets in the order the index returned them
}

// AssetIndex builds a name-keyed lookup table over the release assets
func (r *ReleaseDescriptor) AssetIndex() map[string]Asset {
	index := make(map[string]Asset, len(r.Assets))
	for _, a := range r.Assets {
		index[a.Name] = a
	}
	return index
}

// FindAsset returns the asset with the exact given name
func (r *ReleaseDescriptor) FindAsset(name string) (Asset, bool) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a, true
		}
	}
	return Asset{}, false
}
