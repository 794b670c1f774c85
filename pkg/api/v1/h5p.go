package v1

import "encoding/json"

// Asset is one stylesheet or script reference handed to the H5P renderer.
type Asset struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

// AlterRequest carries the asset lists of one H5P render pass.
type AlterRequest struct {
	Styles    []Asset                    `json:"styles"`
	Scripts   []Asset                    `json:"scripts"`
	Libraries map[string]json.RawMessage `json:"libraries,omitempty"`
	EmbedType string                     `json:"embed_type,omitempty"`
}

type AlterResponse struct {
	Styles  []Asset `json:"styles"`
	Scripts []Asset `json:"scripts"`
}
