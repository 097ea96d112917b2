package manifest

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultShellPath   = "/index.html"
	defaultOfflinePath = "/offline.html"
)

// Load reads and validates a YAML manifest from path.
func Load(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse validates a YAML manifest document. The shell and offline paths
// default to /index.html and /offline.html and are appended to the asset
// list when missing: the fallback chains can only reach precached pages.
func Parse(raw []byte) (Manifest, error) {
	var dto manifestDTO
	if err := yaml.Unmarshal(raw, &dto); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	if strings.TrimSpace(dto.Version) == "" {
		return Manifest{}, fmt.Errorf("%w: version is required", ErrInvalidManifest)
	}
	if len(dto.Assets) == 0 {
		return Manifest{}, fmt.Errorf("%w: assets list is empty", ErrInvalidManifest)
	}

	shell := dto.Shell
	if shell == "" {
		shell = defaultShellPath
	}
	offline := dto.Offline
	if offline == "" {
		offline = defaultOfflinePath
	}

	assets := make([]string, 0, len(dto.Assets)+2)
	seen := make(map[string]struct{}, len(dto.Assets)+2)
	for _, asset := range dto.Assets {
		asset = strings.TrimSpace(asset)
		if asset == "" {
			continue
		}
		if !strings.HasPrefix(asset, "/") {
			return Manifest{}, fmt.Errorf("%w: asset %q is not root-relative", ErrInvalidManifest, asset)
		}
		if _, duplicate := seen[asset]; duplicate {
			continue
		}
		seen[asset] = struct{}{}
		assets = append(assets, asset)
	}
	for _, required := range []string{shell, offline} {
		if _, present := seen[required]; !present {
			seen[required] = struct{}{}
			assets = append(assets, required)
		}
	}

	return NewManifest(dto.Version, shell, offline, assets), nil
}
