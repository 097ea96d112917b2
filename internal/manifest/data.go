package manifest

// Manifest is the versioned precache declaration: the asset list fetched
// at install time, plus the shell and offline pages the fallback chains
// reach for. Bumping the version (or editing the list) is the only way to
// force a re-precache.
type Manifest struct {
	version string
	shell   string
	offline string
	assets  []string
}

func NewManifest(version string, shell string, offline string, assets []string) Manifest {
	return Manifest{
		version: version,
		shell:   shell,
		offline: offline,
		assets:  assets,
	}
}

func (m *Manifest) Version() string {
	return m.version
}

// Shell is the root-relative path of the app shell document.
func (m *Manifest) Shell() string {
	return m.shell
}

// Offline is the root-relative path of the offline fallback page.
func (m *Manifest) Offline() string {
	return m.offline
}

// Assets is the ordered precache list, shell and offline pages included.
func (m *Manifest) Assets() []string {
	cloned := make([]string, len(m.assets))
	copy(cloned, m.assets)
	return cloned
}

type manifestDTO struct {
	Version string   `yaml:"version"`
	Shell   string   `yaml:"shell,omitempty"`
	Offline string   `yaml:"offline,omitempty"`
	Assets  []string `yaml:"assets"`
}
