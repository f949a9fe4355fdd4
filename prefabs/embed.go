package prefabs

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
)

// SceneFile is the default scene spec name.
const SceneFile = "scene.yaml"

//go:embed *.yaml
var PrefabsFS embed.FS

// Load reads a spec by name. A copy under prefabs/ on disk wins over the
// embedded one so specs can be edited without rebuilding.
func Load(name string) ([]byte, error) {
	clean := cleanPrefabPath(name)
	if data, err := os.ReadFile(diskPrefabPath(clean)); err == nil {
		return data, nil
	}
	return PrefabsFS.ReadFile(clean)
}

// LoadPath reads an explicit file path, falling back to Load for bare names.
func LoadPath(path string) ([]byte, error) {
	if path == "" {
		return Load(SceneFile)
	}
	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	}
	return Load(path)
}

// DiskPath returns where the on-disk override for name lives.
func DiskPath(name string) string {
	return diskPrefabPath(cleanPrefabPath(name))
}

func cleanPrefabPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "prefabs/"); ok {
		return after
	}
	return s
}

func diskPrefabPath(clean string) string {
	return filepath.Join("prefabs", filepath.FromSlash(clean))
}
