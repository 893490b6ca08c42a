package assets

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/quadro/engine/assets/loaders"
	"github.com/spaghettifunk/quadro/engine/core"
)

// AssetManager loads shaders and textures from an asset directory and
// watches it for changes so textures can be re-uploaded live.
type AssetManager struct {
	dir string

	shaders  *loaders.ShaderLoader
	textures *loaders.TextureLoader

	fsnotify *fsnotify.Watcher
	changed  chan string
	done     chan struct{}
	isClosed bool
}

func NewAssetManager(dir string) (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		dir:      dir,
		shaders:  &loaders.ShaderLoader{},
		textures: &loaders.TextureLoader{},
		fsnotify: fsWatch,
		changed:  make(chan string, 16),
		done:     make(chan struct{}),
	}, nil
}

// Initialize starts the watch goroutine and registers the asset directory
// and all sub-directories.
func (am *AssetManager) Initialize() error {
	if err := am.addRecursive(am.dir); err != nil {
		return err
	}
	go am.watch()
	return nil
}

// LoadShader reads a SPIR-V module relative to the asset directory.
func (am *AssetManager) LoadShader(name string) ([]byte, error) {
	return am.shaders.Load(filepath.Join(am.dir, name))
}

// LoadTexture decodes an image relative to the asset directory.
func (am *AssetManager) LoadTexture(name string) (*loaders.TextureData, error) {
	return am.textures.Load(filepath.Join(am.dir, name))
}

// Changed returns the channel of asset paths (relative to the asset
// directory) that have been written since the last receive.
func (am *AssetManager) Changed() <-chan string {
	return am.changed
}

func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	return filepath.Walk(name, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return am.fsnotify.Add(path)
		}
		return nil
	})
}

func (am *AssetManager) watch() {
	for {
		select {
		case <-am.done:
			return
		case event, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			rel, err := filepath.Rel(am.dir, event.Name)
			if err != nil {
				continue
			}
			core.LogDebug("asset changed: %s", rel)
			select {
			case am.changed <- rel:
			default:
				// Drop when the consumer is behind; the next write will
				// re-flag the file.
			}
		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogWarn("asset watcher error: %s", err)
		}
	}
}

func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	return am.fsnotify.Close()
}
