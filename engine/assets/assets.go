package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
)

type AssetType int

const (
	AssetTypeNone AssetType = iota
	AssetTypeSPIRV
	AssetTypeWGSL
)

type AssetInfo struct {
	Path       string
	Type       AssetType
	LastLoaded time.Time
}

// AssetManager indexes the shader directory, loads shaders by file name and,
// once Watch is called, fires EVENT_CODE_SHADER_CHANGED whenever a compiled
// shader is written.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[AssetType]Loader
	events  *core.EventBus

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager(events *core.EventBus) *AssetManager {
	return &AssetManager{
		assets: make(map[string]AssetInfo),
		loaders: map[AssetType]Loader{
			AssetTypeSPIRV: &loaders.SPIRVLoader{},
			AssetTypeWGSL:  &loaders.WGSLLoader{},
		},
		events: events,
	}
}

// Initialize indexes every shader found under dir. A missing directory is
// not an error, it just holds no shaders.
func (am *AssetManager) Initialize(dir string) error {
	am.root = dir
	err := filepath.Walk(dir, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			am.handleFileEvent(walkPath)
		}
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		core.LogWarn("shader directory %s does not exist", dir)
		return nil
	}
	return err
}

// Watch starts watching the shader directory and its sub-directories.
func (am *AssetManager) Watch() error {
	if am.fsnotify != nil {
		return nil
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	am.fsnotify = fsWatch
	am.done = make(chan struct{})
	am.stopped = make(chan struct{})

	if err := am.watchRecursive(am.root); err != nil {
		fsWatch.Close()
		am.fsnotify = nil
		return err
	}
	go am.start()
	core.LogDebug("Watching %s for shader changes.", am.root)
	return nil
}

// LoadShader loads the shader file name, relative to the shader directory.
func (am *AssetManager) LoadShader(name string) (*loaders.Shader, error) {
	path := filepath.Join(am.root, name)

	am.mutex.Lock()
	asset, exists := am.assets[path]
	if !exists {
		am.mutex.Unlock()
		return nil, fmt.Errorf("asset not found: %s", path)
	}
	asset.LastLoaded = time.Now()
	am.assets[path] = asset
	am.mutex.Unlock()

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %d", asset.Type)
	}
	return loader.Load(path)
}

// Has reports whether name was found in the shader directory.
func (am *AssetManager) Has(name string) bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	_, ok := am.assets[filepath.Join(am.root, name)]
	return ok
}

func (am *AssetManager) Shutdown() {
	if am.fsnotify == nil || am.isClosed {
		return
	}
	am.isClosed = true
	close(am.done)
	<-am.stopped
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					am.watchRecursive(e.Name)
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if am.handleFileEvent(e.Name) == AssetTypeSPIRV {
					ctx := core.EventContext{}
					ctx.Data.S = e.Name
					am.events.Fire(core.EVENT_CODE_SHADER_CHANGED, am, ctx)
				}
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("shader watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) AssetType {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return assetType
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[path] = AssetInfo{
		Path: path,
		Type: assetType,
	}
	return assetType
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}

func determineAssetType(path string) AssetType {
	switch filepath.Ext(path) {
	case ".spv":
		return AssetTypeSPIRV
	case ".wgsl":
		return AssetTypeWGSL
	default:
		return AssetTypeNone
	}
}
