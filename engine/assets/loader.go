package assets

import "github.com/spaghettifunk/lumen/engine/assets/loaders"

type Loader interface {
	Load(path string) (*loaders.Shader, error)
}
