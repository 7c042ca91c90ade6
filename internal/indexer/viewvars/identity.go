package viewvars

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
)

const (
	controllerDir    = "Controller"
	controllerSuffix = "Controller"
)

// ControllerPathFromFile derives a controller's identity from its file
// location, e.g. src/Controller/Admin/UsersController.php is {Admin, Users}.
// It reports false when the file name has nothing left after removing the
// Controller suffix.
func ControllerPathFromFile(filePath string) (extraction.ControllerPath, bool) {
	parts := strings.Split(filepath.ToSlash(filePath), "/")
	base := parts[len(parts)-1]
	name := strings.TrimSuffix(strings.TrimSuffix(base, path.Ext(base)), controllerSuffix)
	if name == "" {
		return extraction.ControllerPath{}, false
	}

	dirs := parts[:len(parts)-1]
	prefix := ""
	for i := len(dirs) - 1; i >= 0; i-- {
		if dirs[i] == controllerDir {
			prefix = strings.Join(dirs[i+1:], "/")
			break
		}
	}
	return extraction.ControllerPath{Prefix: prefix, Name: name}, true
}

// IsControllerFile reports whether filePath is a PHP controller class file
// under a Controller directory.
func IsControllerFile(filePath string) bool {
	slashed := filepath.ToSlash(filePath)
	if !strings.HasSuffix(slashed, controllerSuffix+".php") {
		return false
	}
	if !strings.HasPrefix(slashed, controllerDir+"/") && !strings.Contains(slashed, "/"+controllerDir+"/") {
		return false
	}
	_, ok := ControllerPathFromFile(slashed)
	return ok
}

// Identify builds the file identity used by the extractor, or reports false
// for files that are not controllers.
func Identify(filePath string) (FileIdentity, bool) {
	if !IsControllerFile(filePath) {
		return FileIdentity{}, false
	}
	controller, _ := ControllerPathFromFile(filePath)
	return FileIdentity{Path: filePath, Controller: controller}, true
}
