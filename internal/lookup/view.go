package lookup

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
)

// templateRoots are the directory names view templates live under:
// 4.x templates/, 3.x src/Template/ and 2.x app/View/.
var templateRoots = []string{"templates", "Template", "View"}

// templateExtensions are the file extensions of view templates.
var templateExtensions = map[string]bool{".php": true, ".ctp": true}

// nonActionDirs hold templates that are not rendered for an action.
var nonActionDirs = map[string]bool{
	"element": true, "layout": true, "email": true, "cell": true,
	"Element": true, "Layout": true, "Email": true, "Cell": true,
	"Elements": true, "Layouts": true, "Emails": true, "Helper": true,
}

// ControllerKeyForView maps a template path to the canonical key of the
// action that renders it, e.g. templates/Admin/Movie/index.php is
// Admin:Movie:index. It reports false for paths that are not action
// templates.
func ControllerKeyForView(viewPath string) (extraction.CanonicalKey, bool) {
	parts := strings.Split(filepath.ToSlash(viewPath), "/")

	root := -1
	for i := len(parts) - 3; i >= 0; i-- {
		if isTemplateRoot(parts[i]) {
			root = i
			break
		}
	}
	if root < 0 {
		return "", false
	}

	rel := parts[root+1:]
	if len(rel) < 2 || nonActionDirs[rel[0]] {
		return "", false
	}

	file := rel[len(rel)-1]
	ext := path.Ext(file)
	action := strings.TrimSuffix(file, ext)
	if !templateExtensions[ext] || action == "" {
		return "", false
	}

	dirs := rel[:len(rel)-1]
	controller := extraction.ControllerPath{
		Prefix: strings.Join(dirs[:len(dirs)-1], "/"),
		Name:   dirs[len(dirs)-1],
	}
	return controller.Key(action), true
}

func isTemplateRoot(dir string) bool {
	for _, r := range templateRoots {
		if dir == r {
			return true
		}
	}
	return false
}
