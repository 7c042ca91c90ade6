package lookup

// Test Plan for ControllerKeyForView and SyntacticResolver:
// - Templates map to Controller:action with the directory prefix kept
// - Absolute paths, plugin templates and the Template/ and View/ .ctp layouts work
// - Elements, layouts and non-template files map to nothing
// - Literal and raw-text bindings get concrete types, everything else is mixed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
)

func TestControllerKeyForView(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		key  extraction.CanonicalKey
		ok   bool
	}{
		{path: "templates/Movie/index.php", key: "Movie:index", ok: true},
		{path: "templates/Admin/Movie/index.php", key: "Admin:Movie:index", ok: true},
		{path: "templates/Admin/Reports/Movie/view.php", key: "Admin/Reports:Movie:view", ok: true},
		{path: "/srv/app/templates/Movie/index.php", key: "Movie:index", ok: true},
		{path: "plugins/Blog/templates/Posts/index.php", key: "Posts:index", ok: true},
		{path: "src/Template/Movie/index.ctp", key: "Movie:index", ok: true},
		{path: "app/View/Movie/index.ctp", key: "Movie:index", ok: true},
		{path: "app/View/Admin/Users/edit.ctp", key: "Admin:Users:edit", ok: true},
		{path: "app/View/Elements/menu.ctp", ok: false},
		{path: "app/View/Layouts/default.ctp", ok: false},
		{path: "src/View/Helper/PosterHelper.php", ok: false},
		{path: "templates/View/index.php", key: "View:index", ok: true},
		{path: "templates/element/menu.php", ok: false},
		{path: "templates/layout/default.php", ok: false},
		{path: "templates/index.php", ok: false},
		{path: "templates/Movie/notes.txt", ok: false},
		{path: "src/Controller/MovieController.php", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			key, ok := ControllerKeyForView(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestSyntacticResolver(t *testing.T) {
	t.Parallel()

	binding := func(kind extraction.SourceKind, symbol string) extraction.RawBinding {
		return extraction.RawBinding{Handle: extraction.VarHandle{SourceKind: kind, SymbolName: symbol}}
	}

	tests := []struct {
		name     string
		binding  extraction.RawBinding
		expected TypeDescriptor
	}{
		{"string literal", binding(extraction.SourceKindLiteral, "All Movies"), TypeString},
		{"numeric literal", binding(extraction.SourceKindLiteral, "42"), TypeInt},
		{"float", binding(extraction.SourceKindUnknown, "8.8"), TypeFloat},
		{"bool", binding(extraction.SourceKindUnknown, "TRUE"), TypeBool},
		{"null", binding(extraction.SourceKindUnknown, "null"), TypeNull},
		{"array", binding(extraction.SourceKindUnknown, "['admin', 'editor']"), TypeArray},
		{"array access", binding(extraction.SourceKindUnknown, "$row['x']"), TypeMixed},
		{"local", binding(extraction.SourceKindLocal, "movies"), TypeMixed},
		{"call", binding(extraction.SourceKindCall, "$this->fetchTable('Movies')"), TypeMixed},
		{"property", binding(extraction.SourceKindProperty, "statusMessage"), TypeMixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, SyntacticResolver{}.ResolveType(tt.binding))
		})
	}
}
