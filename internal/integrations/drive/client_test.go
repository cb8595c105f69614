package drive

import (
	"strings"
	"testing"
)

func TestFolderQueryEscapesSingleQuotes(t *testing.T) {
	q := folderQuery(`abc'def`)

	if !strings.HasPrefix(q, `'abc\'def' in parents`) {
		t.Errorf("query does not escape the folder ID: %q", q)
	}
	if strings.Contains(q, `'abc'def'`) {
		t.Errorf("unescaped quote survived in query: %q", q)
	}
}

func TestFolderQueryRestrictsToSupportedTypes(t *testing.T) {
	q := folderQuery("folder-1")

	if !strings.Contains(q, "'folder-1' in parents") {
		t.Errorf("missing parent clause: %q", q)
	}
	if !strings.Contains(q, "trashed = false") {
		t.Errorf("missing trashed clause: %q", q)
	}
	for _, m := range supportedMimeTypes {
		if !strings.Contains(q, "mimeType = '"+m+"'") {
			t.Errorf("query does not allow %s: %q", m, q)
		}
	}
}
