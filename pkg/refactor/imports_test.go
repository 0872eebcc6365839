package refactor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/pyrewrite/pkg/refactor"
)

func TestReplaceImport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		old, new string
		want     string
	}{
		{
			name: "plain import",
			src:  "import os\nimport ConfigParser\n",
			old:  "ConfigParser",
			new:  "configparser",
			want: "import os\nimport configparser\n",
		},
		{
			name: "from import keeps items",
			src:  "from urllib2 import urlopen, Request as R\n",
			old:  "urllib2",
			new:  "urllib.request",
			want: "from urllib.request import urlopen, Request as R\n",
		},
		{
			name: "only the matching name of a multi import",
			src:  "import os, imp as legacy\n",
			old:  "imp",
			new:  "importlib",
			want: "import os, importlib as legacy\n",
		},
		{
			name: "nested imports",
			src:  "def load():\n    import imp\n    return imp\n",
			old:  "imp",
			new:  "importlib",
			want: "def load():\n    import importlib\n    return imp\n",
		},
		{
			name: "exact module match only",
			src:  "import os.path\nimport os\n",
			old:  "os",
			new:  "nt",
			want: "import os.path\nimport nt\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEngine(t, tt.src)
			require.NoError(t, e.ReplaceImport(tt.old, tt.new))
			assert.Equal(t, tt.want, e.GetCode())
			assert.Equal(t, []string{"Replaced import '" + tt.old + "' with '" + tt.new + "'"}, e.ChangeSummary().Descriptions())
		})
	}
}

func TestReplaceImportAbsent(t *testing.T) {
	t.Parallel()

	src := "import os\n"
	e := newEngine(t, src)
	require.NoError(t, e.ReplaceImport("nonexistent", "other"))
	assert.Equal(t, src, e.GetCode())
	assert.Equal(t, []string{"No imports of 'nonexistent' found"}, e.ChangeSummary().Descriptions())
}

func TestReplaceImportInvalidName(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "import os\n")
	for _, name := range []string{"", "1os", "os..path", "import"} {
		assert.ErrorIs(t, e.ReplaceImport("os", name), refactor.ErrInvalidName, name)
	}
	require.NoError(t, e.ReplaceImport("os", "..pkg.os"))
	assert.Equal(t, 0+1, e.ChangeSummary().Len())
}

func TestModernizeImports(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "import imp\nimport ConfigParser\nfrom StringIO import StringIO\nimport json\n")
	require.NoError(t, e.ModernizeImports())
	assert.Equal(t, "import importlib\nimport configparser\nfrom io import StringIO\nimport json\n", e.GetCode())
	assert.Equal(t, []string{
		"Modernized imports: ConfigParser -> configparser, StringIO -> io, imp -> importlib",
	}, e.ChangeSummary().Descriptions())

	require.NoError(t, e.ModernizeImports())
	assert.Equal(t, "No legacy imports found", e.ChangeSummary()[1].Description)
}

func TestModernizeImportsCustomTable(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "import simplejson\nimport imp\n",
		refactor.WithImportTable(map[string]string{"simplejson": "json"}))
	require.NoError(t, e.ModernizeImports())
	assert.Equal(t, "import json\nimport imp\n", e.GetCode())
}

func TestRemoveUnusedImports(t *testing.T) {
	t.Parallel()

	src := `from __future__ import annotations
import os
import sys, json
from typing import List, Dict
from pathlib import Path as P
from helpers import *

__all__ = ["exported"]
from mod import exported

def f(x: "List[int]") -> None:
    return json.dumps(x)
`
	want := `from __future__ import annotations
import json
from typing import List
from helpers import *

__all__ = ["exported"]
from mod import exported

def f(x: "List[int]") -> None:
    return json.dumps(x)
`
	e := newEngine(t, src)
	require.NoError(t, e.RemoveUnusedImports())
	assert.Equal(t, want, e.GetCode())
	assert.Equal(t, []string{"Removed 4 unused imports: os, sys, Dict, Path"}, e.ChangeSummary().Descriptions())

	require.NoError(t, e.RemoveUnusedImports())
	assert.Equal(t, want, e.GetCode())
	assert.Equal(t, "No unused imports found", e.ChangeSummary()[1].Description)
}

func TestRemoveUnusedImportsDottedAndNested(t *testing.T) {
	t.Parallel()

	src := "import os.path\nimport xml.dom\n\ndef f():\n    import re\n    return os.path.join('a')\n"
	e := newEngine(t, src)
	require.NoError(t, e.RemoveUnusedImports())
	assert.Equal(t, "import os.path\n\ndef f():\n    import re\n    return os.path.join('a')\n", e.GetCode())
}

func TestRemoveUnusedImportsSemicolons(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "import os; import sys\nprint(sys.argv)\n")
	require.NoError(t, e.RemoveUnusedImports())
	assert.Equal(t, "import sys\nprint(sys.argv)\n", e.GetCode())
}
