package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the Python extractor:
// - Top-level public defs are exported; underscore names are not
// - async def sets the async flag
// - Typed, default, and splat parameters are captured
// - Classes record superclasses, methods, and docstrings
// - Decorated definitions are unwrapped
// - Imports cover both import and from-import forms

const pySample = `import os
from collections import defaultdict

def _internal(x):
    return x

async def fetch_user(user_id: str, retries: int = 3, *args):
    """Fetch a user by id."""
    if not user_id:
        return None
    for _ in range(retries):
        try:
            return lookup(user_id)
        except KeyError:
            continue
    return None

class UserService(BaseService, Cacheable):
    """Service for user lookups."""

    registry = {}
    _cache = None

    def find(self, user_id):
        return self.registry.get(user_id)

    @staticmethod
    def _evict():
        pass
`

func extractPy(t *testing.T) *CodeFile {
	t.Helper()
	path := writeSource(t, "service.py", pySample)
	cf, err := NewPythonExtractor().Extract(context.Background(), path)
	require.NoError(t, err)
	return cf
}

func TestPython_Functions(t *testing.T) {
	t.Parallel()

	cf := extractPy(t)
	assert.Equal(t, "python", cf.Language)

	fetch := findFunction(t, cf, "fetch_user")
	assert.True(t, fetch.IsAsync)
	assert.True(t, fetch.IsExported)
	assert.Equal(t, "Fetch a user by id.", fetch.DocComment)
	require.Len(t, fetch.Parameters, 3)
	assert.Equal(t, "user_id", fetch.Parameters[0].Name)
	assert.Equal(t, "str", fetch.Parameters[0].Type)
	assert.Equal(t, "retries", fetch.Parameters[1].Name)
	assert.Equal(t, "3", fetch.Parameters[1].Default)
	assert.True(t, fetch.Parameters[1].Optional)
	assert.Equal(t, "*args", fetch.Parameters[2].Name)
	// 1 + if + for + except
	assert.Equal(t, 4, fetch.Complexity)
	assert.Contains(t, fetch.Dependencies, "lookup")

	internal := findFunction(t, cf, "_internal")
	assert.False(t, internal.IsExported)
	assert.False(t, internal.IsPublic)
}

func TestPython_Class(t *testing.T) {
	t.Parallel()

	cf := extractPy(t)
	require.Len(t, cf.Classes, 1)
	cls := cf.Classes[0]

	assert.Equal(t, "UserService", cls.Name)
	assert.True(t, cls.IsExported)
	assert.Equal(t, "BaseService", cls.Extends)
	assert.Equal(t, []string{"Cacheable"}, cls.Implements)
	assert.Equal(t, "Service for user lookups.", cls.DocComment)

	require.Len(t, cls.Methods, 2)
	assert.Equal(t, "find", cls.Methods[0].Name)
	assert.True(t, cls.Methods[0].IsPublic)
	assert.False(t, cls.Methods[0].IsExported) // method, not module-level
	require.Len(t, cls.Methods[0].Parameters, 1)
	assert.Equal(t, "user_id", cls.Methods[0].Parameters[0].Name)
	assert.Equal(t, "_evict", cls.Methods[1].Name)
	assert.False(t, cls.Methods[1].IsPublic)

	require.Len(t, cls.Properties, 2)
	assert.Equal(t, "registry", cls.Properties[0].Name)
	assert.Equal(t, "public", cls.Properties[0].Visibility)
	assert.Equal(t, "_cache", cls.Properties[1].Name)
	assert.Equal(t, "private", cls.Properties[1].Visibility)
}

func TestPython_Imports(t *testing.T) {
	t.Parallel()

	cf := extractPy(t)
	assert.Equal(t, []string{"os", "collections"}, cf.Imports)
	assert.Contains(t, cf.Exports, "fetch_user")
	assert.Contains(t, cf.Exports, "UserService")
	assert.NotContains(t, cf.Exports, "_internal")
}
