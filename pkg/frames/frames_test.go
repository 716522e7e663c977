package frames

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/errhunter/pkg/types"
)

const nodeStack = `Error: boom
    at add (/app/dist/math.js:3:9)
    at Object.<anonymous> (/app/dist/main.js:10:15)
    at async run (/app/dist/main.js:20:3)
    at Module._compile (node:internal/modules/cjs/loader:1256:14)
    at /app/node_modules/lib/index.js:1:20
    at async Promise.all (index 0)
    at file:///app/dist/esm.mjs:7:1`

func TestParse_V8(t *testing.T) {
	frames := Parse(nodeStack)

	require.Len(t, frames, 6)
	assert.Equal(t, types.Frame{Function: "add", FileName: "/app/dist/math.js", Line: 3, Column: 9}, frames[0])
	assert.Equal(t, types.Frame{Function: "Object.<anonymous>", FileName: "/app/dist/main.js", Line: 10, Column: 15}, frames[1])
	assert.Equal(t, types.Frame{Function: "run", FileName: "/app/dist/main.js", Line: 20, Column: 3}, frames[2])
	assert.Equal(t, "node:internal/modules/cjs/loader", frames[3].FileName)
	assert.Equal(t, types.Frame{FileName: "/app/node_modules/lib/index.js", Line: 1, Column: 20}, frames[4])
	assert.Equal(t, types.Frame{FileName: "/app/dist/esm.mjs", Line: 7, Column: 1}, frames[5])
}

func TestParse_Goja(t *testing.T) {
	stack := "Error: boom\n" +
		"\tat fail (/app/dist/a.js:4:9(12))\n" +
		"\tat /app/dist/a.js:9:1(25)\n" +
		"\tat native\n"
	frames := Parse(stack)

	require.Len(t, frames, 2)
	assert.Equal(t, types.Frame{Function: "fail", FileName: "/app/dist/a.js", Line: 4, Column: 9}, frames[0])
	assert.Equal(t, types.Frame{FileName: "/app/dist/a.js", Line: 9, Column: 1}, frames[1])
}

func TestParse_Gecko(t *testing.T) {
	frames := Parse("add@/app/dist/math.js:3:9\n@/app/dist/main.js:1:1")

	require.Len(t, frames, 2)
	assert.Equal(t, "add", frames[0].Function)
	assert.Equal(t, "/app/dist/math.js", frames[0].FileName)
	assert.Equal(t, "", frames[1].Function)
}

func TestParse_NoFrames(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("Error: just a message"))
}

func TestFilter_ProjectFrames(t *testing.T) {
	f, err := NewFilter(nil, nil)
	require.NoError(t, err)

	frames := f.ProjectFrames(nodeStack)
	require.Len(t, frames, 4)
	assert.Equal(t, "add", frames[0].Function)
	for _, fr := range frames {
		assert.NotContains(t, fr.FileName, "node_modules")
		assert.NotContains(t, fr.FileName, "node:")
	}
}

func TestFilter_ExcludePatterns(t *testing.T) {
	f, err := NewFilter(nil, []string{`\.test\.js$`, `^/app/dist/(?!math)`})
	require.NoError(t, err)

	assert.True(t, f.IsProject(types.Frame{FileName: "/app/dist/math.js"}))
	assert.False(t, f.IsProject(types.Frame{FileName: "/app/dist/main.js"}))
	assert.False(t, f.IsProject(types.Frame{FileName: "/app/spec/a.test.js"}))
	assert.False(t, f.IsProject(types.Frame{FileName: "relative/a.js"}))
}

func TestFilter_CustomDependencyDirs(t *testing.T) {
	f, err := NewFilter([]string{"/vendor/"}, nil)
	require.NoError(t, err)

	assert.False(t, f.IsProject(types.Frame{FileName: "/app/vendor/x.js"}))
	assert.True(t, f.IsProject(types.Frame{FileName: "/app/node_modules/x.js"}))
}

func TestNewFilter_InvalidPattern(t *testing.T) {
	_, err := NewFilter(nil, []string{"("})
	assert.Error(t, err)
}
