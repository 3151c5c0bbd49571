package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoint(t *testing.T) {
	p := NewPoint(1, 2)
	assert.Equal(t, 1.0, p.X)
	assert.Equal(t, 2.0, p.Y)
}

func TestNewPathCommandParsesMoveCommand(t *testing.T) {
	cmd, err := NewPathCommand("M 5.387,5.387")
	require.NoError(t, err)
	assert.Equal(t, "M", cmd.Letter)
	require.Len(t, cmd.Params, 2)
	assert.InDelta(t, 5.387, cmd.Params[0], 0.0001)
}

func TestNewPathCommandRejectsWrongParamCount(t *testing.T) {
	_, err := NewPathCommand("M 5")
	assert.Error(t, err)
}

func TestNewPathCommandRejectsInvalidLetter(t *testing.T) {
	_, err := NewPathCommand("X 5,5")
	assert.Error(t, err)
}

func TestNewPathCommandRejectsEmptyString(t *testing.T) {
	_, err := NewPathCommand("")
	assert.Error(t, err)
}

func TestNewPathFromPointsBuildsCommandsString(t *testing.T) {
	points := []*Point{NewPoint(0, 0), NewPoint(1, 1)}
	path, err := NewPathFromPoints(points, "test")
	require.NoError(t, err)
	assert.Equal(t, "test", path.ID)
	assert.Contains(t, path.CommandsStr, "M 0.000000,0.000000")
	assert.Contains(t, path.CommandsStr, "L 1.000000,1.000000")
}

func TestNewPathFromPointsRejectsEmpty(t *testing.T) {
	_, err := NewPathFromPoints(nil, "x")
	assert.Error(t, err)
}

func TestNewPathFromSvgTagParsesCommandsAndID(t *testing.T) {
	path, err := NewPathFromSvgTag(`<path id="p1" d="M 0,0 L 1,1 Z" />`)
	require.NoError(t, err)
	assert.Equal(t, "p1", path.ID)
	assert.True(t, path.IsClosed)
	require.Len(t, path.Commands, 3)
}

func TestNewPathFromSvgTagRejectsMissingD(t *testing.T) {
	_, err := NewPathFromSvgTag(`<path id="p1" />`)
	assert.Error(t, err)
}

func TestPathToPathTagReturnsExistingTag(t *testing.T) {
	path, err := NewPathFromSvgTag(`<path id="p1" d="M 0,0 L 1,1" />`)
	require.NoError(t, err)
	tag, err := path.ToPathTag()
	require.NoError(t, err)
	assert.Equal(t, path.PathTag, tag)
}

func TestPathsAddAndCount(t *testing.T) {
	paths, err := NewPaths(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, paths.NumPaths())

	p, _ := NewPathFromSvgTag(`<path d="M 0,0 L 1,1" />`)
	paths.AddPath(p)
	assert.Equal(t, 1, paths.NumPaths())
}

func TestPathsToSVGRendersEachPath(t *testing.T) {
	p, _ := NewPathFromSvgTag(`<path id="p1" d="M 0,0 L 1,1" />`)
	paths, _ := NewPaths([]*Path{p})
	svg, err := paths.ToSVG()
	require.NoError(t, err)
	assert.Contains(t, svg, `id="p1"`)
}

func TestStringIsUpperAndLower(t *testing.T) {
	assert.True(t, StringIsUpper("ABC"))
	assert.False(t, StringIsUpper("aBC"))
	assert.True(t, StringIsLower("abc"))
	assert.False(t, StringIsLower("abC"))
}

func TestGetWorkingDirectoryReturnsNonEmpty(t *testing.T) {
	dir, err := GetWorkingDirectory()
	require.NoError(t, err)
	assert.NotEmpty(t, dir)
}
