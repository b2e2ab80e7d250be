package main

import (
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `package apierrors

import "net/http"

var (
	// 1*** - document errors
	ErrA = DefinedError{Code: 1001, StatusCode: http.StatusNotFound, Err: "document " + "not found", RuErr: "Документ не найден"}
	ErrB = DefinedError{Code: 1002, Err: "bad"}

	// 5*** - common errors
	ErrC = DefinedError{Code: 5001, StatusCode: http.StatusTeapot, Err: "teapot"}
)
`

func TestCollectGroups(t *testing.T) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "sample.go", sample, parser.ParseComments)
	require.NoError(t, err)

	groups := collectGroups(fset, f)
	require.Len(t, groups, 2)

	assert.Equal(t, "1*** Document errors", groups[0].title)
	require.Len(t, groups[0].rows, 2)
	assert.Equal(t, "**1001**", groups[0].rows[0][0])
	assert.Equal(t, "404 *StatusNotFound*", groups[0].rows[0][1])
	assert.Equal(t, "`document not found`", groups[0].rows[0][2])
	assert.Equal(t, "400 *StatusBadRequest*", groups[0].rows[1][1])

	assert.Equal(t, "5*** Common errors", groups[1].title)
	assert.Equal(t, "? *StatusTeapot*", groups[1].rows[0][1])
}
