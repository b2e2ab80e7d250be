// Генерация документации об ошибках API в формате Markdown.
// Разбирает файл с определениями DefinedError и строит таблицу кодов ошибок, сгруппированную по разделам.
//
// Основные возможности:
//   - Чтение файла Go с определениями ошибок.
//   - Группировка ошибок по комментариям-заголовкам блоков var ("1*** - document errors").
//   - Генерация Markdown-таблиц с кодом, HTTP статусом и сообщениями.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	md "github.com/nao1215/markdown"
)

// statusCodes HTTP статусы, используемые в определениях ошибок.
var statusCodes = map[string]int{
	"StatusBadRequest":            http.StatusBadRequest,
	"StatusForbidden":             http.StatusForbidden,
	"StatusNotFound":              http.StatusNotFound,
	"StatusConflict":              http.StatusConflict,
	"StatusRequestEntityTooLarge": http.StatusRequestEntityTooLarge,
	"StatusUnprocessableEntity":   http.StatusUnprocessableEntity,
	"StatusInternalServerError":   http.StatusInternalServerError,
}

type errorGroup struct {
	title string
	rows  [][]string
}

func main() {
	errorsFile := flag.String("src", "internal/esgreport/apierrors/apierrors.go", "Path of apierrors.go")
	outputMd := flag.String("out", "api_errors.md", "Path to output md")
	flag.Parse()

	slog.Info("Generate api errors docs", "src", *errorsFile, "out", *outputMd)

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, *errorsFile, nil, parser.ParseComments)
	if err != nil {
		slog.Error("Parse errors file", "err", err)
		os.Exit(1)
	}

	groups := collectGroups(fset, f)

	if err := os.MkdirAll(filepath.Dir(*outputMd), 0o755); err != nil {
		slog.Error("Create output dir", "err", err)
		os.Exit(1)
	}
	out, err := os.Create(*outputMd)
	if err != nil {
		slog.Error("Create output", "err", err)
		os.Exit(1)
	}
	defer out.Close()

	doc := md.NewMarkdown(out).
		H1("Перечень кодов ошибок").
		PlainText("Ошибки, которые возвращает API редактора отчетов.")
	for _, g := range groups {
		doc = doc.H2(g.title).CustomTable(md.TableSet{
			Header: []string{"Код", "HTTP код", "Сообщение", "Сообщение на русском"},
			Rows:   g.rows,
		}, md.TableOptions{AutoWrapText: false})
	}
	if err := doc.Build(); err != nil {
		slog.Error("Generate docs fail", "err", err)
		os.Exit(1)
	}
	slog.Info("Docs generated", "groups", len(groups))
}

// collectGroups проходит по значениям var и начинает новую группу на каждом комментарии над спецификацией.
func collectGroups(fset *token.FileSet, f *ast.File) []errorGroup {
	var groups []errorGroup
	for _, d := range f.Decls {
		decl, ok := d.(*ast.GenDecl)
		if !ok || decl.Tok != token.VAR {
			continue
		}
		for _, spec := range decl.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok || len(vs.Values) == 0 {
				continue
			}
			if vs.Doc != nil || len(groups) == 0 {
				groups = append(groups, errorGroup{title: groupTitle(vs.Doc)})
			}
			lit, ok := vs.Values[0].(*ast.CompositeLit)
			if !ok {
				continue
			}
			row, ok := errorRow(lit)
			if !ok {
				slog.Warn("Skip error definition", "name", vs.Names[0].Name, "pos", fset.Position(vs.Pos()))
				continue
			}
			groups[len(groups)-1].rows = append(groups[len(groups)-1].rows, row)
		}
	}
	return groups
}

// groupTitle "1*** - document errors" -> "1*** Document errors".
func groupTitle(doc *ast.CommentGroup) string {
	if doc == nil {
		return "Errors"
	}
	text := strings.TrimSpace(doc.Text())
	code, name, ok := strings.Cut(text, " - ")
	if !ok {
		return text
	}
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return code + " " + name
}

func errorRow(lit *ast.CompositeLit) ([]string, bool) {
	row := make([]string, 4)
	status := "StatusBadRequest"
	for _, el := range lit.Elts {
		kv, ok := el.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		switch fmt.Sprint(kv.Key) {
		case "Code":
			bl, ok := kv.Value.(*ast.BasicLit)
			if !ok {
				return nil, false
			}
			row[0] = md.Bold(bl.Value)
		case "StatusCode":
			if sel, ok := kv.Value.(*ast.SelectorExpr); ok {
				status = sel.Sel.Name
			}
		case "Err":
			row[2] = md.Code(stringValue(kv.Value))
		case "RuErr":
			row[3] = md.Code(stringValue(kv.Value))
		}
	}
	if row[0] == "" {
		return nil, false
	}
	row[1] = fmt.Sprintf("%s %s", statusCode(status), md.Italic(status))
	return row, true
}

func statusCode(name string) string {
	if code, ok := statusCodes[name]; ok {
		return strconv.Itoa(code)
	}
	return "?"
}

// stringValue собирает строку из литерала или конкатенации литералов.
func stringValue(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if s, err := strconv.Unquote(e.Value); err == nil {
			return s
		}
		return e.Value
	case *ast.BinaryExpr:
		return stringValue(e.X) + stringValue(e.Y)
	}
	return ""
}
