package main

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/google/renameio/v2"
)

//go:embed config/pelicanconf.py.tmpl
var pelicanConfTemplate string

var pyEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)

var pelicanFuncs = template.FuncMap{
	"py":     pyString,
	"pyopt":  pyOptional,
	"pybool": pyBool,
	"pylist": pyList,
}

// pelicanConfFile returns the file name Pelican expects for env.
func pelicanConfFile(env Environment) string {
	switch env {
	case EnvProduction:
		return "publishconf.py"
	case EnvStaging:
		return "stagingconf.py"
	default:
		return "pelicanconf.py"
	}
}

// RenderPelicanConf writes settings as a Pelican python settings module
func RenderPelicanConf(w io.Writer, settings *Settings, env Environment) error {
	tmpl, err := template.New("pelicanconf").Funcs(pelicanFuncs).Parse(pelicanConfTemplate)
	if err != nil {
		return fmt.Errorf("parsing pelican template: %w", err)
	}

	data := struct {
		Env      Environment
		Settings *Settings
	}{env, settings}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("executing pelican template: %w", err)
	}
	return nil
}

// WritePelicanConf renders settings to path, replacing it atomically
func WritePelicanConf(path string, settings *Settings, env Environment) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("creating pending file %s: %w", path, err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			debugLog("cleanup pending file %s: %v", path, err)
		}
	}()

	if err := RenderPelicanConf(pending, settings, env); err != nil {
		return err
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func pyString(s string) string {
	return "'" + pyEscaper.Replace(s) + "'"
}

func pyOptional(s string) string {
	if s == "" {
		return "None"
	}
	return pyString(s)
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func pyList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = pyString(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
