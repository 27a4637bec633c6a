// Package web holds the page templates and static assets compiled into the
// binary.
package web

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed static templates
var files embed.FS

// StaticFS returns the CSS and JavaScript served under /static/.
func StaticFS() fs.FS { return mustSub("static") }

// TemplatesFS returns the page templates.
func TemplatesFS() fs.FS { return mustSub("templates") }

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(files, dir)
	if err != nil {
		panic(fmt.Sprintf("embedded %s directory: %v", dir, err))
	}
	return sub
}
