package templates

import (
	"embed"
	"io/fs"
)

// files embeds the default config file and the sample program.
//
//go:embed files
var files embed.FS

// FS returns the embedded files, rooted at the files directory.
func FS() fs.FS {
	sub, err := fs.Sub(files, "files")
	if err != nil {
		panic(err) // directory is embedded at build time
	}
	return sub
}

// ConfigYAML returns the commented default config file.
func ConfigYAML() string {
	return mustRead("config.yaml")
}

// Sample returns a short program for the example lexer.
func Sample() string {
	return mustRead("sample.mini")
}

func mustRead(name string) string {
	data, err := fs.ReadFile(files, "files/"+name)
	if err != nil {
		panic(err)
	}
	return string(data)
}
