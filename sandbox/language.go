package sandbox

import (
	"path"
	"strings"
)

// Language is a supported source language.
type Language int

// Supported languages
const (
	Python Language = iota + 1
	JavaScript
	Cpp
	C
	Java
)

var languageNames = map[Language]string{
	Python:     "python",
	JavaScript: "javascript",
	Cpp:        "cpp",
	C:          "c",
	Java:       "java",
}

// Languages lists every supported language in a stable order.
func Languages() []Language {
	return []Language{Python, JavaScript, Cpp, C, Java}
}

func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseLanguage maps a request's language name onto a Language.
func ParseLanguage(name string) (Language, bool) {
	for l, n := range languageNames {
		if n == name {
			return l, true
		}
	}
	return 0, false
}

// Toolchain names the binaries used for a language. Empty fields select
// the defaults of the language's Spec.
type Toolchain struct {
	Compiler    string
	Interpreter string
}

// Spec describes how one language is staged, built and run. Argument
// builders receive the directory at which the toolchain sees the workspace.
type Spec struct {
	Language Language
	// FileName is the name the source is written under.
	FileName string
	// Compile builds the argv of the compile step; nil for interpreted languages.
	Compile func(tc Toolchain, dir string) []string
	Run     func(tc Toolchain, dir string) []string
}

// Compiled reports whether the language has a separate compile step.
func (s Spec) Compiled() bool {
	return s.Compile != nil
}

// Extension returns the source file extension without the dot.
func (s Spec) Extension() string {
	return strings.TrimPrefix(path.Ext(s.FileName), ".")
}

const programName = "program"

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// path.Join is used over filepath.Join because container workspaces are
// always addressed with forward slashes.
var specs = map[Language]Spec{
	Python: {
		Language: Python,
		FileName: "main.py",
		Run: func(tc Toolchain, dir string) []string {
			return []string{or(tc.Interpreter, "python3"), path.Join(dir, "main.py")}
		},
	},
	JavaScript: {
		Language: JavaScript,
		FileName: "main.js",
		Run: func(tc Toolchain, dir string) []string {
			return []string{or(tc.Interpreter, "node"), path.Join(dir, "main.js")}
		},
	},
	Cpp: {
		Language: Cpp,
		FileName: "main.cpp",
		Compile: func(tc Toolchain, dir string) []string {
			return []string{or(tc.Compiler, "g++"), "-std=c++11", path.Join(dir, "main.cpp"), "-o", path.Join(dir, programName)}
		},
		Run: func(_ Toolchain, dir string) []string {
			return []string{path.Join(dir, programName)}
		},
	},
	C: {
		Language: C,
		FileName: "main.c",
		Compile: func(tc Toolchain, dir string) []string {
			return []string{or(tc.Compiler, "gcc"), path.Join(dir, "main.c"), "-o", path.Join(dir, programName)}
		},
		Run: func(_ Toolchain, dir string) []string {
			return []string{path.Join(dir, programName)}
		},
	},
	Java: {
		Language: Java,
		// javac requires the public class to live in a file of the same name
		FileName: "Main.java",
		Compile: func(tc Toolchain, dir string) []string {
			return []string{or(tc.Compiler, "javac"), path.Join(dir, "Main.java")}
		},
		Run: func(tc Toolchain, dir string) []string {
			return []string{or(tc.Interpreter, "java"), "-cp", dir, "Main"}
		},
	},
}

// SpecFor returns the Spec of l.
func SpecFor(l Language) (Spec, bool) {
	s, ok := specs[l]
	return s, ok
}
