package vo

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var ErrUnsupportedLanguage = errors.New("[vo.GetLanguageProfile]unsupported language")

// LanguageProfile describes how one language is saved, compiled and run.
// Command builders receive the source path as the execution environment sees it.
type LanguageProfile struct {
	Name     string
	FileName string
	// Image is empty for profiles that run in the pool's shared image.
	Image   string
	compile func(src string) string
	run     func(workspaceID, src string) string
}

func newLanguageProfile(name, fileName string, compile func(string) string, run func(string, string) string) *LanguageProfile {
	return &LanguageProfile{
		Name:     name,
		FileName: fileName,
		compile:  compile,
		run:      run,
	}
}

// CompileCommand returns the compiler invocation, or false for interpreted languages.
func (l *LanguageProfile) CompileCommand(src string) (string, bool) {
	if l.compile == nil {
		return "", false
	}
	return l.compile(src), true
}

func (l *LanguageProfile) RunCommand(workspaceID, src string) string {
	return l.run(workspaceID, src)
}

func (l *LanguageProfile) String() string {
	return l.Name
}

// Paths are joined with forward slashes; both docker mounts and unix hosts use them.
func binaryOf(src string) string {
	return strings.TrimSuffix(src, path.Ext(src))
}

var (
	JAVA = newLanguageProfile("java", "Main.java",
		func(src string) string {
			return fmt.Sprintf("javac -encoding utf-8 %s", src)
		},
		func(_, src string) string {
			return fmt.Sprintf("java -Xmx128m -Dfile.encoding=UTF-8 -cp %s Main", path.Dir(src))
		})
	CPP = newLanguageProfile("cpp", "main.cpp",
		func(src string) string {
			return fmt.Sprintf("g++ -finput-charset=UTF-8 -fexec-charset=UTF-8 %s -o %s", src, binaryOf(src))
		},
		func(_, src string) string {
			return binaryOf(src)
		})
	GO = newLanguageProfile("go", "main.go",
		func(src string) string {
			return fmt.Sprintf("go build -o %s %s", binaryOf(src), src)
		},
		func(_, src string) string {
			return binaryOf(src)
		})
	PYTHON = newLanguageProfile("python", "main.py", nil,
		func(_, src string) string {
			return "python3 " + src
		})
	JAVASCRIPT = newLanguageProfile("javascript", "main.js", nil,
		func(_, src string) string {
			return "node " + src
		})
	RUST = newLanguageProfile("rust", "main.rs",
		func(src string) string {
			return fmt.Sprintf("rustc %s -o %s", src, binaryOf(src))
		},
		func(_, src string) string {
			return binaryOf(src)
		})
)

var profiles = []*LanguageProfile{JAVA, CPP, GO, PYTHON, JAVASCRIPT, RUST}

// GetLanguageProfile looks a profile up by name, case-insensitively.
func GetLanguageProfile(name string) (*LanguageProfile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case JAVA.Name:
		return JAVA, nil
	case CPP.Name, "c++":
		return CPP, nil
	case GO.Name, "golang":
		return GO, nil
	case PYTHON.Name, "python3":
		return PYTHON, nil
	case JAVASCRIPT.Name, "js", "node":
		return JAVASCRIPT, nil
	case RUST.Name:
		return RUST, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
	}
}

func Languages() []*LanguageProfile {
	out := make([]*LanguageProfile, len(profiles))
	copy(out, profiles)
	return out
}
