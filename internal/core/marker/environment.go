package marker

import (
	"maps"
	"runtime"
)

// Marker variable names.
const (
	PythonVersion                = "python_version"
	PythonFullVersion            = "python_full_version"
	ImplementationVersion        = "implementation_version"
	OSName                       = "os_name"
	SysPlatform                  = "sys_platform"
	PlatformRelease              = "platform_release"
	PlatformSystem               = "platform_system"
	PlatformVersion              = "platform_version"
	PlatformMachine              = "platform_machine"
	PlatformPythonImplementation = "platform_python_implementation"
	ImplementationName           = "implementation_name"
	Extra                        = "extra"
)

var versionVariables = map[string]struct{}{
	PythonVersion:         {},
	PythonFullVersion:     {},
	ImplementationVersion: {},
}

// IsVersionVariable reports whether the named variable compares with version semantics.
func IsVersionVariable(name string) bool {
	_, ok := versionVariables[name]
	return ok
}

// Environment maps marker variable names to their runtime values.
type Environment map[string]string

// Lookup returns the value bound to name.
func (e Environment) Lookup(name string) (string, bool) {
	v, ok := e[name]
	return v, ok
}

// Merge returns a new environment with the entries of other layered over e.
func (e Environment) Merge(other Environment) Environment {
	out := make(Environment, len(e)+len(other))
	maps.Copy(out, e)
	maps.Copy(out, other)
	return out
}

// HostEnvironment describes the platform variables derivable from the running process.
// Interpreter variables such as python_version are not included; they must come from
// configuration or from probing the interpreter.
func HostEnvironment() Environment {
	env := Environment{
		OSName:                       "posix",
		SysPlatform:                  runtime.GOOS,
		PlatformMachine:              runtime.GOARCH,
		ImplementationName:           "cpython",
		PlatformPythonImplementation: "CPython",
	}

	switch runtime.GOOS {
	case "windows":
		env[OSName] = "nt"
		env[SysPlatform] = "win32"
		env[PlatformSystem] = "Windows"
	case "darwin":
		env[PlatformSystem] = "Darwin"
	case "linux":
		env[PlatformSystem] = "Linux"
	case "freebsd":
		env[PlatformSystem] = "FreeBSD"
	}

	switch runtime.GOARCH {
	case "amd64":
		env[PlatformMachine] = "x86_64"
	case "arm64":
		if runtime.GOOS == "linux" {
			env[PlatformMachine] = "aarch64"
		}
	case "386":
		env[PlatformMachine] = "i686"
	}

	return env
}
