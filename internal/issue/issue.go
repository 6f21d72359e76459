// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Catalog IDs.
const (
	InterpreterNotFoundId Id = iota + 1
	EnvironmentSetupFailedId
	DependencyInstallFailedId
	PackagingFailedId
	ProjectFileNotFoundId
	ProjectParseErrorId
	ConfigLoadFailedId
	HookFailedId
)

type (
	// Id identifies a catalog entry.
	Id int

	// MarkdownMsg is the markdown body of a catalog entry.
	MarkdownMsg string

	// HttpLink is an external documentation link.
	HttpLink string

	// Issue is a help page shown after a failed build.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// Id returns the catalog ID.
func (i *Issue) Id() Id { return i.id }

// MarkdownMsg returns the raw markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

// Render renders the issue with the given glamour style ("dark", "light",
// "notty", or a JSON style path).
func (i *Issue) Render(stylePath string) (string, error) {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			sb.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(sb.String(), stylePath)
}

var (
	render = glamour.Render

	interpreterNotFoundIssue = &Issue{
		id: InterpreterNotFoundId,
		mdMsg: `
# Python was not found!

No usable Python interpreter was found on your PATH, so nothing was installed.

## Things you can try
- Install Python 3 from https://www.python.org/downloads/
- On Windows, tick **"Add python.exe to PATH"** in the installer
- Open a new terminal so the updated PATH is picked up, then run:
~~~
$ pyship build
~~~
- Or name the interpreter explicitly in pyship.cue:
~~~cue
interpreter: candidates: ["C:/Python312/python.exe"]
~~~`,
		docLinks: []HttpLink{"https://docs.python.org/3/using/windows.html"},
	}

	environmentSetupFailedIssue = &Issue{
		id: EnvironmentSetupFailedId,
		mdMsg: `
# Could not create the virtual environment!

## Things you can try
- Delete the environment directory and build again
- Check that the ` + "`venv`" + ` module is installed (Debian: ` + "`apt install python3-venv`" + `)
- Build without an isolated environment:
~~~cue
environment: mode: "none"
~~~`,
		docLinks: []HttpLink{"https://docs.python.org/3/library/venv.html"},
	}

	dependencyInstallFailedIssue = &Issue{
		id: DependencyInstallFailedId,
		mdMsg: `
# Dependency installation failed!

pip could not install one or more packages.

## Things you can try
- Check your network connection and proxy settings
- Enable the relaxed retry when binary wheels are missing:
~~~cue
install: {
	strategy: "binary_only"
	fallback: true
}
~~~
- Relax the version pins in ` + "`dependencies.packages`" + ``,
		docLinks: []HttpLink{"https://pip.pypa.io/en/stable/cli/pip_install/"},
	}

	packagingFailedIssue = &Issue{
		id: PackagingFailedId,
		mdMsg: `
# Packaging failed!

The packaging tool did not produce the expected executable.

## Things you can try
- Read the PyInstaller output above for the first error
- Remove stale build files and retry:
~~~
$ pyship clean
$ pyship build
~~~
- Run with ` + "`--verbose`" + ` to see the exact command line`,
		docLinks: []HttpLink{"https://pyinstaller.org/en/stable/usage.html"},
	}

	projectFileNotFoundIssue = &Issue{
		id: ProjectFileNotFoundId,
		mdMsg: `
# No pyship.cue found!

## Things you can try
- Create one for the default build:
~~~
$ pyship init
~~~
- Or point at an existing file:
~~~
$ pyship build --project path/to/pyship.cue
~~~`,
	}

	projectParseErrorIssue = &Issue{
		id: ProjectParseErrorId,
		mdMsg: `
# Failed to parse pyship.cue!

## Common issues
- Invalid CUE syntax (missing quotes or braces)
- Unknown field names
- Invalid enum values (for example ` + "`install.strategy`" + `)`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load the configuration!

## Things you can try
- Show the resolved configuration:
~~~
$ pyship config show
~~~
- Recreate the default file with ` + "`pyship config init`" + ``,
	}

	hookFailedIssue = &Issue{
		id: HookFailedId,
		mdMsg: `
# A build hook failed!

` + "`hooks.pre_build`" + ` and ` + "`hooks.post_build`" + ` run in a built-in POSIX shell.

## Things you can try
- Run the snippet by hand to see the error
- Remove the hook from pyship.cue`,
	}

	issues = map[Id]*Issue{
		interpreterNotFoundIssue.Id():     interpreterNotFoundIssue,
		environmentSetupFailedIssue.Id():  environmentSetupFailedIssue,
		dependencyInstallFailedIssue.Id(): dependencyInstallFailedIssue,
		packagingFailedIssue.Id():         packagingFailedIssue,
		projectFileNotFoundIssue.Id():     projectFileNotFoundIssue,
		projectParseErrorIssue.Id():       projectParseErrorIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		hookFailedIssue.Id():              hookFailedIssue,
	}
)

// Values returns every catalog entry ordered by ID.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
