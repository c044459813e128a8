// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	NoActiveInstanceId    Id = "no_active_instance"
	NoIdentityId          Id = "no_identity"
	MalformedExpressionId Id = "malformed_expression"
	InvalidManifestId     Id = "invalid_manifest"
	UnknownAppId          Id = "unknown_app"
	ConfigLoadFailedId    Id = "config_load_failed"
	WatchLimitId          Id = "watch_limit"
)

type (
	// Id names an issue. Diagnostic codes reported by the locator are issue ids.
	Id string

	MarkdownMsg string

	HttpLink string

	// Issue is a Markdown help page for one failure mode.
	Issue struct {
		id       Id
		title    string
		mdMsg    MarkdownMsg
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id { return i.id }

// Title is a one-line summary for listings.
func (i *Issue) Title() string { return i.title }

func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

func (i *Issue) ExtLinks() []HttpLink { return slices.Clone(i.extLinks) }

// Render renders the page with the given glamour style ("dark", "light",
// "notty", or a path to a JSON style).
func (i *Issue) Render(style string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), style)
}

var (
	render = glamour.Render

	noActiveInstanceIssue = &Issue{
		id:    NoActiveInstanceId,
		title: "no compatibility-layer instance is active",
		mdMsg: `
# No active instance

Save locations are anchored in a Wine prefix. Until an instance is active,
every symbolic root (Documents, AppData, Saved Games, ...) is unmapped and
the pattern is skipped.

## Things you can try
- Point the configuration at the image filesystem:
~~~cue
instance: {
	imagefs:      "/data/app/files/imagefs"
	container_id: "1"
}
~~~
- Check the mapping that would be used:
~~~
$ saveloc roots
~~~`,
	}

	noIdentityIssue = &Issue{
		id:    NoIdentityId,
		title: "no signed-in account",
		mdMsg: `
# No signed-in account

The pattern path contains an account token such as ` + "`{AccountId32}`" + ` or
` + "`{64BitSteamID}`" + `, and no account identity is available to substitute.

## Things you can try
- Pass the account explicitly, in any of the accepted forms:
~~~
$ saveloc locate 620 --steam-id 76561198000000000
$ saveloc locate 620 --steam-id 39734272
$ saveloc locate 620 --steam-id "[U:1:39734272]"
~~~
- Or store it in the configuration:
~~~cue
account: steam_id: "76561198000000000"
~~~`,
	}

	malformedExpressionIssue = &Issue{
		id:    MalformedExpressionId,
		title: "a match expression is not a valid glob",
		mdMsg: `
# Malformed match expression

The pattern's match expression is empty or is not a valid glob. Only that
pattern is skipped; the others still contribute files.

## Syntax
- ` + "`*`" + ` matches within one path segment
- ` + "`**`" + ` matches across segments
- ` + "`?`" + ` matches one character
- ` + "`[abc]`" + `, ` + "`{a,b}`" + ` classes and alternatives

## Things you can try
- Fix the ` + "`pattern`" + ` field in the manifest, e.g. ` + "`\"**/*.sav\"`",
		extLinks: []HttpLink{"https://github.com/bmatcuk/doublestar#patterns"},
	}

	invalidManifestIssue = &Issue{
		id:    InvalidManifestId,
		title: "a manifest file could not be loaded",
		mdMsg: `
# Invalid manifest

Manifests may be written in CUE, JSON or TOML and share one shape:

~~~cue
apps: {
	"620": {
		name: "Portal 2"
		patterns: [
			{root: "SteamUserData", path: "{AccountId32}/620/remote", pattern: "**/*"},
			{root: "UserDocuments", path: "My Games/Portal 2", pattern: "*.sav"},
		]
	}
}
~~~

## Accepted roots
SystemDrive, UserProfile, UserDocuments, AppDataLocal, AppDataLocalLow,
AppDataRoaming, SavedGames, ProgramData, GameInstall, SteamUserData,
ExternalStorage. The legacy names WinMyDocuments, WinAppDataLocal,
WinAppDataLocalLow, WinAppDataRoaming, WinSavedGames, WinProgramData and Root
are accepted too.`,
	}

	unknownAppIssue = &Issue{
		id:    UnknownAppId,
		title: "the application has no save patterns",
		mdMsg: `
# Unknown application

None of the loaded manifests declares save patterns for this application.

## Things you can try
- List the known applications:
~~~
$ saveloc apps
~~~
- Add a manifest with ` + "`--manifest path/to/games.cue`" + ` or the
` + "`manifests`" + ` configuration list.`,
	}

	configLoadFailedIssue = &Issue{
		id:    ConfigLoadFailedId,
		title: "the configuration file could not be loaded",
		mdMsg: `
# Configuration could not be loaded

## Things you can try
- Show where saveloc looks for it:
~~~
$ saveloc config path
~~~
- Write a fresh file with the defaults:
~~~
$ saveloc config init
~~~`,
	}

	watchLimitIssue = &Issue{
		id:    WatchLimitId,
		title: "the system ran out of file watches",
		mdMsg: `
# Out of file watches

The operating system refused to watch more directories.

## Things you can try
- Raise the inotify limit on Linux:
~~~
$ sudo sysctl fs.inotify.max_user_watches=524288
~~~
- Narrow the manifest paths so fewer directories are watched.`,
	}

	issues = map[Id]*Issue{
		noActiveInstanceIssue.Id():    noActiveInstanceIssue,
		noIdentityIssue.Id():          noIdentityIssue,
		malformedExpressionIssue.Id(): malformedExpressionIssue,
		invalidManifestIssue.Id():     invalidManifestIssue,
		unknownAppIssue.Id():          unknownAppIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		watchLimitIssue.Id():          watchLimitIssue,
	}
)

// Values returns every issue sorted by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return strings.Compare(string(a.id), string(b.id))
	})
}

// Get returns the issue for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
