package pacman

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchOutput = `extra/firefox 128.0-1 [installed]
    Fast, Private & Safe Web Browser
extra/firefox-developer-edition 129.0b4-1
    Developer Edition of the popular Firefox web browser
core/glibc 2.39-4
    GNU C Library
`

func TestParseSearch(t *testing.T) {
	results := ParseSearch(searchOutput)
	require.Len(t, results, 3)

	assert.Equal(t, SearchResult{
		Repository:  "extra",
		Name:        "firefox",
		Version:     "128.0-1",
		Description: "Fast, Private & Safe Web Browser",
		Installed:   true,
	}, results[0])

	assert.Equal(t, "firefox-developer-edition", results[1].Name)
	assert.False(t, results[1].Installed)
	assert.Equal(t, "core", results[2].Repository)
}

func TestParseSearchSkipsNoise(t *testing.T) {
	out := ":: Synchronizing package databases...\n" + searchOutput
	assert.Len(t, ParseSearch(out), 3)
	assert.Empty(t, ParseSearch(""))
}

func TestParseLocalSearch(t *testing.T) {
	out := "local/vim 9.1.0-1\n    Vi Improved\n"
	results := ParseLocalSearch(out)
	require.Len(t, results, 1)
	assert.True(t, results[0].Installed)
	assert.Equal(t, "vim", results[0].Name)
}

func TestParseInstalledList(t *testing.T) {
	out := "bash 5.2.026-2\nfirefox 128.0-1\n\n"
	pkgs := ParseInstalledList(out)
	require.Len(t, pkgs, 2)
	assert.Equal(t, InstalledPackage{Name: "bash", Version: "5.2.026-2"}, pkgs[0])
}

func TestParseUpdates(t *testing.T) {
	out := `firefox 127.0-1 -> 128.0-1
linux 6.9.1.arch1-1 -> 6.9.2.arch1-1
vim 9.1.0-1 -> 9.1.1-1 [ignored]
`
	updates := ParseUpdates(out)
	require.Len(t, updates, 2)
	assert.Equal(t, Update{Name: "firefox", OldVersion: "127.0-1", NewVersion: "128.0-1"}, updates[0])
}

func TestParseRepoList(t *testing.T) {
	out := `core bash 5.2.026-2 [installed]
extra firefox 128.0-1 [installed: 127.0-1]
extra inkscape 1.3-1
`
	pkgs := ParseRepoList(out)
	require.Len(t, pkgs, 3)
	assert.True(t, pkgs[0].Installed)
	assert.True(t, pkgs[1].Installed)
	assert.False(t, pkgs[2].Installed)
	assert.Equal(t, "extra", pkgs[2].Repository)
}

func TestParseNameList(t *testing.T) {
	assert.Equal(t, []string{"gtk2", "libdvdcss"}, ParseNameList("gtk2\nlibdvdcss\n\n"))
	assert.Empty(t, ParseNameList(""))
}

const detailsOutput = `Name            : firefox
Version         : 128.0-1
Description     : Fast, Private & Safe Web Browser
URL             : https://www.mozilla.org/firefox/
Licenses        : MPL-2.0
Depends On      : gtk3  libxt  mime-types  dbus  ffmpeg
Required By     : None
Installed Size  : 231.53 MiB
`

func TestParseDetails(t *testing.T) {
	d := ParseDetails(detailsOutput)
	assert.Equal(t, "firefox", d.Name)
	assert.Equal(t, "128.0-1", d.Version)
	assert.Equal(t, "https://www.mozilla.org/firefox/", d.URL)
	assert.Equal(t, "231.53 MiB", d.InstalledSize)
	assert.Equal(t, []string{"gtk3", "libxt", "mime-types", "dbus", "ffmpeg"}, d.Depends)
	assert.Nil(t, d.RequiredBy, "Required By: None should parse as empty")
}

func TestParseDetailsContinuationLines(t *testing.T) {
	out := "Name            : big\nDepends On      : alpha  beta\n                  gamma\n"
	d := ParseDetails(out)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, d.Depends)
}

func TestParseTree(t *testing.T) {
	out := "firefox\ngtk3\nlibxt\n"
	assert.Equal(t, []string{"gtk3", "libxt"}, ParseTree(out))
	assert.Empty(t, ParseTree("firefox\n"))
	assert.Empty(t, ParseTree(""))
}

func TestStripVersionConstraint(t *testing.T) {
	cases := map[string]string{
		"glibc>=2.39": "glibc",
		"electron=28": "electron",
		"gcc-libs":    "gcc-libs",
		"openssl<3.0": "openssl",
		"zlib<=1.3.1": "zlib",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripVersionConstraint(in), in)
	}
}
