package knsource

import (
	"errors"
	"testing"

	"github.com/function61/gokit/assert"
	"github.com/function61/knowledgesync/pkg/kntypes"
)

func TestResolve(t *testing.T) {
	for _, tc := range []struct {
		name   string
		spec   kntypes.SourceSpec
		url    string
		marker string
	}{
		{
			"default branch",
			kntypes.SourceSpec{Repo: "acme/docs"},
			"https://github.com/acme/docs/archive/refs/heads/main.zip",
			"acme/docs@main:main",
		},
		{
			"tag",
			kntypes.SourceSpec{Repo: "acme/docs", Tag: "v1.0"},
			"https://github.com/acme/docs/archive/refs/tags/v1.0.zip",
			"acme/docs@tag:v1.0",
		},
		{
			"release",
			kntypes.SourceSpec{Repo: "acme/docs", Release: "2024.1"},
			"https://github.com/acme/docs/archive/refs/tags/2024.1.zip",
			"acme/docs@release:2024.1",
		},
		{
			"branch",
			kntypes.SourceSpec{Repo: "acme/docs", Branch: "develop"},
			"https://github.com/acme/docs/archive/refs/heads/develop.zip",
			"acme/docs@branch:develop",
		},
		{
			"tag wins over everything",
			kntypes.SourceSpec{Repo: "acme/docs", Tag: "v1.0", Release: "2024.1", Branch: "develop"},
			"https://github.com/acme/docs/archive/refs/tags/v1.0.zip",
			"acme/docs@tag:v1.0",
		},
		{
			"release wins over branch",
			kntypes.SourceSpec{Repo: "acme/docs", Release: "2024.1", Branch: "develop"},
			"https://github.com/acme/docs/archive/refs/tags/2024.1.zip",
			"acme/docs@release:2024.1",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			url, marker, err := NewLocator().Resolve(tc.spec)
			assert.Ok(t, err)

			assert.EqualString(t, url, tc.url)
			assert.EqualString(t, marker.String(), tc.marker)
		})
	}
}

func TestResolveDefaultMarker(t *testing.T) {
	_, marker, err := NewLocator().Resolve(kntypes.SourceSpec{Repo: "acme/docs"})
	assert.Ok(t, err)

	assert.Assert(t, marker.Type == kntypes.SourceTypeMain)
	assert.EqualString(t, marker.Target, "main")
}

func TestResolveMissingRepo(t *testing.T) {
	_, _, err := NewLocator().Resolve(kntypes.SourceSpec{Tag: "v1.0"})
	assert.Assert(t, errors.Is(err, kntypes.ErrMissingSource))
}

func TestResolveCustomBaseURL(t *testing.T) {
	url, _, err := (&Locator{BaseURL: "http://127.0.0.1:8080/"}).Resolve(kntypes.SourceSpec{Repo: "acme/docs"})
	assert.Ok(t, err)

	assert.EqualString(t, url, "http://127.0.0.1:8080/acme/docs/archive/refs/heads/main.zip")
}

func TestFallbackURL(t *testing.T) {
	url, marker, err := NewLocator().Resolve(kntypes.SourceSpec{Repo: "acme/docs"})
	assert.Ok(t, err)

	fallback, ok := FallbackURL(url, marker)
	assert.Assert(t, ok)
	assert.EqualString(t, fallback, "https://github.com/acme/docs/archive/refs/heads/master.zip")

	// explicitly named refs never fall back, not even a branch called "main"
	url, marker, err = NewLocator().Resolve(kntypes.SourceSpec{Repo: "acme/docs", Branch: "main"})
	assert.Ok(t, err)

	_, ok = FallbackURL(url, marker)
	assert.Assert(t, !ok)
}
