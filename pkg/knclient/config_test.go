package knclient

import (
	"path/filepath"
	"testing"

	"github.com/function61/gokit/assert"
)

func envFrom(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestReadConfigFromFile(t *testing.T) {
	confPath := filepath.Join(t.TempDir(), configFilename)

	assert.Ok(t, WriteConfigWithPath(&ClientConfig{
		ServerAddr: "https://owui.example.com",
		AuthToken:  "sk-file",
	}, confPath))

	conf, err := ReadConfigWithPath(confPath, envFrom(nil))
	assert.Ok(t, err)
	assert.EqualString(t, conf.ServerAddr, "https://owui.example.com")
	assert.EqualString(t, conf.AuthToken, "sk-file")
	assert.EqualString(t, conf.ApiPath("/files/"), "https://owui.example.com/api/v1/files/")
}

func TestReadConfigEnvironmentWins(t *testing.T) {
	confPath := filepath.Join(t.TempDir(), configFilename)

	assert.Ok(t, WriteConfigWithPath(&ClientConfig{
		ServerAddr: "https://owui.example.com",
		AuthToken:  "sk-file",
	}, confPath))

	conf, err := ReadConfigWithPath(confPath, envFrom(map[string]string{
		"OWUI_API_KEY": "sk-env",
	}))
	assert.Ok(t, err)
	assert.EqualString(t, conf.ServerAddr, "https://owui.example.com")
	assert.EqualString(t, conf.AuthToken, "sk-env")
}

func TestReadConfigEnvironmentOnly(t *testing.T) {
	conf, err := ReadConfigWithPath(filepath.Join(t.TempDir(), configFilename), envFrom(map[string]string{
		"OWUI_HOSTNAME": "owui.internal",
		"OWUI_API_KEY":  "sk-env",
	}))
	assert.Ok(t, err)
	assert.EqualString(t, conf.ServerAddr, "https://owui.internal")
}

func TestReadConfigValidation(t *testing.T) {
	for _, tc := range []struct {
		name string
		conf ClientConfig
	}{
		{"trailing slash", ClientConfig{ServerAddr: "https://owui.example.com/", AuthToken: "sk"}},
		{"no token", ClientConfig{ServerAddr: "https://owui.example.com"}},
		{"no server", ClientConfig{AuthToken: "sk"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			confPath := filepath.Join(t.TempDir(), configFilename)
			assert.Ok(t, WriteConfigWithPath(&tc.conf, confPath))

			_, err := ReadConfigWithPath(confPath, envFrom(nil))
			assert.Assert(t, err != nil)
		})
	}

	_, err := ReadConfigWithPath(filepath.Join(t.TempDir(), configFilename), envFrom(nil))
	assert.Assert(t, err != nil)
}
