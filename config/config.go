// Package config loads the server configuration the tools run with.
//
// The file is ini style.  Passwords and access tokens are stored
// obscured (see lib/obscure and the obscure command) and revealed
// exactly once, here.
package config

import (
	"strings"

	"github.com/Unknwon/goconfig"
	"github.com/pkg/errors"

	"github.com/joellti/davassets/davurl"
	"github.com/joellti/davassets/lib/obscure"
	"github.com/joellti/davassets/webdav"
)

// section is the config file section the remote lives in
const section = "remote"

// Settings is the configuration surface consumed by the core
type Settings struct {
	URL   string // endpoint URL, normalized to no trailing slash
	User  string
	Pass  string // revealed password
	Token string // revealed access token
	Vault string // root of the local attachment store
}

// Load reads and decodes the config file at path.
//
// Example file:
//
//	[remote]
//	url = https://dav.example.com/remote
//	user = joel
//	pass = <obscured>
//	token = <obscured>
//	vault = /home/joel/notes
func Load(path string) (*Settings, error) {
	cfg, err := goconfig.LoadConfigFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't load config file")
	}
	s := &Settings{
		URL:   strings.TrimSuffix(cfg.MustValue(section, "url", ""), "/"),
		User:  cfg.MustValue(section, "user", ""),
		Vault: cfg.MustValue(section, "vault", "."),
	}
	if s.URL == "" {
		return nil, errors.New("config: url is required")
	}
	if pass := cfg.MustValue(section, "pass", ""); pass != "" {
		s.Pass, err = obscure.Reveal(pass)
		if err != nil {
			return nil, errors.Wrap(err, "couldn't decrypt password")
		}
	}
	if token := cfg.MustValue(section, "token", ""); token != "" {
		s.Token, err = obscure.Reveal(token)
		if err != nil {
			return nil, errors.Wrap(err, "couldn't decrypt access token")
		}
	}
	return s, nil
}

// ClientOptions returns the webdav client options for these settings
func (s *Settings) ClientOptions() webdav.Options {
	return webdav.Options{
		URL:  s.URL,
		User: s.User,
		Pass: s.Pass,
	}
}

// URLConfig returns the public URL codec config for these settings
func (s *Settings) URLConfig() davurl.Config {
	return davurl.Config{
		BaseURL: s.URL,
		Token:   s.Token,
	}
}
