package nagios

import (
	"github.com/kdar/factorlog"
	"gopkg.in/ini.v1"
)

// Credentials are stored login data read from an INI file with a [client]
// section, the format used by the database client tools themselves:
//
//	[client]
//	user = monitoring
//	pass = secret
type Credentials struct {
	User     string
	Password string
}

// LoadCredentialsFile reads credentials from path. A missing or malformed
// file means "no stored credentials" and returns empty values, the caller
// falls back to explicit flags or an unauthenticated connection.
func LoadCredentialsFile(path string, log *factorlog.FactorLog) Credentials {
	if path == "" {
		return Credentials{}
	}

	cfg, err := ini.Load(path)
	if err != nil {
		log.Debugf("credentials file %s not usable: %s", path, err.Error())

		return Credentials{}
	}

	section := cfg.Section("client")

	return Credentials{
		User:     section.Key("user").String(),
		Password: section.Key("pass").String(),
	}
}
