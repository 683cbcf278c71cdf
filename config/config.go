package config

import (
	"fmt"

	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Structs

// Config holds all information parsed from
// supplied config file.
type Config struct {
	Distributor Distributor
	Storage     Storage
}

// Distributor describes the configuration of the public
// entry point of a voidmail setup, the listening socket
// and its optional TLS wrapping.
type Distributor struct {
	ListenMailAddr string
	PrometheusAddr string
	UseTLS         bool
	PublicTLS      *TLS
}

// TLS locates a certificate and key pair on disk.
type TLS struct {
	CertLoc string
	KeyLoc  string
}

// Storage locates the JSON documents both tables
// are snapshotted to.
type Storage struct {
	DataDir    string
	UsersFile  string
	EmailsFile string
}

// Functions

// LoadConfig takes in the path to the main config file
// of voidmail in TOML syntax and places the values from
// the file in the corresponding struct. Relative file
// locations are made absolute against the directory the
// config file lives in.
func LoadConfig(configFile string) (*Config, error) {

	conf := &Config{
		Storage: Storage{
			DataDir:    "data",
			UsersFile:  "users.json",
			EmailsFile: "emails.json",
		},
	}

	// Parse values from TOML file into struct.
	_, err := toml.DecodeFile(configFile, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read in TOML config file at '%s' with: %v", configFile, err)
	}

	if conf.Distributor.ListenMailAddr == "" {
		return nil, fmt.Errorf("config at '%s' does not define a listen address for the distributor", configFile)
	}

	if conf.Distributor.UseTLS && (conf.Distributor.PublicTLS == nil) {
		return nil, fmt.Errorf("config at '%s' enables TLS but does not supply a certificate and key location", configFile)
	}

	// Retrieve absolute path of the directory
	// the config file is located in.
	baseDir, err := filepath.Abs(filepath.Dir(configFile))
	if err != nil {
		return nil, fmt.Errorf("could not get absolute path of config directory: %v", err)
	}

	// Prefix each relative location in config with
	// just obtained absolute base directory.

	if !filepath.IsAbs(conf.Storage.DataDir) {
		conf.Storage.DataDir = filepath.Join(baseDir, conf.Storage.DataDir)
	}

	if conf.Distributor.PublicTLS != nil {

		if !filepath.IsAbs(conf.Distributor.PublicTLS.CertLoc) {
			conf.Distributor.PublicTLS.CertLoc = filepath.Join(baseDir, conf.Distributor.PublicTLS.CertLoc)
		}

		if !filepath.IsAbs(conf.Distributor.PublicTLS.KeyLoc) {
			conf.Distributor.PublicTLS.KeyLoc = filepath.Join(baseDir, conf.Distributor.PublicTLS.KeyLoc)
		}
	}

	return conf, nil
}
