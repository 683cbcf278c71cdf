package crypto

import (
	"fmt"

	"crypto/tls"
)

// Functions

// NewPublicTLSConfig returns a TLS config that is to be used
// when exposing the mail port to the public Internet. It defines
// very strict defaults but assumes that available system cert
// pools will be used when verifying certificates.
func NewPublicTLSConfig(certLoc string, keyLoc string) (*tls.Config, error) {

	var err error

	// Define very strict defaults for public TLS usage.
	// Good parts of them were taken from the excellent post:
	// "Achieving a Perfect SSL Labs Score with Go":
	// https://blog.bracelab.com/achieving-perfect-ssl-labs-score-with-go
	config := &tls.Config{
		Certificates:             make([]tls.Certificate, 1),
		InsecureSkipVerify:       false,
		MinVersion:               tls.VersionTLS12,
		CurvePreferences:         []tls.CurveID{tls.CurveP521, tls.CurveP384, tls.CurveP256},
		PreferServerCipherSuites: true,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA,
			tls.TLS_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_RSA_WITH_AES_256_CBC_SHA,
		},
	}

	// Put certificate specified via arguments as the
	// only certificate into config.
	config.Certificates[0], err = tls.LoadX509KeyPair(certLoc, keyLoc)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS cert and key: %v", err)
	}

	return config, nil
}
