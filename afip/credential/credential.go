// Package credential loads the certificate and private key pair used to
// sign WSAA access requests. Both values are accepted either as ready PEM
// text or as base64-encoded PEM, the two encodings operators actually
// paste into configuration.
package credential

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"

	"github.com/go-faster/errors"
	"github.com/youmark/pkcs8"

	"github.com/AssembleOrg/afip-hub/afip/model"
)

// Material is a decoded certificate + private key pair, supplied per
// call. CertPEM and KeyPEM keep the normalized PEM text for signer
// implementations that stage files for an external tool.
type Material struct {
	Certificate *x509.Certificate
	Signer      crypto.Signer
	CertPEM     []byte
	KeyPEM      []byte
}

// Load decodes an unencrypted credential pair.
func Load(cert, key []byte) (*Material, error) {
	return LoadWithPassword(cert, key, nil)
}

// LoadWithPassword decodes a credential pair whose private key may be an
// encrypted PKCS#8 block.
func LoadWithPassword(cert, key, password []byte) (*Material, error) {

	certPEM, err := normalizePEM(cert)
	if err != nil {
		return nil, &model.ValidationError{Message: "certificate: " + err.Error()}
	}
	keyPEM, err := normalizePEM(key)
	if err != nil {
		return nil, &model.ValidationError{Message: "private key: " + err.Error()}
	}

	parsedCert, err := parseCertificate(certPEM)
	if err != nil {
		return nil, &model.ValidationError{Message: "certificate: " + err.Error()}
	}
	signer, err := parseKey(keyPEM, password)
	if err != nil {
		return nil, &model.ValidationError{Message: "private key: " + err.Error()}
	}

	return &Material{
		Certificate: parsedCert,
		Signer:      signer,
		CertPEM:     certPEM,
		KeyPEM:      keyPEM,
	}, nil
}

// normalizePEM accepts PEM text directly; a value without PEM delimiters
// gets one base64 decode and a re-check. Anything else is rejected.
func normalizePEM(raw []byte) ([]byte, error) {
	trimmed := []byte(strings.TrimSpace(string(raw)))
	if len(trimmed) == 0 {
		return nil, errors.New("empty value")
	}
	if hasPEMDelimiters(trimmed) {
		return trimmed, nil
	}

	compact := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, string(trimmed))

	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, errors.New("neither PEM nor base64-encoded PEM")
	}
	decoded = []byte(strings.TrimSpace(string(decoded)))
	if !hasPEMDelimiters(decoded) {
		return nil, errors.New("decoded value has no PEM delimiters")
	}
	return decoded, nil
}

func hasPEMDelimiters(b []byte) bool {
	s := string(b)
	return strings.Contains(s, "-----BEGIN ") && strings.Contains(s, "-----END ")
}

func parseCertificate(pemBytes []byte) (*x509.Certificate, error) {
	for len(pemBytes) > 0 {
		var block *pem.Block
		block, pemBytes = pem.Decode(pemBytes)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		return x509.ParseCertificate(block.Bytes)
	}
	return nil, errors.New("no CERTIFICATE block found in PEM")
}

// parseKey handles PKCS#8 (plain and encrypted), PKCS#1 and SEC1 blocks,
// returning the first usable signer.
func parseKey(pemBytes []byte, password []byte) (crypto.Signer, error) {
	for len(pemBytes) > 0 {
		var block *pem.Block
		block, pemBytes = pem.Decode(pemBytes)
		if block == nil {
			break
		}

		switch block.Type {
		case "ENCRYPTED PRIVATE KEY":
			if len(password) == 0 {
				return nil, errors.New("password required for ENCRYPTED PRIVATE KEY")
			}
			keyAny, err := pkcs8.ParsePKCS8PrivateKey(block.Bytes, password)
			if err != nil {
				return nil, errors.Wrap(err, "decrypt PKCS#8 key")
			}
			return asSigner(keyAny)

		case "PRIVATE KEY":
			keyAny, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, errors.Wrap(err, "parse PKCS#8 key")
			}
			return asSigner(keyAny)

		case "RSA PRIVATE KEY":
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, errors.Wrap(err, "parse PKCS#1 key")
			}
			return key, nil

		case "EC PRIVATE KEY":
			key, err := x509.ParseECPrivateKey(block.Bytes)
			if err != nil {
				return nil, errors.Wrap(err, "parse EC key")
			}
			return key, nil
		}
	}
	return nil, errors.New("no private key block found in PEM")
}

func asSigner(keyAny any) (crypto.Signer, error) {
	switch k := keyAny.(type) {
	case *rsa.PrivateKey:
		return k, nil
	case *ecdsa.PrivateKey:
		return k, nil
	default:
		return nil, errors.Errorf("unsupported key type: %T (expected RSA or ECDSA)", keyAny)
	}
}
