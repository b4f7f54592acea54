package wsaa

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/hhrutter/pkcs7"

	"github.com/AssembleOrg/afip-hub/afip/credential"
	"github.com/AssembleOrg/afip-hub/afip/model"
)

// DocumentSigner wraps an access request in the CMS (PKCS#7 SignedData)
// envelope WSAA expects. Implementations return DER bytes.
type DocumentSigner interface {
	Sign(document []byte, material *credential.Material) ([]byte, error)
}

// CMSSigner signs in-process. This is the default.
type CMSSigner struct{}

func (CMSSigner) Sign(document []byte, material *credential.Material) ([]byte, error) {
	sd, err := pkcs7.NewSignedData(document)
	if err != nil {
		return nil, &model.SigningError{Err: errors.Wrap(err, "init SignedData")}
	}
	sd.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)
	if err := sd.AddSigner(material.Certificate, material.Signer, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, &model.SigningError{Err: errors.Wrap(err, "add signer")}
	}
	signed, err := sd.Finish()
	if err != nil {
		return nil, &model.SigningError{Err: errors.Wrap(err, "finish SignedData")}
	}
	return signed, nil
}

// OpenSSLSigner delegates to the openssl binary, the behavior portable
// deployments with HSM-wrapped openssl engines rely on. The request,
// certificate and key are staged as ephemeral files (the key owner-read
// only) and removed on every exit path.
type OpenSSLSigner struct {
	// Command overrides the binary, default "openssl".
	Command string
}

func (s *OpenSSLSigner) Sign(document []byte, material *credential.Material) ([]byte, error) {
	bin := s.Command
	if bin == "" {
		bin = "openssl"
	}

	dir, err := os.MkdirTemp("", "wsaa-sign-")
	if err != nil {
		return nil, &model.SigningError{Err: errors.Wrap(err, "stage dir")}
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.Warnf("could not remove staged signing material at %s: %v", dir, rmErr)
		}
	}()

	traPath := filepath.Join(dir, "request.xml")
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	outPath := filepath.Join(dir, "request.cms")

	if err := os.WriteFile(traPath, document, 0o600); err != nil {
		return nil, &model.SigningError{Err: errors.Wrap(err, "stage request")}
	}
	if err := os.WriteFile(certPath, material.CertPEM, 0o600); err != nil {
		return nil, &model.SigningError{Err: errors.Wrap(err, "stage certificate")}
	}
	if err := os.WriteFile(keyPath, material.KeyPEM, 0o400); err != nil {
		return nil, &model.SigningError{Err: errors.Wrap(err, "stage key")}
	}

	cmd := exec.Command(bin, "smime", "-sign",
		"-signer", certPath,
		"-inkey", keyPath,
		"-in", traPath,
		"-out", outPath,
		"-outform", "DER",
		"-nodetach")
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &model.SigningError{
			Err: errors.Wrapf(err, "%s smime: %s", bin, strings.TrimSpace(stderr.String())),
		}
	}

	signed, err := os.ReadFile(outPath)
	if err != nil {
		return nil, &model.SigningError{Err: errors.Wrap(err, "read signed output")}
	}
	return signed, nil
}
