package wsaa

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/hhrutter/pkcs7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AssembleOrg/afip-hub/afip/credential"
	"github.com/AssembleOrg/afip-hub/afip/model"
)

func testMaterial(t *testing.T) *credential.Material {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(7),
		Subject:      pkix.Name{CommonName: "wsaa signer test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	m, err := credential.Load(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
	)
	require.NoError(t, err)
	return m
}

func TestCMSSignerRoundTrip(t *testing.T) {

	material := testMaterial(t)
	tra, err := BuildAccessRequest("wsfe", time.Now())
	require.NoError(t, err)

	signed, err := CMSSigner{}.Sign(tra, material)
	require.NoError(t, err)

	parsed, err := pkcs7.Parse(signed)
	require.NoError(t, err, "output must be DER PKCS#7")
	assert.Equal(t, tra, parsed.Content, "signature must be attached, not detached")
	assert.NoError(t, parsed.Verify())
}

func TestOpenSSLSigner(t *testing.T) {

	if _, err := exec.LookPath("openssl"); err != nil {
		t.Skipf("openssl not available (%v), skipping test", err)
	}

	material := testMaterial(t)
	tra, err := BuildAccessRequest("wsfe", time.Now())
	require.NoError(t, err)

	signer := &OpenSSLSigner{}
	signed, err := signer.Sign(tra, material)
	require.NoError(t, err)

	parsed, err := pkcs7.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, tra, parsed.Content)
}

func TestOpenSSLSignerFailureIsSigningError(t *testing.T) {

	material := testMaterial(t)

	signer := &OpenSSLSigner{Command: "/nonexistent/openssl"}
	_, err := signer.Sign([]byte("<x/>"), material)

	var serr *model.SigningError
	assert.ErrorAs(t, err, &serr)
}

func stagedSigningDirs(t *testing.T) map[string]bool {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "wsaa-sign-*"))
	require.NoError(t, err)

	dirs := make(map[string]bool, len(matches))
	for _, m := range matches {
		dirs[m] = true
	}
	return dirs
}

func TestOpenSSLSignerRemovesStagedMaterial(t *testing.T) {

	material := testMaterial(t)
	before := stagedSigningDirs(t)

	signer := &OpenSSLSigner{Command: "/nonexistent/openssl"}
	_, err := signer.Sign([]byte("<x/>"), material)
	require.Error(t, err)
	assert.Equal(t, before, stagedSigningDirs(t), "failed signing must not leave key material behind")

	if _, err := exec.LookPath("openssl"); err != nil {
		t.Skipf("openssl not available (%v), skipping success path", err)
	}

	tra, err := BuildAccessRequest("wsfe", time.Now())
	require.NoError(t, err)
	_, err = (&OpenSSLSigner{}).Sign(tra, material)
	require.NoError(t, err)
	assert.Equal(t, before, stagedSigningDirs(t))
}
