package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature_Valid(t *testing.T) {
	body := []byte(`{"action":"push","repository":{"full_name":"octo/repo"}}`)
	sig := Sign("s3cret", body)
	assert.True(t, VerifySignature("s3cret", body, sig))
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := []byte(`{"action":"push"}`)
	sig := Sign("other-secret", body)
	assert.False(t, VerifySignature("s3cret", body, sig))
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	sig := Sign("s3cret", []byte(`{"action":"push"}`))
	assert.False(t, VerifySignature("s3cret", []byte(`{"action":"pull"}`), sig))
}

func TestVerifySignature_MalformedHeader(t *testing.T) {
	body := []byte(`{}`)
	assert.False(t, VerifySignature("s3cret", body, ""))
	assert.False(t, VerifySignature("s3cret", body, "sha1=deadbeef"))
	assert.False(t, VerifySignature("s3cret", body, "sha256=not-hex"))
}

func TestVerifySignature_EmptySecretNeverVerifies(t *testing.T) {
	body := []byte(`{}`)
	sig := Sign("", body)
	assert.False(t, VerifySignature("", body, sig))
}
