package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCuit(t *testing.T) {

	n, err := ParseCuit("20000000001")
	if err != nil {
		t.Fatalf("valid CUIT rejected: %v", err)
	}
	assert.Equal(t, int64(20000000001), n)

	n, err = ParseCuit("23-00000000-0")
	if err != nil {
		t.Fatalf("valid separated CUIT rejected: %v", err)
	}
	assert.Equal(t, int64(23000000000), n)
}

func TestParseCuitRejects(t *testing.T) {

	var verr *ValidationError

	_, err := ParseCuit("20000000002")
	assert.ErrorAs(t, err, &verr, "wrong check digit")

	_, err = ParseCuit("123")
	assert.ErrorAs(t, err, &verr, "too short")

	_, err = ParseCuit("2000000000X")
	assert.ErrorAs(t, err, &verr, "non numeric")
}
