package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BasicRecords(t *testing.T) {
	content := `
# Type  Name           Data        TTL
A       pknames.p2p    127.0.0.1   100
TXT     test           helloworld  300
`
	recs, err := ParseString(content)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, TypeA, recs[0].Type)
	assert.Equal(t, "pknames.p2p", recs[0].Name)
	assert.Equal(t, "127.0.0.1", recs[0].Data)
	assert.EqualValues(t, 100, recs[0].TTL)

	assert.Equal(t, TypeTXT, recs[1].Type)
	assert.EqualValues(t, 300, recs[1].TTL)
}

func TestParse_DefaultTTL(t *testing.T) {
	recs, err := ParseString("CNAME www example.com\n")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.EqualValues(t, DefaultTTL, recs[0].TTL)
}

func TestParse_BlankAndCommentLinesIgnored(t *testing.T) {
	recs, err := ParseString("\n# comment\n\nA host 1.2.3.4\n   \n")
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestParse_UnsupportedTypeErrors(t *testing.T) {
	_, err := ParseString("MX host mail.example.com 100")
	assert.Error(t, err)
}

func TestParse_TooFewFieldsErrors(t *testing.T) {
	_, err := ParseString("A host")
	assert.Error(t, err)
}

func TestParse_InvalidTTLErrors(t *testing.T) {
	_, err := ParseString("A host 1.2.3.4 not-a-number")
	assert.Error(t, err)
}

func TestParse_TypeIsCaseInsensitive(t *testing.T) {
	recs, err := ParseString("a host 1.2.3.4")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, TypeA, recs[0].Type)
}
