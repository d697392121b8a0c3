package csvparse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triage/backend/internal/models"
)

const header = "sender,subject,body,sent_date\n"

func TestParse_QuotedFieldsWithCommas(t *testing.T) {
	text := header + `"Jane Doe <jane@x.com>","URGENT: help","cannot access account, please","2025-01-01T00:00:00Z"`

	recs, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Jane Doe <jane@x.com>", recs[0][models.FieldSender])
	assert.Equal(t, "URGENT: help", recs[0][models.FieldSubject])
	assert.Equal(t, "cannot access account, please", recs[0][models.FieldBody])
	assert.Equal(t, "2025-01-01T00:00:00Z", recs[0][models.FieldSentDate])
}

func TestParse_MissingColumns(t *testing.T) {
	recs, err := Parse("sender,subject,sent_date\na,b,c")
	require.Error(t, err)
	assert.Nil(t, recs)

	var mc *MissingColumnsError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, []string{"body"}, mc.Missing)
	assert.Contains(t, err.Error(), "body")
}

func TestParse_EmptyInputReportsAllColumns(t *testing.T) {
	_, err := Parse("")
	var mc *MissingColumnsError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, models.RequiredFields, mc.Missing)
}

func TestParse_HeaderCaseAndOrder(t *testing.T) {
	text := " Sent_Date , BODY,Subject,SENDER \r\n2025-01-01,hello there,hi,bob@example.com\r\n"

	recs, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "bob@example.com", recs[0][models.FieldSender])
	assert.Equal(t, "hello there", recs[0][models.FieldBody])
	assert.Equal(t, "2025-01-01", recs[0][models.FieldSentDate])
}

func TestParse_DropsMalformedRows(t *testing.T) {
	text := header +
		"a@x.com,one,body one,2025-01-01\n" +
		"b@x.com,two,2025-01-01\n" + // three fields
		"c@x.com,,body three,2025-01-01\n" + // empty subject
		"\n" +
		"d@x.com,four,body four,2025-01-02\n"

	recs, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "one", recs[0][models.FieldSubject])
	assert.Equal(t, "four", recs[1][models.FieldSubject])
}

func TestParse_ExtraColumnsKept(t *testing.T) {
	text := "sender,subject,body,sent_date,channel\na@x.com,s,b,2025-01-01,email"
	recs, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "email", recs[0]["channel"])
}

func TestParse_Idempotent(t *testing.T) {
	text := header +
		`"A <a@x.com>","s1","b1","2025-01-01"` + "\n" +
		`b@x.com,s2,"b2, with comma",bad-date`

	first, err := Parse(text)
	require.NoError(t, err)
	second, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain", "a,b,c", []string{"a", "b", "c"}},
		{"quoted comma", `"a,b",c`, []string{"a,b", "c"}},
		{"doubled quote vanishes", `"say ""hi""",x`, []string{"say hi", "x"}},
		{"trailing empty", "a,b,", []string{"a", "b", ""}},
		{"empty line", "", []string{""}},
		{"unterminated quote swallows rest", `"a,b,c`, []string{"a,b,c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLine(tt.line))
		})
	}
}
