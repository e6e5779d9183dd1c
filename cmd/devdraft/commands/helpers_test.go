package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdraft/saligen/pkg/devdraft"
)

func TestParseQueryParams(t *testing.T) {
	query, err := parseQueryParams([]string{"status=open", "tag=a", "tag=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, "open", query.Get("status"))
	assert.Equal(t, []string{"a", "b"}, query["tag"])
	assert.Empty(t, query.Get("empty"))

	_, err = parseQueryParams([]string{"=x"})
	require.ErrorIs(t, err, ErrInvalidQueryParam)
}

func TestParseHeaders(t *testing.T) {
	headers, err := parseHeaders([]string{"X-Tenant: acme", "Authorization:Bearer abc"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X-Tenant": "acme", "Authorization": "Bearer abc"}, headers)

	headers, err = parseHeaders(nil)
	require.NoError(t, err)
	assert.Nil(t, headers)

	_, err = parseHeaders([]string{"no-colon"})
	require.ErrorIs(t, err, ErrInvalidHeader)
}

func TestParseRequestBody(t *testing.T) {
	body, err := parseRequestBody("", nil)
	require.NoError(t, err)
	assert.Nil(t, body)

	body, err = parseRequestBody(`{"a":1}`, nil)
	require.NoError(t, err)

	value, ok := body.(devdraft.Value)
	require.True(t, ok)
	assert.Equal(t, "1", value.Get("a").Text())

	body, err = parseRequestBody("-", strings.NewReader(`[1,2]`))
	require.NoError(t, err)
	assert.Equal(t, 2, body.(devdraft.Value).Len())

	_, err = parseRequestBody("@/does/not/exist.json", nil)
	require.Error(t, err)
}

func TestOutputValue(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	value, err := devdraft.ParseValue([]byte(`[{"id":"a","amount":10,"meta":{"k":"v"}},{"id":"b","note":null}]`))
	require.NoError(t, err)

	t.Run("json is the default", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, outputValue(&buf, value))
		assert.JSONEq(t, `[{"id":"a","amount":10,"meta":{"k":"v"}},{"id":"b","note":null}]`, buf.String())
	})

	t.Run("yaml", func(t *testing.T) {
		viper.Set("output", "yaml")

		var buf bytes.Buffer

		require.NoError(t, outputValue(&buf, value))
		assert.Contains(t, buf.String(), "amount: 10")
		assert.Contains(t, buf.String(), "id: b")
	})

	t.Run("table", func(t *testing.T) {
		viper.Set("output", "table")

		var buf bytes.Buffer

		require.NoError(t, outputValue(&buf, value))

		out := buf.String()
		assert.Contains(t, out, `{"k":"v"}`)
		assert.Contains(t, out, NotAvailable)
		assert.Contains(t, out, "10")
	})

	t.Run("table with no content", func(t *testing.T) {
		viper.Set("output", "table")

		var buf bytes.Buffer

		require.NoError(t, outputValue(&buf, devdraft.Null))
		assert.Equal(t, "No content\n", buf.String())
	})

	t.Run("unsupported", func(t *testing.T) {
		viper.Set("output", "xml")

		err := outputValue(&bytes.Buffer{}, value)
		require.ErrorIs(t, err, ErrUnsupportedOutputFormat)
	})
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer

	PrintError(&buf, errors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())

	buf.Reset()
	PrintError(&buf, devdraft.NewTransportFailure(errors.New("connection refused")))
	assert.Contains(t, buf.String(), "code=HTTP_ERROR")
	assert.NotContains(t, buf.String(), "Details")
}

func TestCellText(t *testing.T) {
	value, err := devdraft.ParseValue([]byte(`{"s":"x","n":1.5,"b":false,"z":null,"a":[1]}`))
	require.NoError(t, err)

	assert.Equal(t, "x", cellText(value.Get("s")))
	assert.Equal(t, "1.5", cellText(value.Get("n")))
	assert.Equal(t, "false", cellText(value.Get("b")))
	assert.Equal(t, NotAvailable, cellText(value.Get("z")))
	assert.Equal(t, "[1]", cellText(value.Get("a")))
}
