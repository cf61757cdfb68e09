package core

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/charset"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/table"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/validation"
)

func csvWithRows(n int) []byte {
	var b strings.Builder
	b.WriteString("name,age\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "user%d,%d\n", i, 20+i)
	}
	return []byte(b.String())
}

func TestParseForPreview_Basic(t *testing.T) {
	res, err := ParseForPreview([]byte("name,age\nAlice,30\nBob,25\n"), 10, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age"}, res.Headers)
	assert.Equal(t, [][]string{{"Alice", "30"}, {"Bob", "25"}}, res.Rows)
	assert.Equal(t, 2, res.TotalRows)
	assert.Equal(t, 2, res.TotalColumns)
	assert.False(t, res.HasMore)
	assert.Equal(t, charset.UTF8, res.Encoding)
	assert.Equal(t, 100, res.EncodingConfidence)
	assert.Nil(t, res.Validation)
}

func TestParseForPreview_Paging(t *testing.T) {
	tests := []struct {
		name        string
		rows        int
		maxRows     int
		wantRows    int
		wantHasMore bool
	}{
		{"fewer rows than page", 3, 10, 3, false},
		{"exactly one page", 5, 5, 5, false},
		{"more rows than page", 5, 2, 2, true},
		{"zero uses default", 150, 0, DefaultPreviewRows, true},
		{"negative uses default", 20, -1, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseForPreview(csvWithRows(tt.rows), tt.maxRows, nil)
			require.NoError(t, err)

			assert.Len(t, res.Rows, tt.wantRows)
			assert.Equal(t, tt.rows, res.TotalRows)
			assert.Equal(t, tt.wantHasMore, res.HasMore)
		})
	}
}

func TestParseForPreview_BlankLinesNotCounted(t *testing.T) {
	res, err := ParseForPreview([]byte("a,b\r\n\r\n1,2\r\n   \r\n3,4\r\n\r\n"), 10, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalRows)
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, res.Rows)
}

func TestParseForPreview_RaggedRows(t *testing.T) {
	res, err := ParseForPreview([]byte("a,b,c\n1\n1,2,3,4\n"), 10, nil)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"1", "", ""}, {"1", "2", "3"}}, res.Rows)
	assert.Equal(t, 3, res.TotalColumns)
}

func TestParseForPreview_QuotedFields(t *testing.T) {
	res, err := ParseForPreview([]byte("name,note\n\"Smith, J\",\"say \"\"hi\"\"\"\n"), 10, nil)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"Smith, J", `say "hi"`}}, res.Rows)
}

func TestParseForPreview_Empty(t *testing.T) {
	for _, in := range []string{"", "\n\n", "  \r\n\t\n"} {
		_, err := ParseForPreview([]byte(in), 10, nil)
		assert.ErrorIs(t, err, table.ErrEmptyFile, "input %q", in)
	}
}

func TestParseForPreview_HeaderOnly(t *testing.T) {
	res, err := ParseForPreview([]byte("name,email\n"), 10, []validation.FieldRule{
		{Name: "name", Required: true},
	})
	require.NoError(t, err)

	assert.Empty(t, res.Rows)
	assert.Equal(t, 0, res.TotalRows)
	assert.False(t, res.HasMore)
	require.NotNil(t, res.Validation)
	assert.True(t, res.Validation.Valid)
}

func TestParseForPreview_BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, "姓名,部門\n張三,研發部\n"...)

	res, err := ParseForPreview(data, 10, nil)
	require.NoError(t, err)

	assert.Equal(t, charset.UTF8, res.Encoding)
	assert.Equal(t, 100, res.EncodingConfidence)
	assert.Equal(t, []string{"姓名", "部門"}, res.Headers)
}

func TestParseForPreview_LegacyEncodings(t *testing.T) {
	text := "姓名,部門\n張三,研發部\n李四,業務部\n"

	t.Run("big5", func(t *testing.T) {
		data, err := traditionalchinese.Big5.NewEncoder().Bytes([]byte(text))
		require.NoError(t, err)

		res, err := ParseForPreview(data, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, charset.Big5, res.Encoding)
		assert.Equal(t, []string{"姓名", "部門"}, res.Headers)
		assert.Equal(t, []string{"張三", "研發部"}, res.Rows[0])
	})

	t.Run("gbk", func(t *testing.T) {
		// Each € is byte 0x80, invalid in Big5. Four of them cost the Big5
		// reading 20 points, so it drops below GBK's clamped 100.
		simplified := "姓名,部门,学费\n张三,研发部,€100\n李四,市场部,€200\n王五,财务部,€300\n赵六,人事部,€400\n"
		data, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(simplified))
		require.NoError(t, err)

		res, err := ParseForPreview(data, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, charset.GBK, res.Encoding)
		assert.Equal(t, []string{"姓名", "部门", "学费"}, res.Headers)
		assert.Equal(t, []string{"张三", "研发部", "€100"}, res.Rows[0])
	})
}

func TestParseForPreview_Idempotent(t *testing.T) {
	data, err := traditionalchinese.Big5.NewEncoder().Bytes([]byte("姓名,年齡\n張三,30\n李四,老\n\n王五,\n"))
	require.NoError(t, err)
	rules := []validation.FieldRule{
		{Name: "姓名", Required: true},
		{Name: "年齡", Required: true, Type: validation.TypeNumber},
	}

	first, err := ParseForPreview(data, 2, rules)
	require.NoError(t, err)
	second, err := ParseForPreview(data, 2, rules)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.NotNil(t, first.Validation)
	assert.False(t, first.Validation.Valid)
	assert.Equal(t, 3, first.TotalRows)
}

func TestParseForPreview_ValidatesOnlyPage(t *testing.T) {
	data := []byte("name,age\nAlice,30\nBob,31\nCarol,old\n")
	rules := []validation.FieldRule{
		{Name: "name", Required: true},
		{Name: "age", Type: validation.TypeNumber},
	}

	t.Run("bad row outside page", func(t *testing.T) {
		res, err := ParseForPreview(data, 2, rules)
		require.NoError(t, err)
		require.NotNil(t, res.Validation)

		assert.True(t, res.Validation.Valid)
		assert.Equal(t, 2, res.Validation.Summary.TotalRows)
		assert.Equal(t, 3, res.TotalRows)
		assert.True(t, res.HasMore)
	})

	t.Run("bad row inside page", func(t *testing.T) {
		res, err := ParseForPreview(data, 10, rules)
		require.NoError(t, err)
		require.NotNil(t, res.Validation)

		assert.False(t, res.Validation.Valid)
		require.Len(t, res.Validation.Errors, 1)
		e := res.Validation.Errors[0]
		assert.Equal(t, 3, e.Row)
		assert.Equal(t, "age", e.Column)
		assert.Equal(t, validation.KindType, e.Kind)
		assert.Equal(t, 1, res.Validation.Summary.ErrorRows)
		assert.Equal(t, 2, res.Validation.Summary.ValidRows)
	})
}

func TestParseForPreview_MissingColumn(t *testing.T) {
	res, err := ParseForPreview(csvWithRows(3), 10, []validation.FieldRule{
		{Name: "email", Required: true},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Validation)

	assert.False(t, res.Validation.Valid)
	require.Len(t, res.Validation.Errors, 1)
	assert.Equal(t, 0, res.Validation.Errors[0].Row)
	assert.Equal(t, validation.KindMissing, res.Validation.Errors[0].Kind)
	assert.Equal(t, 3, res.Validation.Summary.ErrorRows)
	assert.Equal(t, 0, res.Validation.Summary.ValidRows)
}

func TestParseForPreview_EmptyRulesStillValidate(t *testing.T) {
	res, err := ParseForPreview(csvWithRows(2), 10, []validation.FieldRule{})
	require.NoError(t, err)
	require.NotNil(t, res.Validation)

	assert.True(t, res.Validation.Valid)
	assert.Equal(t, 2, res.Validation.Summary.ValidRows)
}

func BenchmarkParseForPreview(b *testing.B) {
	data := csvWithRows(10000)
	rules := []validation.FieldRule{
		{Name: "name", Required: true},
		{Name: "age", Type: validation.TypeNumber},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseForPreview(data, 100, rules); err != nil {
			b.Fatal(err)
		}
	}
}
