package sql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "unnamed_column"},
		{"created-at", "created_at"},
		{"First Name", "First_Name"},
		{"2024_sales", "col_2024_sales"},
		{"9", "col_9"},
		{"prix €", "prix__"},
		{"ok_name", "ok_name"},
		{strings.Repeat("a", 64), strings.Repeat("a", 64)},
		{strings.Repeat("a", 65), strings.Repeat("a", 61) + "_tr"},
		{"1" + strings.Repeat("b", 62), "col_1" + strings.Repeat("b", 56) + "_tr"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeIdentifier(tt.in))
		})
	}
}

func TestSanitizeIdentifier_IsRetraction(t *testing.T) {
	inputs := []string{
		"", "select", "created-at", "  spaced  ", "123", "über straße",
		strings.Repeat("x-", 50), "1" + strings.Repeat("9", 80), "a'b`c\"d", "\x00\n\t",
	}
	for _, in := range inputs {
		once := SanitizeIdentifier(in)
		assert.Equal(t, once, SanitizeIdentifier(once), "input %q", in)
		assert.LessOrEqual(t, len(once), 64)
		assert.Regexp(t, `^[A-Za-z_][A-Za-z0-9_]*$`, once)
	}
}

func TestColumnIdentifier_ReservedWords(t *testing.T) {
	assert.Equal(t, "select_col", ColumnIdentifier("select"))
	assert.Equal(t, "ORDER_col", ColumnIdentifier("ORDER"))
	assert.Equal(t, "user_col", ColumnIdentifier("user"))
	assert.Equal(t, "username", ColumnIdentifier("username"))
	assert.True(t, IsReservedWord("Transaction"))
	assert.False(t, IsReservedWord("amount"))
}

func TestColumnIdentifiers_Deduplicates(t *testing.T) {
	got := ColumnIdentifiers([]string{"a-b", "a b", "A_B", "a_b_2", "c"})
	assert.Equal(t, []string{"a_b", "a_b_2", "A_B_3", "a_b_2_2", "c"}, got)

	long := strings.Repeat("z", 70)
	got = ColumnIdentifiers([]string{long, long + "!"})
	assert.Equal(t, strings.Repeat("z", 61)+"_tr", got[0])
	assert.Equal(t, strings.Repeat("z", 61)+"__2", got[1])
	assert.Len(t, got[1], 64)
}

func TestEscapeComment(t *testing.T) {
	assert.Equal(t, `It\'s fine`, EscapeComment("It's fine", 100))
	assert.Equal(t, `C:\\temp`, EscapeComment(`C:\temp`, 100))
	assert.Equal(t, "line one line two", EscapeComment("line one\nline two", 100))
	assert.Equal(t, "abc", EscapeComment("abcdef", 3))
	// An escape pair is never split at the limit.
	assert.Equal(t, "ab", EscapeComment("ab'c", 3))
	assert.Equal(t, strings.Repeat("é", 100), EscapeComment(strings.Repeat("é", 150), 100))
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, "`orders`", QuoteIdentifier("orders"))
}
