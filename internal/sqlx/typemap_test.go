package sqlx

import (
	"fmt"
	"testing"
)

func TestFamily(t *testing.T) {
	cases := []struct {
		dbType string
		want   string
	}{
		{"INT", FamilyInteger},
		{"BIGINT", FamilyInteger},
		{"UNSIGNED BIGINT", FamilyInteger},
		{"int8", FamilyInteger},
		{"INTEGER", FamilyInteger},
		{"tinyint(1)", FamilyInteger},
		{"FLOAT8", FamilyFloat},
		{"DOUBLE", FamilyFloat},
		{"double precision", FamilyFloat},
		{"REAL", FamilyFloat},
		{"DECIMAL", FamilyNumeric},
		{"numeric(10,2)", FamilyNumeric},
		{"VARCHAR", FamilyString},
		{"character varying(100)", FamilyString},
		{"TEXT", FamilyString},
		{"NVARCHAR", FamilyString},
		{"BOOL", FamilyBoolean},
		{"DATETIME", FamilyTemporal},
		{"TIMESTAMPTZ", FamilyTemporal},
		{"BLOB", FamilyBytes},
		{"VARBINARY", FamilyBytes},
		{"", FamilyOther},
		{"GEOGRAPHY", FamilyOther},
	}
	for _, c := range cases {
		if got := Family(c.dbType); got != c.want {
			t.Errorf("Family(%q) = %q, want %q", c.dbType, got, c.want)
		}
	}
}

func TestParseDeclared(t *testing.T) {
	cases := []struct {
		raw                      string
		wantBase                 string
		wantLen, wantPrec, wantS *int
	}{
		{"VARCHAR(255)", "VARCHAR", intPtr(255), intPtr(255), nil},
		{"DECIMAL(10,2)", "DECIMAL", intPtr(10), intPtr(10), intPtr(2)},
		{"decimal( 8 , 3 )", "decimal", intPtr(8), intPtr(8), intPtr(3)},
		{"INTEGER", "INTEGER", nil, nil, nil},
		{"TEXT", "TEXT", nil, nil, nil},
		{"", "", nil, nil, nil},
	}
	for _, c := range cases {
		base, l, p, s := ParseDeclared(c.raw)
		if base != c.wantBase {
			t.Errorf("ParseDeclared(%q) base = %q, want %q", c.raw, base, c.wantBase)
		}
		if !intPtrEq(l, c.wantLen) {
			t.Errorf("ParseDeclared(%q) length = %v, want %v", c.raw, ptrVal(l), ptrVal(c.wantLen))
		}
		if !intPtrEq(p, c.wantPrec) {
			t.Errorf("ParseDeclared(%q) precision = %v, want %v", c.raw, ptrVal(p), ptrVal(c.wantPrec))
		}
		if !intPtrEq(s, c.wantS) {
			t.Errorf("ParseDeclared(%q) scale = %v, want %v", c.raw, ptrVal(s), ptrVal(c.wantS))
		}
	}
}

func TestParseDeclared_LengthAndPrecisionAreDistinct(t *testing.T) {
	_, l, p, _ := ParseDeclared("CHAR(4)")
	if l == nil || p == nil {
		t.Fatal("expected length and precision")
	}
	*l = 99
	if *p != 4 {
		t.Errorf("precision aliases length: got %d", *p)
	}
}

func intPtr(v int) *int { return &v }

func intPtrEq(a, b *int) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func ptrVal(p *int) string {
	if p == nil {
		return "nil"
	}
	return fmt.Sprintf("%d", *p)
}
