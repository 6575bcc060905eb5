package config

import (
	"testing"

	"bricklayers/pkg/errors"
)

func testSection(t *testing.T) *Section {
	t.Helper()
	c, err := LoadString(`[test]
int_val: 5
float_val: 0.15
bool_on: on
bool_no: no
bad_num: xyz
list_val: a, b , c,
str_val: hello
`)
	if err != nil {
		t.Fatal(err)
	}
	sec, err := c.GetSection("test")
	if err != nil {
		t.Fatal(err)
	}
	return sec
}

func TestSectionGetters(t *testing.T) {
	sec := testSection(t)

	if v, err := sec.GetInt("int_val"); err != nil || v != 5 {
		t.Errorf("GetInt = %d, %v", v, err)
	}
	if v, err := sec.GetFloat("float_val"); err != nil || v != 0.15 {
		t.Errorf("GetFloat = %v, %v", v, err)
	}
	if v, err := sec.GetBoolean("bool_on"); err != nil || !v {
		t.Errorf("GetBoolean(bool_on) = %v, %v", v, err)
	}
	if v, err := sec.GetBoolean("bool_no"); err != nil || v {
		t.Errorf("GetBoolean(bool_no) = %v, %v", v, err)
	}
	if v, err := sec.Get("str_val"); err != nil || v != "hello" {
		t.Errorf("Get = %q, %v", v, err)
	}
	if v, err := sec.GetList("list_val"); err != nil || len(v) != 3 || v[1] != "b" {
		t.Errorf("GetList = %v, %v", v, err)
	}
}

func TestSectionFallbacks(t *testing.T) {
	sec := testSection(t)

	if v, err := sec.GetInt("missing", 7); err != nil || v != 7 {
		t.Errorf("GetInt fallback = %d, %v", v, err)
	}
	if v, err := sec.GetFloat("missing", 1.5); err != nil || v != 1.5 {
		t.Errorf("GetFloat fallback = %v, %v", v, err)
	}
	if v, err := sec.GetBoolean("missing", true); err != nil || !v {
		t.Errorf("GetBoolean fallback = %v, %v", v, err)
	}
	if _, err := sec.GetInt("missing"); !errors.HasCode(err, errors.ErrConfigOption) {
		t.Errorf("GetInt without fallback = %v, want CONFIG_OPTION", err)
	}
}

func TestSectionRangeChecks(t *testing.T) {
	sec := testSection(t)

	if _, err := sec.GetIntMin("int_val", 10); !errors.HasCode(err, errors.ErrConfigValidation) {
		t.Errorf("GetIntMin below min = %v, want CONFIG_VALIDATION", err)
	}
	if v, err := sec.GetIntMin("int_val", 5); err != nil || v != 5 {
		t.Errorf("GetIntMin at min = %d, %v", v, err)
	}
	if _, err := sec.GetFloatAbove("float_val", 0.15); !errors.HasCode(err, errors.ErrConfigValidation) {
		t.Errorf("GetFloatAbove at bound = %v, want CONFIG_VALIDATION", err)
	}
	if _, err := sec.GetInt("bad_num"); !errors.HasCode(err, errors.ErrConfigValidation) {
		t.Errorf("GetInt(bad_num) = %v, want CONFIG_VALIDATION", err)
	}
	if _, err := sec.GetBoolean("bad_num"); !errors.HasCode(err, errors.ErrConfigValidation) {
		t.Errorf("GetBoolean(bad_num) = %v, want CONFIG_VALIDATION", err)
	}
}

func TestSectionCaseInsensitiveOptions(t *testing.T) {
	sec := testSection(t)
	if v, err := sec.GetInt("INT_VAL"); err != nil || v != 5 {
		t.Errorf("GetInt(INT_VAL) = %d, %v", v, err)
	}
}
