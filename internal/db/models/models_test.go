package models

import (
	"reflect"
	"testing"
	"time"
)

func TestTagListValueAndScan(t *testing.T) {
	tests := []struct {
		tags  TagList
		value string
	}{
		{TagList{"confidential", "legal"}, ",confidential,legal,"},
		{TagList{"one"}, ",one,"},
		{TagList{}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		v, err := tt.tags.Value()
		if err != nil {
			t.Fatalf("Value(%v): %v", tt.tags, err)
		}
		if v != tt.value {
			t.Errorf("Value(%v) = %q, want %q", tt.tags, v, tt.value)
		}

		var back TagList
		if err := back.Scan(tt.value); err != nil {
			t.Fatal(err)
		}
		if len(tt.tags) == 0 {
			if len(back) != 0 {
				t.Errorf("Scan(%q) = %v, want empty", tt.value, back)
			}
			continue
		}
		if !reflect.DeepEqual(back, tt.tags) {
			t.Errorf("Scan(%q) = %v, want %v", tt.value, back, tt.tags)
		}
	}

	if _, err := (TagList{"a,b"}).Value(); err == nil {
		t.Error("comma inside a tag accepted")
	}

	var fromBytes TagList
	if err := fromBytes.Scan([]byte(",x,")); err != nil || !reflect.DeepEqual(fromBytes, TagList{"x"}) {
		t.Errorf("Scan bytes = %v, %v", fromBytes, err)
	}
	if err := fromBytes.Scan(42); err == nil {
		t.Error("Scan accepted an int")
	}
	if p := TagPattern("legal"); p != "%,legal,%" {
		t.Errorf("TagPattern = %q", p)
	}
	if p := TagPattern(`real_estate%`); p != `%,real\_estate\%,%` {
		t.Errorf("TagPattern escaped = %q", p)
	}
	if e := EscapeLike(`a\b`); e != `a\\b` {
		t.Errorf("EscapeLike = %q", e)
	}
}

func TestEnumValidity(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("category %s not valid", c)
		}
	}
	if TemplateCategory("business").Valid() {
		t.Error("categories are upper case")
	}
	if !TemplateArchived.Valid() || TemplateStatus("retired").Valid() {
		t.Error("template status validity")
	}
	if !AgreementSentForSignature.Valid() || AgreementStatus("void").Valid() {
		t.Error("agreement status validity")
	}
}

func TestAuthTokenExpired(t *testing.T) {
	now := time.Now()
	token := AuthToken{ExpiresAt: now}
	if !token.Expired(now) {
		t.Error("token expiring now should count as expired")
	}
	if token.Expired(now.Add(-time.Second)) {
		t.Error("token expired early")
	}
}
