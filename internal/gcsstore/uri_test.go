package gcsstore

import "testing"

func TestParseURI(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"nested object", "gs://rk-depo/2024-05/cabang_sby.csv", "rk-depo", "2024-05/cabang_sby.csv", false},
		{"root object", "gs://rk-depo/report.xlsx", "rk-depo", "report.xlsx", false},
		{"wrong scheme", "s3://rk-depo/report.xlsx", "", "", true},
		{"bucket only", "gs://rk-depo", "", "", true},
		{"empty object", "gs://rk-depo/", "", "", true},
		{"empty bucket", "gs:///report.xlsx", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, object, err := ParseURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("ParseURI(%q) = %q, %q; want %q, %q", tt.uri, bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}

func TestURIAndBaseName(t *testing.T) {
	uri := URI("rk-depo", "/reports/hasil_RK_20240305_0907.xlsx")
	if uri != "gs://rk-depo/reports/hasil_RK_20240305_0907.xlsx" {
		t.Errorf("URI() = %q", uri)
	}
	if got := BaseName(uri); got != "hasil_RK_20240305_0907.xlsx" {
		t.Errorf("BaseName() = %q", got)
	}
	if got := BaseName("gs://rk-depo"); got != "rk-depo" {
		t.Errorf("BaseName() without object = %q", got)
	}
	if !IsURI(uri) || IsURI("/tmp/a.csv") {
		t.Error("IsURI mismatch")
	}
}
