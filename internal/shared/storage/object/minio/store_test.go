package minio

import "testing"

func TestBucketURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{name: "plain", opts: Options{Endpoint: "localhost:9000", Bucket: "reports"}, want: "http://localhost:9000/reports"},
		{name: "tls", opts: Options{Endpoint: "minio.internal", Bucket: "r", UseSSL: true}, want: "https://minio.internal/r"},
		{name: "override", opts: Options{Endpoint: "x", Bucket: "r", BaseURL: "https://cdn.example.com"}, want: "https://cdn.example.com"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := bucketURL(tt.opts); got != tt.want {
				t.Fatalf("bucketURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(Options{Endpoint: "localhost:9000"}); err == nil {
		t.Fatalf("expected error without bucket")
	}
}
