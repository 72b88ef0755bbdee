package imagefetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsObjectRef(t *testing.T) {
	assert.True(t, IsObjectRef("s3://uploads/a.png"))
	assert.True(t, IsObjectRef("s3:///a.png"))
	assert.False(t, IsObjectRef("https://cdn.example.com/a.png"))
	assert.False(t, IsObjectRef("http://cdn.example.com/a.png"))
}

func TestMediaTypeFromRef(t *testing.T) {
	cases := map[string]string{
		"https://cdn.example.com/shot.png":       "image/png",
		"https://cdn.example.com/shot.PNG":       "image/png",
		"https://cdn.example.com/shot.gif":       "image/gif",
		"https://cdn.example.com/shot.webp":      "image/webp",
		"https://cdn.example.com/shot.jpg":       "image/jpeg",
		"https://cdn.example.com/shot.jpeg":      "image/jpeg",
		"https://cdn.example.com/shot":           "image/jpeg",
		"https://cdn.example.com/shot.png?w=800": "image/png",
		"s3://uploads/designs/home.webp":         "image/webp",
	}
	for ref, want := range cases {
		assert.Equal(t, want, MediaTypeFromRef(ref), ref)
	}
}

func TestSplitObjectRef(t *testing.T) {
	t.Run("bucket and key", func(t *testing.T) {
		bucket, key, err := splitObjectRef("s3://uploads/designs/home.png", "fallback")
		require.NoError(t, err)
		assert.Equal(t, "uploads", bucket)
		assert.Equal(t, "designs/home.png", key)
	})

	t.Run("default bucket", func(t *testing.T) {
		bucket, key, err := splitObjectRef("s3:///designs/home.png", "uploads")
		require.NoError(t, err)
		assert.Equal(t, "uploads", bucket)
		assert.Equal(t, "designs/home.png", key)
	})

	t.Run("no default bucket configured", func(t *testing.T) {
		_, _, err := splitObjectRef("s3:///designs/home.png", "")
		assert.Error(t, err)
	})

	t.Run("missing key", func(t *testing.T) {
		_, _, err := splitObjectRef("s3://uploads", "")
		assert.Error(t, err)
		_, _, err = splitObjectRef("s3://uploads/", "")
		assert.Error(t, err)
	})
}

func TestFetchHTTP(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png; charset=binary")
		w.Write(payload)
	}))
	defer srv.Close()

	svc := &Service{client: srv.Client()}
	img, err := svc.Fetch(context.Background(), srv.URL+"/shot.png")

	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MediaType)
	assert.Equal(t, payload, img.Data)
	assert.Equal(t, "iVBORw==", img.Base64())
}

func TestFetchHTTPFallsBackToExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	svc := &Service{client: srv.Client()}
	img, err := svc.Fetch(context.Background(), srv.URL+"/shot.webp")

	require.NoError(t, err)
	assert.Equal(t, "image/webp", img.MediaType)
}

func TestFetchHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	svc := &Service{client: srv.Client()}
	_, err := svc.Fetch(context.Background(), srv.URL+"/missing.png")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchHTTPSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		big := strings.Repeat("x", maxImageBytes+1)
		w.Write([]byte(big))
	}))
	defer srv.Close()

	svc := &Service{client: &http.Client{Timeout: 30 * time.Second}}
	_, err := svc.Fetch(context.Background(), srv.URL+"/huge.png")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}
