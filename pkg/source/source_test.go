package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDocumentURL(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://uni.example.kr")
	require.NoError(t, err)

	testCases := []struct {
		name   string
		page   string
		want   string
		wantOK bool
	}{
		{
			name:   "iframe PDF viewer",
			page:   `<html><body><iframe src="/lib/PDFViewer/web/viewer.html?file=%2Fupload%2Fdorm%2Fmenu.pdf"></iframe></body></html>`,
			want:   "https://uni.example.kr/upload/dorm/menu.pdf",
			wantOK: true,
		},
		{
			name:   "double encoded viewer parameter",
			page:   `<embed src="/PDFViewer/viewer.html?file=%252Fupload%252Fweek.pdf">`,
			want:   "https://uni.example.kr/upload/week.pdf",
			wantOK: true,
		},
		{
			name:   "embed pdf path with query",
			page:   `<div><embed src="/files/menu.pdf?v=2" type="application/pdf"></div>`,
			want:   "https://uni.example.kr/files/menu.pdf?v=2",
			wantOK: true,
		},
		{
			name:   "embed takes precedence over anchors",
			page:   `<a href="/other.pdf">old</a><embed src="/current.pdf">`,
			want:   "https://uni.example.kr/current.pdf",
			wantOK: true,
		},
		{
			name:   "absolute anchor",
			page:   `<a href="/board/view?id=1">post</a><a href="https://cdn.example.kr/menu.PDF">download</a>`,
			want:   "https://cdn.example.kr/menu.PDF",
			wantOK: true,
		},
		{
			name:   "relative anchor",
			page:   `<p><a href="/attach/download.pdf?no=7">menu</a></p>`,
			want:   "https://uni.example.kr/attach/download.pdf?no=7",
			wantOK: true,
		},
		{
			name:   "nothing linked",
			page:   `<html><body><a href="/board">board</a></body></html>`,
			wantOK: false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := FindDocumentURL(strings.NewReader(tc.page), base)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func newTestServer(t *testing.T, page string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/board", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})
	mux.HandleFunc("/files/menu.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 menu"))
	})
	mux.HandleFunc("/files/viewer.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>viewer</html>"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClientFetch(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, `<iframe src="/files/menu.pdf"></iframe>`)
	client, err := New(server.URL+"/board", server.URL, 5*time.Second)
	require.NoError(t, err)

	body, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 menu", string(body))
}

func TestClientFetchErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		page    string
		pageURL string
		wantErr error
	}{
		{name: "no document", page: `<p>nothing yet</p>`, pageURL: "/board", wantErr: ErrNoDocument},
		{name: "html instead of document", page: `<a href="/files/viewer.pdf">menu</a>`, pageURL: "/board"},
		{name: "page missing", page: ``, pageURL: "/missing"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			server := newTestServer(t, tc.page)
			client, err := New(server.URL+tc.pageURL, server.URL, 5*time.Second)
			require.NoError(t, err)

			_, err = client.Fetch(context.Background())
			require.Error(t, err)

			var fe *FetchError
			assert.True(t, errors.As(err, &fe), "got %T", err)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr))
			}
		})
	}
}

func TestClientUnreachable(t *testing.T) {
	t.Parallel()

	client, err := New("http://127.0.0.1:1/board", "http://127.0.0.1:1", time.Second)
	require.NoError(t, err)

	_, err = client.Fetch(context.Background())
	var fe *FetchError
	assert.True(t, errors.As(err, &fe))
}
