package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const playerPage = `<!DOCTYPE html>
<html><head><title>player</title></head>
<body>
<div id="player"></div>
<script>var config = {autoplay: true};</script>
<script>
  var playbackURL = "https://cdn.example/live/espn/index.m3u8";
  startPlayer(playbackURL);
</script>
</body></html>`

const jwPlayerPage = `<html><body>
<script>
jwplayer("player").setup({
  file: "/hls/tnt/index.m3u8?token=abc",
  autostart: true
});
</script>
</body></html>`

func TestStreamTPDecipher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(playerPage))
	}))
	defer srv.Close()

	p := NewStreamTP(srv.Client())
	got, err := p.Decipher(context.Background(), srv.URL+"/global1.php?stream=espn")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/live/espn/index.m3u8", got)
}

func TestStreamTPDecipherNoPlayback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>nothing here</p></body></html>`))
	}))
	defer srv.Close()

	p := NewStreamTP(srv.Client())
	_, err := p.Decipher(context.Background(), srv.URL+"/global1.php?stream=espn")
	assert.Error(t, err)
}

func TestStreamTPDecipherHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewStreamTP(srv.Client())
	_, err := p.Decipher(context.Background(), srv.URL+"/global1.php?stream=espn")
	assert.Error(t, err)
}

func TestLa12HDDecipher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vivo/canales.php", r.URL.Path)
		assert.Equal(t, "fox_sports", r.URL.Query().Get("stream"))
		w.Write([]byte(jwPlayerPage))
	}))
	defer srv.Close()

	p := NewLa12HD(srv.Client())
	p.baseURL = srv.URL

	got, err := p.Decipher(context.Background(), "https://streamtpglobal.com/global1.php?stream=fox_sports")
	require.NoError(t, err)
	// Relative playback paths resolve against the player page.
	assert.Equal(t, srv.URL+"/hls/tnt/index.m3u8?token=abc", got)
}

func TestLa12HDDecipherRequiresStreamParam(t *testing.T) {
	p := NewLa12HD(nil)
	_, err := p.Decipher(context.Background(), "https://streamtpglobal.com/global1.php")
	assert.Error(t, err)
}

func TestExtractPlaybackPrefersAssignment(t *testing.T) {
	doc := mustDoc(t, playerPage)
	assert.Equal(t, "https://cdn.example/live/espn/index.m3u8", extractPlayback(doc))
}

func TestStreamParam(t *testing.T) {
	got, err := streamParam("https://x.example/p?stream=espn_2")
	require.NoError(t, err)
	assert.Equal(t, "espn_2", got)

	_, err = streamParam("https://x.example/p")
	assert.Error(t, err)
}

func TestAbsolutePlayback(t *testing.T) {
	assert.Equal(t, "https://cdn.example/a.m3u8",
		absolutePlayback("https://page.example/p", "https://cdn.example/a.m3u8"))
	assert.Equal(t, "https://page.example/hls/a.m3u8",
		absolutePlayback("https://page.example/vivo/canales.php", "/hls/a.m3u8"))
}
