package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/gift-heatmap/internal/imagecache"
	"github.com/rickgao/gift-heatmap/internal/model"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// fakeFetcher serves fixed bodies per URL and counts calls.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	calls  map[string]int
	delay  time.Duration

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{bodies: map[string][]byte{}, calls: map[string]int{}}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		m := f.maxInflight.Load()
		if n <= m || f.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls[url]++
	body, ok := f.bodies[url]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, &FetchError{URL: url, StatusCode: http.StatusNotFound}
	}
	return body, nil
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

const testBase = "https://img.test"

func newTestResolver(f Fetcher, c imagecache.Cache) *Resolver {
	return NewResolver(Config{BaseURL: testBase, ProviderURL: "https://provider.test"}, c, f, nil)
}

func TestResolveNetworkThenCache(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	f.bodies[testBase+"/api/image/pepe"] = pngBytes(t, 40, 20)
	cache := imagecache.NewMemory(10, 0)

	res := newTestResolver(f, cache).Resolve(ctx, Request{Ref: "pepe", Name: "Pepe"}, time.Second)
	if !res.Loaded() {
		t.Fatalf("Resolve() status = %v, err = %v", res.Status, res.Err)
	}
	if res.Source != model.FromNetwork {
		t.Errorf("Source = %v, want network", res.Source)
	}
	if res.Width != 40 || res.Height != 20 {
		t.Errorf("dimensions = %dx%d, want 40x20", res.Width, res.Height)
	}

	// A fresh resolver sharing the cache must not touch the network.
	res = newTestResolver(f, cache).Resolve(ctx, Request{Ref: "/api/image/pepe"}, time.Second)
	if res.Source != model.FromCache {
		t.Errorf("Source = %v, want cache-hit", res.Source)
	}
	if got := f.count(testBase + "/api/image/pepe"); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
}

func TestResolveAlternate(t *testing.T) {
	f := newFakeFetcher()
	f.bodies["https://provider.test/plushpepe.webp"] = pngBytes(t, 8, 8)
	cache := imagecache.NewMemory(10, 0)
	r := newTestResolver(f, cache)

	res := r.Resolve(context.Background(), Request{Ref: "broken", Name: "Plush Pepe"}, time.Second)
	if !res.Loaded() {
		t.Fatalf("Resolve() status = %v, err = %v", res.Status, res.Err)
	}
	if res.Source != model.FromAlternate {
		t.Errorf("Source = %v, want alternate", res.Source)
	}
	for _, u := range []string{
		testBase + "/api/image/broken",
		"http://img.test/api/image/broken",
		testBase + "/api/image/plushpepe",
	} {
		if f.count(u) != 1 {
			t.Errorf("fetch count for %s = %d, want 1", u, f.count(u))
		}
	}
	if _, ok := cache.Get(context.Background(), testBase+"/api/image/broken"); !ok {
		t.Error("alternate bytes not cached under the primary key")
	}
}

func TestResolveAllFail(t *testing.T) {
	r := newTestResolver(newFakeFetcher(), nil)
	res := r.Resolve(context.Background(), Request{Ref: "missing", Name: "Missing"}, time.Second)
	if res.Status != model.ImageFailed {
		t.Fatalf("Status = %v, want failed", res.Status)
	}
	var fe *FetchError
	if !errors.As(res.Err, &fe) {
		t.Errorf("Err = %v, want FetchError", res.Err)
	}
	if got := r.Lookup("missing"); got.Status != model.ImageFailed {
		t.Errorf("Lookup() status = %v, want failed", got.Status)
	}
}

func TestResolveRejectsUndecodable(t *testing.T) {
	f := newFakeFetcher()
	f.bodies[testBase+"/api/image/garbage"] = []byte("<html>not an image</html>")
	res := newTestResolver(f, nil).Resolve(context.Background(), Request{Ref: "garbage"}, time.Second)
	if res.Loaded() {
		t.Error("Resolve() loaded undecodable bytes")
	}
}

func TestResolveDataURL(t *testing.T) {
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 3, 3))
	res := newTestResolver(nil, nil).Resolve(context.Background(), Request{Ref: ref}, time.Second)
	if !res.Loaded() {
		t.Fatalf("Resolve(data url) err = %v", res.Err)
	}
}

func TestResolveDeduplicates(t *testing.T) {
	f := newFakeFetcher()
	f.delay = 50 * time.Millisecond
	f.bodies[testBase+"/api/image/pepe"] = pngBytes(t, 4, 4)
	r := newTestResolver(f, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Resolve(context.Background(), Request{Ref: "pepe"}, time.Second)
		}()
	}
	wg.Wait()

	if got := f.count(testBase + "/api/image/pepe"); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
}

func TestResolveSurvivesCallerCancel(t *testing.T) {
	f := newFakeFetcher()
	f.delay = 300 * time.Millisecond
	f.bodies[testBase+"/api/image/pepe"] = pngBytes(t, 4, 4)
	r := newTestResolver(f, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	var early, export model.ResolvedImage
	wg.Add(2)
	go func() {
		defer wg.Done()
		early = r.Resolve(ctx, Request{Ref: "pepe"}, PreviewTimeout)
	}()
	go func() {
		defer wg.Done()
		time.Sleep(20 * time.Millisecond)
		export = r.Resolve(context.Background(), Request{Ref: "pepe"}, ExportTimeout)
	}()
	wg.Wait()

	if early.Status != model.ImagePending || !errors.Is(early.Err, context.DeadlineExceeded) {
		t.Errorf("cancelled caller = %v, %v, want pending, deadline exceeded", early.Status, early.Err)
	}
	if !export.Loaded() {
		t.Fatalf("joined caller status = %v, err = %v, want loaded", export.Status, export.Err)
	}
	if got := r.Lookup("pepe"); !got.Loaded() {
		t.Errorf("Lookup() status = %v, want loaded", got.Status)
	}
	if got := f.count(testBase + "/api/image/pepe"); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
}

func TestResolveAbandonedLoadFinishes(t *testing.T) {
	f := newFakeFetcher()
	f.delay = 100 * time.Millisecond
	f.bodies[testBase+"/api/image/pepe"] = pngBytes(t, 4, 4)
	r := newTestResolver(f, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := r.Resolve(ctx, Request{Ref: "pepe"}, time.Second); got.Loaded() {
		t.Fatal("Resolve() with a cancelled ctx returned a loaded image")
	}

	deadline := time.Now().Add(2 * time.Second)
	for !r.Lookup("pepe").Loaded() {
		if time.Now().After(deadline) {
			t.Fatalf("Lookup() status = %v, want loaded after the abandoned load", r.Lookup("pepe").Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestResolveJoinExtendsDeadline(t *testing.T) {
	f := newFakeFetcher()
	f.delay = 150 * time.Millisecond
	f.bodies[testBase+"/api/image/pepe"] = pngBytes(t, 4, 4)
	r := newTestResolver(f, nil)

	var wg sync.WaitGroup
	var short, long model.ResolvedImage
	wg.Add(2)
	go func() {
		defer wg.Done()
		short = r.Resolve(context.Background(), Request{Ref: "pepe"}, 50*time.Millisecond)
	}()
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		long = r.Resolve(context.Background(), Request{Ref: "pepe"}, time.Second)
	}()
	wg.Wait()

	if !short.Loaded() || !long.Loaded() {
		t.Errorf("statuses = %v, %v, want both loaded", short.Status, long.Status)
	}
}

func TestLookup(t *testing.T) {
	r := newTestResolver(newFakeFetcher(), nil)
	if got := r.Lookup("unknown"); got.Status != model.ImagePending {
		t.Errorf("Lookup(unknown) = %v, want pending", got.Status)
	}
	got := r.Lookup("")
	if got.Status != model.ImageFailed || !errors.Is(got.Err, ErrNoReference) {
		t.Errorf("Lookup(\"\") = %v, %v", got.Status, got.Err)
	}
}

func TestPreloadManyBatches(t *testing.T) {
	f := newFakeFetcher()
	f.delay = 10 * time.Millisecond
	var reqs []Request
	for i := 0; i < 20; i++ {
		ref := fmt.Sprintf("gift%d", i)
		if i%4 != 0 {
			f.bodies[testBase+"/api/image/"+ref] = pngBytes(t, 2, 2)
		}
		reqs = append(reqs, Request{Ref: ref})
	}
	reqs = append(reqs, Request{Ref: "gift1"}, Request{Ref: ""})

	r := newTestResolver(f, nil)
	sum := r.PreloadMany(context.Background(), reqs, time.Second)

	if sum.Requested != 20 {
		t.Errorf("Requested = %d, want 20", sum.Requested)
	}
	if sum.Loaded != 15 || sum.Failed != 5 {
		t.Errorf("Loaded = %d, Failed = %d, want 15, 5", sum.Loaded, sum.Failed)
	}
	// Each failing image also tries its protocol-swap alternate within the
	// same batch slot, so fetch concurrency never exceeds the batch size.
	if got := f.maxInflight.Load(); got > DefaultBatchSize {
		t.Errorf("max concurrent fetches = %d, want <= %d", got, DefaultBatchSize)
	}
}

func TestPreloadManyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reqs := []Request{{Ref: "a"}, {Ref: "b"}}
	sum := newTestResolver(newFakeFetcher(), nil).PreloadMany(ctx, reqs, time.Second)
	if sum.Skipped != 2 || sum.Loaded != 0 {
		t.Errorf("Summary = %+v, want all skipped", sum)
	}
}

func TestHTTPFetcher(t *testing.T) {
	body := pngBytes(t, 5, 5)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/ok.png") {
			w.Header().Set("Content-Type", "image/png")
			w.Write(body)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second)
	got, err := f.Fetch(context.Background(), srv.URL+"/ok.png")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Error("Fetch() body mismatch")
	}

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.png")
	var fe *FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusNotFound {
		t.Errorf("Fetch(missing) error = %v, want 404 FetchError", err)
	}
}
