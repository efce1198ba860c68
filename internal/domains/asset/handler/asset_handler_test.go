package handler

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-backend/internal/domains/asset"
	"marketplace-backend/internal/infrastructure/storage"
)

// imageRefs là tập image ref đang được record tham chiếu
type imageRefs map[string]bool

func (r imageRefs) HasImageRef(_ context.Context, ref string) (bool, error) {
	return r[ref], nil
}

type failingRefs struct{}

func (failingRefs) HasImageRef(context.Context, string) (bool, error) {
	return false, errors.New("db down")
}

func newAssets(t *testing.T) *asset.Manager {
	t.Helper()
	backend, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return asset.NewManager(backend)
}

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestServe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	assets := newAssets(t)

	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	imageRef, err := assets.StoreImage(ctx, bytes.NewReader(buf.Bytes()), "cover.png")
	require.NoError(t, err)
	profileRef, err := assets.StoreImage(ctx, bytes.NewReader(buf.Bytes()), "me.png")
	require.NoError(t, err)
	fileRef, err := assets.Store(ctx, strings.NewReader("%PDF-1.4"), "guide.pdf")
	require.NoError(t, err)
	unreferenced, err := assets.StoreImage(ctx, bytes.NewReader(buf.Bytes()), "orphan.png")
	require.NoError(t, err)

	products := imageRefs{imageRef: true}
	users := imageRefs{profileRef: true}

	r := gin.New()
	r.GET("/uploads/:name", NewAssetHandler(assets, products, users).Serve)

	t.Run("product image", func(t *testing.T) {
		w := serve(r, imageRef)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, buf.Bytes(), w.Body.Bytes())
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Cache-Control"), "immutable")
	})

	t.Run("profile image", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(r, profileRef).Code)
	})

	t.Run("downloadable file is not public", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(r, fileRef).Code)
	})

	t.Run("unreferenced blob", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(r, unreferenced).Code)
	})

	t.Run("missing", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(r, "/uploads/nope.png").Code)
	})

	t.Run("hidden name", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(r, "/uploads/.env").Code)
	})
}

func TestServe_RefLookupFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/uploads/:name", NewAssetHandler(newAssets(t), failingRefs{}).Serve)

	assert.Equal(t, http.StatusInternalServerError, serve(r, "/uploads/x-cover.png").Code)
}
