package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"marketplace-backend/internal/domains/asset"
	"marketplace-backend/internal/domains/product/model"
	"marketplace-backend/internal/infrastructure/cache"
	"marketplace-backend/internal/infrastructure/storage"
	"marketplace-backend/internal/shared/authz"
)

// fakeProductRepo is an in-memory product store joined against a fixed owner table.
type fakeProductRepo struct {
	products  map[uuid.UUID]model.Product
	owners    map[uuid.UUID]model.OwnerProfile
	createErr error
	updateErr error
	listCalls int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: map[uuid.UUID]model.Product{},
		owners:   map[uuid.UUID]model.OwnerProfile{},
	}
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	if r.createErr != nil {
		return r.createErr
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.products[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, model.ErrProductNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.products[p.ID]; !ok {
		return model.ErrProductNotFound
	}
	p.UpdatedAt = time.Now()
	r.products[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.products[id]; !ok {
		return model.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) FindDetailByID(_ context.Context, id uuid.UUID) (*model.ProductDetail, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, model.ErrProductNotFound
	}
	return &model.ProductDetail{Product: p, Creator: r.owners[p.CreatorID]}, nil
}

func (r *fakeProductRepo) item(p model.Product) model.ProductListItem {
	o := r.owners[p.CreatorID]
	return model.ProductListItem{Product: p, Creator: model.OwnerSummary{ID: o.ID, Name: o.Name, Email: o.Email}}
}

func (r *fakeProductRepo) sorted(keep func(model.Product) bool) []model.ProductListItem {
	items := []model.ProductListItem{}
	for _, p := range r.products {
		if keep(p) {
			items = append(items, r.item(p))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items
}

func (r *fakeProductRepo) List(_ context.Context, f model.ProductFilter) ([]model.ProductListItem, int, error) {
	r.listCalls++
	q := strings.ToLower(f.Query)
	items := r.sorted(func(p model.Product) bool {
		return q == "" ||
			strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Description), q)
	})
	total := len(items)
	if f.Offset >= total {
		return []model.ProductListItem{}, total, nil
	}
	end := min(f.Offset+f.Limit, total)
	return items[f.Offset:end], total, nil
}

func (r *fakeProductRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]model.ProductListItem, error) {
	return r.sorted(func(p model.Product) bool { return p.CreatorID == ownerID }), nil
}

func (r *fakeProductRepo) HasImageRef(_ context.Context, ref string) (bool, error) {
	for _, p := range r.products {
		if p.ImageURL == ref {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProductRepo) ListAssetRefs(context.Context) ([]string, error) {
	var refs []string
	for _, p := range r.products {
		refs = append(refs, p.ImageURL)
		if p.FileURL != "" {
			refs = append(refs, p.FileURL)
		}
	}
	return refs, nil
}

type ProductServiceSuite struct {
	suite.Suite
	ctx     context.Context
	repo    *fakeProductRepo
	backend *storage.LocalStorage
	assets  *asset.Manager
	svc     ServiceInterface
	owner   uuid.UUID
	other   uuid.UUID
}

func TestProductServiceSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceSuite))
}

func (s *ProductServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = newFakeProductRepo()

	var err error
	s.backend, err = storage.NewLocalStorage(s.T().TempDir())
	s.Require().NoError(err)
	s.assets = asset.NewManager(s.backend)

	s.owner, s.other = uuid.New(), uuid.New()
	s.repo.owners[s.owner] = model.OwnerProfile{ID: s.owner, Name: "Alice", Email: "alice@example.com", StoreName: "Alice Presets"}
	s.repo.owners[s.other] = model.OwnerProfile{ID: s.other, Name: "Bob", Email: "bob@example.com"}

	s.svc = NewProductService(s.repo, s.assets, cache.NewMemoryCache(64, time.Minute))
}

func (s *ProductServiceSuite) png(name string) *model.Upload {
	buf := new(bytes.Buffer)
	s.Require().NoError(png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return &model.Upload{Filename: name, Content: buf}
}

func (s *ProductServiceSuite) file(name, content string) *model.Upload {
	return &model.Upload{Filename: name, Content: strings.NewReader(content)}
}

func (s *ProductServiceSuite) stored() []string {
	objs, err := s.backend.List(s.ctx)
	s.Require().NoError(err)
	names := make([]string, 0, len(objs))
	for _, o := range objs {
		names = append(names, o.Name)
	}
	return names
}

func (s *ProductServiceSuite) exists(ref string) bool {
	ok, err := s.assets.Exists(s.ctx, ref)
	s.Require().NoError(err)
	return ok
}

func (s *ProductServiceSuite) create(req model.CreateProductRequest) *model.Product {
	p, err := s.svc.Create(s.ctx, s.owner, req)
	s.Require().NoError(err)
	return p
}

func (s *ProductServiceSuite) createFull() *model.Product {
	return s.create(model.CreateProductRequest{
		Title:       "Lightroom Pack",
		Description: "Twenty presets for moody shots",
		Price:       "19.99",
		Image:       s.png("cover.png"),
		File:        s.file("guide.pdf", "pdf-bytes"),
	})
}

// ========================================
// CREATE
// ========================================

func (s *ProductServiceSuite) TestCreateWithoutAssetsUsesPlaceholder() {
	p := s.create(model.CreateProductRequest{
		Title:       "Widget",
		Description: "A very useful widget",
		Price:       "9.99",
	})

	s.Equal(asset.PlaceholderRef, p.ImageURL)
	s.Equal("", p.FileURL)
	s.True(decimal.RequireFromString("9.99").Equal(p.Price))
	s.Equal(s.owner, p.CreatorID)
	s.Empty(s.stored())
}

func (s *ProductServiceSuite) TestCreateStoresFreshAssets() {
	p := s.createFull()

	s.True(strings.HasPrefix(p.ImageURL, asset.RefPrefix))
	s.True(strings.HasSuffix(p.ImageURL, "-cover.png"))
	s.True(strings.HasSuffix(p.FileURL, "-guide.pdf"))
	s.True(s.exists(p.ImageURL))
	s.True(s.exists(p.FileURL))
	s.Len(s.stored(), 2)
}

func (s *ProductServiceSuite) TestCreateZeroPriceFailsBeforeStaging() {
	_, err := s.svc.Create(s.ctx, s.owner, model.CreateProductRequest{
		Title:       "Widget",
		Description: "A very useful widget",
		Price:       "0",
		Image:       s.png("cover.png"),
		File:        s.file("widget.zip", "data"),
	})

	var fieldErrs validation.Errors
	s.Require().True(errors.As(err, &fieldErrs))
	s.Contains(fieldErrs, "price")
	s.Empty(s.stored())
	s.Empty(s.repo.products)
}

func (s *ProductServiceSuite) TestCreatePriceAboveColumnRangeFails() {
	_, err := s.svc.Create(s.ctx, s.owner, model.CreateProductRequest{
		Title:       "Widget",
		Description: "A very useful widget",
		Price:       "10000000000",
		File:        s.file("widget.zip", "data"),
	})

	var fieldErrs validation.Errors
	s.Require().True(errors.As(err, &fieldErrs))
	s.Contains(fieldErrs, "price")
	s.Empty(s.stored())
}

func (s *ProductServiceSuite) TestCreatePersistFailureReleasesStagedAssets() {
	s.repo.createErr = errors.New("db down")

	_, err := s.svc.Create(s.ctx, s.owner, model.CreateProductRequest{
		Title:       "Widget",
		Description: "A very useful widget",
		Price:       "5",
		Image:       s.png("cover.png"),
		File:        s.file("widget.zip", "data"),
	})

	s.Require().Error(err)
	s.Empty(s.stored(), "staged assets must be released")
}

func (s *ProductServiceSuite) TestCreateInvalidImageReleasesNothingLeft() {
	_, err := s.svc.Create(s.ctx, s.owner, model.CreateProductRequest{
		Title:       "Widget",
		Description: "A very useful widget",
		Price:       "5",
		Image:       s.file("cover.png", "not an image"),
		File:        s.file("widget.zip", "data"),
	})

	s.ErrorIs(err, asset.ErrInvalidImage)
	s.Empty(s.stored())
}

// ========================================
// UPDATE
// ========================================

func (s *ProductServiceSuite) TestUpdatePriceKeepsAssets() {
	p := s.createFull()

	price := "5.00"
	updated, err := s.svc.Update(s.ctx, p.ID, s.owner, model.UpdateProductRequest{Price: &price})
	s.Require().NoError(err)

	s.True(decimal.RequireFromString("5").Equal(updated.Price))
	s.Equal(p.ImageURL, updated.ImageURL)
	s.Equal(p.FileURL, updated.FileURL)
	s.Equal(p.Title, updated.Title)
	s.True(s.exists(p.ImageURL))
	s.True(s.exists(p.FileURL))
}

func (s *ProductServiceSuite) TestUpdateReplacesImage() {
	p := s.createFull()

	updated, err := s.svc.Update(s.ctx, p.ID, s.owner, model.UpdateProductRequest{Image: s.png("new.png")})
	s.Require().NoError(err)

	s.NotEqual(p.ImageURL, updated.ImageURL)
	s.False(s.exists(p.ImageURL), "old image must be removed")
	s.True(s.exists(updated.ImageURL))
	s.Equal(p.FileURL, updated.FileURL)

	stored, _ := s.repo.FindByID(s.ctx, p.ID)
	s.Equal(updated.ImageURL, stored.ImageURL)
}

func (s *ProductServiceSuite) TestUpdateReplacesFile() {
	p := s.createFull()

	updated, err := s.svc.Update(s.ctx, p.ID, s.owner, model.UpdateProductRequest{File: s.file("guide-v2.pdf", "v2-bytes")})
	s.Require().NoError(err)

	s.NotEqual(p.FileURL, updated.FileURL)
	s.True(strings.HasSuffix(updated.FileURL, "-guide-v2.pdf"))
	s.False(s.exists(p.FileURL), "old file must be removed")
	s.True(s.exists(updated.FileURL))
	s.Equal(p.ImageURL, updated.ImageURL)
	s.True(s.exists(p.ImageURL))
	s.Len(s.stored(), 2)

	rc, err := s.assets.Open(s.ctx, updated.FileURL)
	s.Require().NoError(err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	s.Require().NoError(err)
	s.Equal("v2-bytes", string(body))

	stored, _ := s.repo.FindByID(s.ctx, p.ID)
	s.Equal(updated.FileURL, stored.FileURL)
}

func (s *ProductServiceSuite) TestUpdateReplacingPlaceholderKeepsNothingToRemove() {
	p := s.create(model.CreateProductRequest{Title: "Widget", Description: "A very useful widget", Price: "1"})

	updated, err := s.svc.Update(s.ctx, p.ID, s.owner, model.UpdateProductRequest{Image: s.png("new.png")})
	s.Require().NoError(err)
	s.True(s.exists(updated.ImageURL))
	s.Len(s.stored(), 1)
}

func (s *ProductServiceSuite) TestUpdateByNonOwnerIsForbidden() {
	p := s.createFull()
	before := s.stored()

	title := "Hijacked"
	_, err := s.svc.Update(s.ctx, p.ID, s.other, model.UpdateProductRequest{Title: &title, Image: s.png("evil.png")})

	s.ErrorIs(err, authz.ErrForbidden)
	stored, _ := s.repo.FindByID(s.ctx, p.ID)
	s.Equal(*p, *stored)
	s.ElementsMatch(before, s.stored())
}

func (s *ProductServiceSuite) TestUpdatePersistFailureKeepsOldAssets() {
	p := s.createFull()
	s.repo.updateErr = errors.New("db down")

	_, err := s.svc.Update(s.ctx, p.ID, s.owner, model.UpdateProductRequest{Image: s.png("new.png"), File: s.file("v2.zip", "v2")})

	s.Require().Error(err)
	s.True(s.exists(p.ImageURL))
	s.True(s.exists(p.FileURL))
	s.Len(s.stored(), 2, "staged replacements must be released")
}

func (s *ProductServiceSuite) TestUpdateValidation() {
	p := s.createFull()

	short := "ab"
	_, err := s.svc.Update(s.ctx, p.ID, s.owner, model.UpdateProductRequest{Title: &short, Image: s.png("new.png")})

	var fieldErrs validation.Errors
	s.Require().True(errors.As(err, &fieldErrs))
	s.Contains(fieldErrs, "title")
	s.Len(s.stored(), 2)
}

func (s *ProductServiceSuite) TestUpdateNotFound() {
	_, err := s.svc.Update(s.ctx, uuid.New(), s.owner, model.UpdateProductRequest{})
	s.ErrorIs(err, model.ErrProductNotFound)
}

// ========================================
// DELETE
// ========================================

func (s *ProductServiceSuite) TestDeleteRemovesRecordAndAssets() {
	p := s.createFull()

	s.Require().NoError(s.svc.Delete(s.ctx, p.ID, s.owner))

	s.False(s.exists(p.ImageURL))
	s.False(s.exists(p.FileURL))
	s.Empty(s.stored())

	_, err := s.svc.GetByID(s.ctx, p.ID)
	s.ErrorIs(err, model.ErrProductNotFound)
}

func (s *ProductServiceSuite) TestDeleteByNonOwnerIsForbidden() {
	p := s.createFull()

	err := s.svc.Delete(s.ctx, p.ID, s.other)

	s.ErrorIs(err, authz.ErrForbidden)
	s.Contains(s.repo.products, p.ID)
	s.True(s.exists(p.ImageURL))
	s.True(s.exists(p.FileURL))
}

func (s *ProductServiceSuite) TestRemovingAlreadyRemovedAssetIsNoError() {
	p := s.createFull()

	s.Require().NoError(s.assets.Delete(s.ctx, p.FileURL))
	s.NoError(s.assets.Delete(s.ctx, p.FileURL))
	s.NoError(s.assets.Delete(s.ctx, asset.PlaceholderRef))
}

// ========================================
// READS
// ========================================

func (s *ProductServiceSuite) TestGetByIDEmbedsOwnerProfile() {
	p := s.createFull()

	detail, err := s.svc.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Alice Presets", detail.Creator.StoreName)
	s.Equal(p.Title, detail.Title)
}

func (s *ProductServiceSuite) TestListSearchAndPaging() {
	s.create(model.CreateProductRequest{Title: "Lightroom Pack", Description: "Presets for photographers", Price: "10"})
	s.create(model.CreateProductRequest{Title: "Font Bundle", Description: "Ten display fonts", Price: "12"})
	s.create(model.CreateProductRequest{Title: "Icon Set", Description: "Line icons, includes LIGHTROOM badge", Price: "3"})

	page, err := s.svc.List(s.ctx, model.ListProductsRequest{Query: "lightroom"})
	s.Require().NoError(err)
	s.Equal(2, page.Total)
	s.Len(page.Items, 2)
	s.Equal("Alice", page.Items[0].Creator.Name)

	paged, err := s.svc.List(s.ctx, model.ListProductsRequest{Page: 2, Limit: 2})
	s.Require().NoError(err)
	s.Equal(3, paged.Total)
	s.Len(paged.Items, 1)
	s.Equal(2, paged.Page)
}

func (s *ProductServiceSuite) TestListIsCachedUntilMutation() {
	s.create(model.CreateProductRequest{Title: "Widget", Description: "A very useful widget", Price: "1"})

	_, err := s.svc.List(s.ctx, model.ListProductsRequest{})
	s.Require().NoError(err)
	_, err = s.svc.List(s.ctx, model.ListProductsRequest{})
	s.Require().NoError(err)
	s.Equal(1, s.repo.listCalls)

	s.create(model.CreateProductRequest{Title: "Gadget", Description: "Another useful thing", Price: "2"})

	page, err := s.svc.List(s.ctx, model.ListProductsRequest{})
	s.Require().NoError(err)
	s.Equal(2, s.repo.listCalls)
	s.Equal(2, page.Total)
}

func (s *ProductServiceSuite) TestListSearchWithSlashIsInvalidated() {
	s.create(model.CreateProductRequest{Title: "Presets 2024/25", Description: "Season presets 2024/25", Price: "1"})

	req := model.ListProductsRequest{Query: "2024/25"}
	_, err := s.svc.List(s.ctx, req)
	s.Require().NoError(err)

	s.create(model.CreateProductRequest{Title: "Fonts 2024/25", Description: "Season fonts 2024/25", Price: "2"})

	page, err := s.svc.List(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(2, s.repo.listCalls)
	s.Equal(2, page.Total)
}

func (s *ProductServiceSuite) TestListRejectsHugePage() {
	_, err := s.svc.List(s.ctx, model.ListProductsRequest{Page: 922337203685477581})

	var fieldErrs validation.Errors
	s.Require().True(errors.As(err, &fieldErrs))
	s.Contains(fieldErrs, "page")
	s.Zero(s.repo.listCalls)
}

func (s *ProductServiceSuite) TestListByOwner() {
	s.createFull()
	_, err := s.svc.Create(s.ctx, s.other, model.CreateProductRequest{Title: "Other", Description: "Belongs to Bob", Price: "1"})
	s.Require().NoError(err)

	items, err := s.svc.ListByOwner(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Len(items, 1)
	s.Equal(s.owner, items[0].CreatorID)
}

func (s *ProductServiceSuite) TestDownload() {
	p := s.createFull()

	dl, err := s.svc.Download(s.ctx, p.ID)
	s.Require().NoError(err)
	defer dl.Body.Close()

	body, err := io.ReadAll(dl.Body)
	s.Require().NoError(err)
	s.Equal("pdf-bytes", string(body))
	s.Equal("guide.pdf", dl.Filename)
	s.Equal("application/pdf", dl.ContentType)
}

func (s *ProductServiceSuite) TestDownloadWithoutFile() {
	p := s.create(model.CreateProductRequest{Title: "Widget", Description: "A very useful widget", Price: "1"})

	_, err := s.svc.Download(s.ctx, p.ID)
	s.ErrorIs(err, model.ErrNoFile)
}

func (s *ProductServiceSuite) TestExportByOwner() {
	p := s.createFull()

	f, err := s.svc.ExportByOwner(s.ctx, s.owner)
	s.Require().NoError(err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal(exportHeaders, rows[0])
	s.Equal(p.ID.String(), rows[1][0])
	s.Equal("Lightroom Pack", rows[1][1])
}

func TestDownloadName(t *testing.T) {
	id := uuid.NewString()
	assert.Equal(t, "guide.pdf", downloadName(asset.RefPrefix+id+"-guide.pdf"))
	assert.Equal(t, "legacy.zip", downloadName(asset.RefPrefix+"legacy.zip"))
	assert.Equal(t, "download", downloadName("https://cdn.example.com/x.zip"))
}
