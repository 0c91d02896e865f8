package books_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookly/internal/http_server/handlers/books"
	"bookly/internal/http_server/middleware/authgate"
	"bookly/internal/models"
	"bookly/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeBookStore struct {
	books   map[uuid.UUID]models.Book
	reviews map[uuid.UUID][]models.Review
}

func newFakeBookStore() *fakeBookStore {
	return &fakeBookStore{
		books:   map[uuid.UUID]models.Book{},
		reviews: map[uuid.UUID][]models.Review{},
	}
}

func (f *fakeBookStore) SaveBook(_ context.Context, book *models.Book) error {
	f.books[book.UID] = *book
	return nil
}

func (f *fakeBookStore) Books(_ context.Context) ([]models.Book, error) {
	out := make([]models.Book, 0, len(f.books))
	for _, b := range f.books {
		out = append(out, b)
	}

	return out, nil
}

func (f *fakeBookStore) BooksByUser(_ context.Context, userUID uuid.UUID) ([]models.Book, error) {
	var out []models.Book
	for _, b := range f.books {
		if b.UserUID == userUID {
			out = append(out, b)
		}
	}

	return out, nil
}

func (f *fakeBookStore) BookByUID(_ context.Context, uid uuid.UUID) (models.Book, error) {
	b, ok := f.books[uid]
	if !ok {
		return models.Book{}, storage.ErrBookNotFound
	}

	return b, nil
}

func (f *fakeBookStore) UpdateBook(_ context.Context, uid uuid.UUID, upd models.BookUpdate) (models.Book, error) {
	b, ok := f.books[uid]
	if !ok {
		return models.Book{}, storage.ErrBookNotFound
	}

	if upd.Title != nil {
		b.Title = *upd.Title
	}
	if upd.Author != nil {
		b.Author = *upd.Author
	}
	if upd.Publisher != nil {
		b.Publisher = *upd.Publisher
	}
	if upd.PageCount != nil {
		b.PageCount = *upd.PageCount
	}
	if upd.Language != nil {
		b.Language = *upd.Language
	}

	f.books[uid] = b

	return b, nil
}

func (f *fakeBookStore) DeleteBook(_ context.Context, uid uuid.UUID) error {
	if _, ok := f.books[uid]; !ok {
		return storage.ErrBookNotFound
	}

	delete(f.books, uid)

	return nil
}

func (f *fakeBookStore) ReviewsByBook(_ context.Context, bookUID uuid.UUID) ([]models.Review, error) {
	return f.reviews[bookUID], nil
}

// identityMiddleware stands in for the auth gate.
func identityMiddleware(id authgate.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(authgate.WithIdentity(r.Context(), id)))
		})
	}
}

func newRouter(store *fakeBookStore, id authgate.Identity) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(identityMiddleware(id))

	r.Get("/books", books.List(log, store))
	r.Get("/books/{uid}", books.GetByUID(log, store))
	r.Get("/books/user/{user_uid}", books.ListByUser(log, store))
	r.Post("/books", books.Create(log, validate, store))
	r.Put("/books/{uid}", books.Update(log, store))
	r.Delete("/books/{uid}", books.Delete(log, store))

	return r
}

func seedBook(store *fakeBookStore, owner uuid.UUID) models.Book {
	book := models.Book{
		UID:           uuid.New(),
		Title:         "The Go Programming Language",
		Author:        "Donovan & Kernighan",
		Publisher:     "Addison-Wesley",
		PublishedDate: time.Date(2015, 10, 26, 0, 0, 0, 0, time.UTC),
		PageCount:     380,
		Language:      "en",
		UserUID:       owner,
	}
	store.books[book.UID] = book

	return book
}

func testIdentity() authgate.Identity {
	return authgate.Identity{
		UID:     uuid.NewString(),
		Email:   "a@x.com",
		Role:    models.RoleUser,
		TokenID: uuid.NewString(),
	}
}

func TestBooks_Create(t *testing.T) {
	store := newFakeBookStore()
	id := testIdentity()
	router := newRouter(store, id)

	body := `{
		"title": "The Go Programming Language",
		"author": "Donovan & Kernighan",
		"publisher": "Addison-Wesley",
		"published_date": "2015-10-26",
		"page_count": 380,
		"language": "en"
	}`

	req := httptest.NewRequest(http.MethodPost, "/books", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got books.BookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "The Go Programming Language", got.Book.Title)
	require.Equal(t, id.UID, got.Book.UserUID.String())
	require.Len(t, store.books, 1)
}

func TestBooks_Create_BadDate(t *testing.T) {
	store := newFakeBookStore()
	router := newRouter(store, testIdentity())

	body := `{
		"title": "t",
		"author": "a",
		"publisher": "p",
		"published_date": "26-10-2015",
		"page_count": 1,
		"language": "en"
	}`

	req := httptest.NewRequest(http.MethodPost, "/books", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "YYYY-MM-DD")
	require.Empty(t, store.books)
}

func TestBooks_GetByUID(t *testing.T) {
	store := newFakeBookStore()
	owner := uuid.New()
	book := seedBook(store, owner)
	store.reviews[book.UID] = []models.Review{{
		UID:     uuid.New(),
		Rating:  5,
		BookUID: book.UID,
		UserUID: owner,
	}}

	router := newRouter(store, testIdentity())

	req := httptest.NewRequest(http.MethodGet, "/books/"+book.UID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got books.DetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, book.UID, got.Book.UID)
	require.Len(t, got.Reviews, 1)
}

func TestBooks_GetByUID_NotFound(t *testing.T) {
	router := newRouter(newFakeBookStore(), testIdentity())

	req := httptest.NewRequest(http.MethodGet, "/books/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "book not found")
}

func TestBooks_GetByUID_InvalidUID(t *testing.T) {
	router := newRouter(newFakeBookStore(), testIdentity())

	req := httptest.NewRequest(http.MethodGet, "/books/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBooks_ListByUser(t *testing.T) {
	store := newFakeBookStore()
	owner := uuid.New()
	seedBook(store, owner)
	seedBook(store, uuid.New())

	router := newRouter(store, testIdentity())

	req := httptest.NewRequest(http.MethodGet, "/books/user/"+owner.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got books.ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Books, 1)
	require.Equal(t, owner, got.Books[0].UserUID)
}

func TestBooks_Update(t *testing.T) {
	store := newFakeBookStore()
	book := seedBook(store, uuid.New())

	router := newRouter(store, testIdentity())

	req := httptest.NewRequest(http.MethodPut, "/books/"+book.UID.String(), bytes.NewBufferString(`{"title": "Renamed"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got books.BookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Renamed", got.Book.Title)
	// untouched fields keep their values
	require.Equal(t, book.Author, got.Book.Author)
}

func TestBooks_Delete(t *testing.T) {
	store := newFakeBookStore()
	book := seedBook(store, uuid.New())

	router := newRouter(store, testIdentity())

	req := httptest.NewRequest(http.MethodDelete, "/books/"+book.UID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, store.books)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/books/"+book.UID.String(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
