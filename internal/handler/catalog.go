package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/perpusku/library-engine/internal/domain"
	"github.com/perpusku/library-engine/internal/service"
	"github.com/perpusku/library-engine/pkg/response"
)

type CatalogHandler struct {
	service   *service.CatalogService
	validator *validator.Validate
}

func NewCatalogHandler(service *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		service:   service,
		validator: validator.New(),
	}
}

// CreateBook handles POST /books
func (h *CatalogHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	book, err := h.service.CreateBook(r.Context(), principalOrZero(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, book)
}

// GetBook handles GET /books/{bookId}
func (h *CatalogHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["bookId"])
	if err != nil {
		response.BadRequest(w, "bookId must be a valid id", err)
		return
	}

	book, err := h.service.GetBook(r.Context(), principalOrZero(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, book)
}

// ListBooks handles GET /books
func (h *CatalogHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context(), principalOrZero(r), r.URL.Query().Get("search"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, books)
}

// UpdateBook handles PUT /books/{bookId}
func (h *CatalogHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["bookId"])
	if err != nil {
		response.BadRequest(w, "bookId must be a valid id", err)
		return
	}

	var req domain.UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	book, err := h.service.UpdateBook(r.Context(), principalOrZero(r), id, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, book)
}

// DeleteBook handles DELETE /books/{bookId}
func (h *CatalogHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["bookId"])
	if err != nil {
		response.BadRequest(w, "bookId must be a valid id", err)
		return
	}

	if err := h.service.DeleteBook(r.Context(), principalOrZero(r), id); err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "book deleted"})
}

// CreateShelf handles POST /shelves
func (h *CatalogHandler) CreateShelf(w http.ResponseWriter, r *http.Request) {
	var req domain.ShelfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	shelf, err := h.service.CreateShelf(r.Context(), principalOrZero(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, shelf)
}

// ListShelves handles GET /shelves
func (h *CatalogHandler) ListShelves(w http.ResponseWriter, r *http.Request) {
	shelves, err := h.service.ListShelves(r.Context(), principalOrZero(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, shelves)
}

// UpdateShelf handles PUT /shelves/{shelfId}
func (h *CatalogHandler) UpdateShelf(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["shelfId"])
	if err != nil {
		response.BadRequest(w, "shelfId must be a valid id", err)
		return
	}

	var req domain.ShelfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request payload", err)
		return
	}

	shelf, err := h.service.UpdateShelf(r.Context(), principalOrZero(r), id, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, shelf)
}

// DeleteShelf handles DELETE /shelves/{shelfId}
func (h *CatalogHandler) DeleteShelf(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["shelfId"])
	if err != nil {
		response.BadRequest(w, "shelfId must be a valid id", err)
		return
	}

	if err := h.service.DeleteShelf(r.Context(), principalOrZero(r), id); err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "bookshelf deleted"})
}
