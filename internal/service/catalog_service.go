package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/perpusku/library-engine/internal/domain"
	"github.com/perpusku/library-engine/internal/repository"
	apperrors "github.com/perpusku/library-engine/pkg/errors"
)

// CatalogService manages books and bookshelves. Stock is only ever written
// here at creation or correction time; the borrowing engine owns the
// decrement/increment that tracks loans.
type CatalogService struct {
	bookRepo repository.BookRepository
	loanRepo repository.LoanRepository
	now      func() time.Time
}

func NewCatalogService(bookRepo repository.BookRepository, loanRepo repository.LoanRepository) *CatalogService {
	return &CatalogService{
		bookRepo: bookRepo,
		loanRepo: loanRepo,
		now:      time.Now,
	}
}

func (s *CatalogService) CreateBook(ctx context.Context, principal domain.Principal, req *domain.CreateBookRequest) (*domain.Book, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators can manage the catalog")
	}

	now := s.now()
	book := &domain.Book{
		ID:            uuid.New(),
		Title:         req.Title,
		Author:        req.Author,
		Category:      req.Category,
		Stock:         req.Stock,
		PublishedYear: req.PublishedYear,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.ShelfID != "" {
		shelfID, err := uuid.Parse(req.ShelfID)
		if err != nil {
			return nil, apperrors.NewValidation(apperrors.ErrCodeMissingFields, "shelf_id must be a valid id")
		}
		book.ShelfID = &shelfID
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return book, nil
}

func (s *CatalogService) GetBook(ctx context.Context, principal domain.Principal, id uuid.UUID) (*domain.Book, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}

	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrBookNotFound) {
			return nil, apperrors.WrapBookNotFound(id.String())
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	return book, nil
}

func (s *CatalogService) ListBooks(ctx context.Context, principal domain.Principal, search string) ([]*domain.Book, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}

	books, err := s.bookRepo.List(ctx, search)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return books, nil
}

func (s *CatalogService) UpdateBook(ctx context.Context, principal domain.Principal, id uuid.UUID, req *domain.UpdateBookRequest) (*domain.Book, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators can manage the catalog")
	}

	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrBookNotFound) {
			return nil, apperrors.WrapBookNotFound(id.String())
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	book.Title = req.Title
	book.Author = req.Author
	book.Category = req.Category
	book.Stock = req.Stock
	book.PublishedYear = req.PublishedYear
	book.UpdatedAt = s.now()
	book.ShelfID = nil
	if req.ShelfID != "" {
		shelfID, err := uuid.Parse(req.ShelfID)
		if err != nil {
			return nil, apperrors.NewValidation(apperrors.ErrCodeMissingFields, "shelf_id must be a valid id")
		}
		book.ShelfID = &shelfID
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		if errors.Is(err, apperrors.ErrBookNotFound) {
			return nil, apperrors.WrapBookNotFound(id.String())
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	return book, nil
}

// DeleteBook removes a catalog item. A book with an active loan cannot go:
// the loan row still references it and the stock ledger would break.
func (s *CatalogService) DeleteBook(ctx context.Context, principal domain.Principal, id uuid.UUID) error {
	if !principal.Resolved() {
		return apperrors.NewAuthenticationRequired()
	}
	if !principal.IsAdmin() {
		return apperrors.NewForbidden("only administrators can manage the catalog")
	}

	active, err := s.loanRepo.CountActiveByBook(ctx, id)
	if err != nil {
		return apperrors.WrapDatabaseError(err)
	}
	if active > 0 {
		return apperrors.WrapHasActiveLoans("book")
	}

	if err := s.bookRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrBookNotFound) {
			return apperrors.WrapBookNotFound(id.String())
		}
		return apperrors.WrapDatabaseError(err)
	}

	return nil
}

func (s *CatalogService) CreateShelf(ctx context.Context, principal domain.Principal, req *domain.ShelfRequest) (*domain.Bookshelf, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators can manage the catalog")
	}

	shelf := &domain.Bookshelf{
		ID:       uuid.New(),
		Name:     req.Name,
		Location: req.Location,
	}

	if err := s.bookRepo.CreateShelf(ctx, shelf); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return shelf, nil
}

func (s *CatalogService) ListShelves(ctx context.Context, principal domain.Principal) ([]*domain.Bookshelf, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}

	shelves, err := s.bookRepo.ListShelves(ctx)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return shelves, nil
}

func (s *CatalogService) UpdateShelf(ctx context.Context, principal domain.Principal, id uuid.UUID, req *domain.ShelfRequest) (*domain.Bookshelf, error) {
	if !principal.Resolved() {
		return nil, apperrors.NewAuthenticationRequired()
	}
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators can manage the catalog")
	}

	shelf := &domain.Bookshelf{
		ID:       id,
		Name:     req.Name,
		Location: req.Location,
	}

	if err := s.bookRepo.UpdateShelf(ctx, shelf); err != nil {
		if errors.Is(err, apperrors.ErrShelfNotFound) {
			return nil, apperrors.WrapShelfNotFound(id.String())
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	return shelf, nil
}

func (s *CatalogService) DeleteShelf(ctx context.Context, principal domain.Principal, id uuid.UUID) error {
	if !principal.Resolved() {
		return apperrors.NewAuthenticationRequired()
	}
	if !principal.IsAdmin() {
		return apperrors.NewForbidden("only administrators can manage the catalog")
	}

	if err := s.bookRepo.DeleteShelf(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrShelfNotFound) {
			return apperrors.WrapShelfNotFound(id.String())
		}
		return apperrors.WrapDatabaseError(err)
	}

	return nil
}
