package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/service"
	"github.com/bookmate/bookmate-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "addBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Add book",
		Description:   "Adds a book to the caller's collection. Title and author must be new to the collection.",
		Tags:          []string{"Books"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List active books",
		Description: "Returns the caller's unarchived books, overdue books first, with cursor pagination",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "listArchivedBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/archived",
		Summary:     "List archived books",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleListArchived)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooksByTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/tags/{tag}",
		Summary:     "Books with tag",
		Description: "Returns the caller's books carrying the tag, compared case-insensitively",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleListByTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "editBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Edit book",
		Description: "Updates status, pages, due date or rating. Only fields present in the body change.",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleEditBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Deletes the book. Deleting a missing book succeeds.",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "archiveBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/archive",
		Summary:     "Archive book",
		Description: "Archives a Completed book",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleArchiveBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "unarchiveBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}/archive",
		Summary:     "Unarchive book",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleUnarchiveBook)
}

// === DTOs ===

// BookResponse contains book data in API responses.
type BookResponse struct {
	BookID          string     `json:"book_id" doc:"Book ID"`
	Title           string     `json:"title" doc:"Title"`
	Author          string     `json:"author" doc:"Author"`
	Genre           string     `json:"genre" doc:"Genre"`
	Rating          int        `json:"rating" doc:"Rating 1-5, 0 when unrated"`
	Status          string     `json:"status" doc:"To Read, Reading or Completed"`
	Tags            []string   `json:"tags" doc:"Tags"`
	TotalPages      int        `json:"total_pages" doc:"Total pages"`
	PagesRead       int        `json:"pages_read" doc:"Pages read"`
	ProgressPercent float64    `json:"progress_percent" doc:"Pages read as a percentage of total pages"`
	DueDate         string     `json:"due_date,omitempty" doc:"Due date, YYYY-MM-DD"`
	Overdue         bool       `json:"overdue" doc:"Due date has passed and the book is not Completed"`
	Archived        bool       `json:"archived" doc:"Whether the book is archived"`
	ArchivedDate    *time.Time `json:"archived_date,omitempty" doc:"When the book was archived"`
	Timestamp       time.Time  `json:"timestamp" doc:"When the book was added"`
}

// BookOutput wraps a book response for Huma.
type BookOutput struct {
	Body BookResponse
}

// BookListResponse contains a list of books.
type BookListResponse struct {
	Books []BookResponse `json:"books" doc:"Books"`
	Total int            `json:"total" doc:"Number of books returned"`
}

// BookListOutput wraps a book list for Huma.
type BookListOutput struct {
	Body BookListResponse
}

// BookPageResponse contains one page of books.
type BookPageResponse struct {
	Books      []BookResponse `json:"books" doc:"Books on this page"`
	NextCursor string         `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool           `json:"has_more" doc:"Whether more pages follow"`
}

// BookPageOutput wraps a book page for Huma.
type BookPageOutput struct {
	Body BookPageResponse
}

// AddBookRequest is the request body for adding a book.
type AddBookRequest struct {
	Title       string   `json:"title" doc:"Title"`
	Author      string   `json:"author" doc:"Author"`
	Genre       string   `json:"genre" doc:"One of the catalog genres"`
	CustomGenre string   `json:"custom_genre,omitempty" doc:"Genre name when genre is Other"`
	Status      string   `json:"status" doc:"To Read, Reading or Completed"`
	Rating      *int     `json:"rating,omitempty" doc:"Rating 1-5, ignored for To Read"`
	Tags        []string `json:"tags,omitempty" doc:"Tags"`
	TagList     string   `json:"tag_list,omitempty" doc:"Comma separated tags, merged with tags"`
	TotalPages  int      `json:"total_pages,omitempty" doc:"Total pages"`
	PagesRead   int      `json:"pages_read,omitempty" doc:"Pages read"`
	DueDate     string   `json:"due_date,omitempty" doc:"Due date, YYYY-MM-DD"`
}

// AddBookInput wraps the add book request for Huma.
type AddBookInput struct {
	Body AddBookRequest
}

// ListBooksInput contains pagination parameters.
type ListBooksInput struct {
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" doc:"Page size (default 100)"`
	Cursor string `query:"cursor" doc:"Cursor from the previous page"`
}

// BookIDInput selects a book by ID.
type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// TagInput selects books by tag.
type TagInput struct {
	Tag string `path:"tag" doc:"Tag, matched case-insensitively"`
}

// EditBookRequest is the request body for editing a book. Absent fields
// are left unchanged.
type EditBookRequest struct {
	Status     *string `json:"status,omitempty" doc:"To Read, Reading or Completed"`
	PagesRead  *int    `json:"pages_read,omitempty" doc:"Pages read"`
	TotalPages *int    `json:"total_pages,omitempty" doc:"Total pages"`
	DueDate    *string `json:"due_date,omitempty" doc:"Due date, YYYY-MM-DD; empty clears"`
	Rating     *int    `json:"rating,omitempty" doc:"Rating 1-5; 0 clears"`
}

// EditBookInput wraps the edit book request for Huma.
type EditBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body EditBookRequest
}

// === Handlers ===

func (s *Server) handleAddBook(ctx context.Context, input *AddBookInput) (*BookOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	tags := append(domain.CleanTags(input.Body.Tags), domain.ParseTags(input.Body.TagList)...)
	book, err := s.services.Book.AddBook(ctx, user, service.AddBookRequest{
		Title:       input.Body.Title,
		Author:      input.Body.Author,
		Genre:       input.Body.Genre,
		CustomGenre: input.Body.CustomGenre,
		Status:      input.Body.Status,
		Rating:      input.Body.Rating,
		Tags:        tags,
		TotalPages:  input.Body.TotalPages,
		PagesRead:   input.Body.PagesRead,
		DueDate:     input.Body.DueDate,
	})
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: s.mapBook(book)}, nil
}

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BookPageOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Book.ListActive(ctx, user.UserID, store.PaginationParams{
		Limit:  input.Limit,
		Cursor: input.Cursor,
	})
	if err != nil {
		return nil, err
	}
	return &BookPageOutput{
		Body: BookPageResponse{
			Books:      s.mapBooks(page.Items),
			NextCursor: page.NextCursor,
			HasMore:    page.HasMore,
		},
	}, nil
}

func (s *Server) handleListArchived(ctx context.Context, _ *struct{}) (*BookListOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Book.ListArchived(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return s.bookList(books), nil
}

func (s *Server) handleListByTag(ctx context.Context, input *TagInput) (*BookListOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Book.ByTag(ctx, user.UserID, input.Tag)
	if err != nil {
		return nil, err
	}
	return s.bookList(books), nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.GetBook(ctx, user.UserID, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: s.mapBook(book)}, nil
}

func (s *Server) handleEditBook(ctx context.Context, input *EditBookInput) (*BookOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.EditBook(ctx, user.UserID, input.ID, service.EditBookRequest{
		Status:     input.Body.Status,
		PagesRead:  input.Body.PagesRead,
		TotalPages: input.Body.TotalPages,
		DueDate:    input.Body.DueDate,
		Rating:     input.Body.Rating,
	})
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: s.mapBook(book)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*MessageOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Book.DeleteBook(ctx, user.UserID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Book deleted"}}, nil
}

func (s *Server) handleArchiveBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.Archive(ctx, user.UserID, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: s.mapBook(book)}, nil
}

func (s *Server) handleUnarchiveBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.Unarchive(ctx, user.UserID, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: s.mapBook(book)}, nil
}

// === Mapping ===

func (s *Server) mapBook(b *domain.Book) BookResponse {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return BookResponse{
		BookID:          b.BookID,
		Title:           b.Title,
		Author:          b.Author,
		Genre:           b.Genre,
		Rating:          b.RatingValue(),
		Status:          string(b.Status),
		Tags:            tags,
		TotalPages:      b.TotalPages,
		PagesRead:       b.PagesRead,
		ProgressPercent: b.ProgressPercent(),
		DueDate:         b.DueDate,
		Overdue:         b.IsOverdue(s.now()),
		Archived:        b.Archived,
		ArchivedDate:    b.ArchivedDate,
		Timestamp:       b.Timestamp,
	}
}

func (s *Server) mapBooks(books []*domain.Book) []BookResponse {
	out := make([]BookResponse, len(books))
	for i, b := range books {
		out[i] = s.mapBook(b)
	}
	return out
}

func (s *Server) bookList(books []*domain.Book) *BookListOutput {
	return &BookListOutput{
		Body: BookListResponse{
			Books: s.mapBooks(books),
			Total: len(books),
		},
	}
}
