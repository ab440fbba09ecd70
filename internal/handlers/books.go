package handlers

import "net/http"

type BookHandler struct {
	base
	books BookStore
}

func NewBookHandler(b base, books BookStore) *BookHandler {
	return &BookHandler{base: b, books: books}
}

func (h *BookHandler) Index(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.List(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	p := h.page(r, "All Books")
	p.Books = books
	h.render(w, r, http.StatusOK, "books.html", p)
}
