package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/vaughan-dsouza/goblog/internal/models"
	"github.com/vaughan-dsouza/goblog/internal/store"
	"github.com/vaughan-dsouza/goblog/internal/utils"
)

type PostHandler struct {
	base
	posts PostStore
}

func NewPostHandler(b base, posts PostStore) *PostHandler {
	return &PostHandler{base: b, posts: posts}
}

func postURL(id int64) string {
	return "/posts/" + strconv.FormatInt(id, 10)
}

// ---------------------- LIST ----------------------

func (h *PostHandler) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	p := h.page(r, "All Posts")
	p.Posts = posts
	h.render(w, r, http.StatusOK, "posts_index.html", p)
}

// ---------------------- GET ONE ----------------------

func (h *PostHandler) Show(w http.ResponseWriter, r *http.Request) {
	post, ok := h.load(w, r)
	if !ok {
		return
	}

	p := h.page(r, post.Title)
	p.Post = post
	if u := currentUser(r); u != nil {
		p.CanEdit = post.OwnedBy(u.ID)
	}
	h.render(w, r, http.StatusOK, "post_show.html", p)
}

// ---------------------- CREATE ----------------------

func (h *PostHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, "Create a Post", "/posts/create", nil, "")
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	post := &models.Post{
		UserID: currentUser(r).ID,
		Title:  utils.FormValue(r, "title"),
		Body:   utils.FormValue(r, "body"),
	}

	if err := post.Validate(); err != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, "Create a Post", "/posts/create", post, err.Error())
		return
	}

	if err := h.posts.Create(r.Context(), post); err != nil {
		h.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, postURL(post.ID), http.StatusSeeOther)
}

// ---------------------- UPDATE ----------------------

func (h *PostHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, "Edit Post", postURL(post.ID)+"/edit", post, "")
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	post.Title = utils.FormValue(r, "title")
	post.Body = utils.FormValue(r, "body")

	if err := post.Validate(); err != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, "Edit Post", postURL(post.ID)+"/edit", post, err.Error())
		return
	}

	err := h.posts.Update(r.Context(), post)
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, postURL(post.ID), http.StatusSeeOther)
}

// ---------------------- DELETE ----------------------

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	err := h.posts.Delete(r.Context(), post.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, "/posts", http.StatusSeeOther)
}

// load fetches the post named by the {id} route parameter, answering 404
// itself when there is none.
func (h *PostHandler) load(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	id, err := utils.ParseID(r, "id")
	if err != nil {
		h.notFound(w, r)
		return nil, false
	}

	post, err := h.posts.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w, r)
		return nil, false
	}
	if err != nil {
		h.serverError(w, r, err)
		return nil, false
	}
	return post, true
}

// loadOwned is load plus the check that the current user wrote the post.
func (h *PostHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	post, ok := h.load(w, r)
	if !ok {
		return nil, false
	}
	if !post.OwnedBy(currentUser(r).ID) {
		h.forbidden(w, r)
		return nil, false
	}
	return post, true
}

func (h *PostHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, title, action string, post *models.Post, formErr string) {
	p := h.page(r, title)
	p.Action = action
	p.FormError = formErr
	if post != nil {
		p.Form["title"] = post.Title
		p.Form["body"] = post.Body
	}
	h.render(w, r, status, "post_form.html", p)
}

